package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/workflow"
)

// OwnedBy limits a list to the caller's own requests unless the scope reaches every row.
func OwnedBy(scope auth.Scope, table string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if scope.Any {
			return tx
		}
		return tx.Where(table+".requested_by_id = ?", scope.UserID)
	}
}

// Decide records a decision on a still-pending row; it reports false when the
// row was decided in the meantime.
func Decide(ctx context.Context, db *gorm.DB, model interface{}, id int64, status, reason string) (bool, error) {
	res := db.WithContext(ctx).Model(model).
		Where("id = ? AND status = ?", id, workflow.StatusPending).
		Updates(map[string]interface{}{"status": status, "rejection_reason": reason})
	return res.RowsAffected > 0, res.Error
}

// lockedColumns are never written by an edit; decisions go through Decide.
var lockedColumns = []string{clause.Associations, "id", "serial_number", "status", "rejection_reason", "requested_by_id", "created_at"}

// SaveRequest inserts a new request row or writes an edit to an existing one.
// An edit lands only while the row still has the status the editor read and
// fails with workflow.ErrAlreadyDecided otherwise.
func SaveRequest(tx *gorm.DB, row interface{}, id int64, readStatus string) error {
	if id == 0 {
		return tx.Omit(clause.Associations).Create(row).Error
	}
	res := tx.Model(row).
		Select("*").
		Omit(lockedColumns...).
		Where("status = ?", readStatus).
		Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return workflow.ErrAlreadyDecided
	}
	return nil
}

// RequesterEmail is the address a decision notice goes to.
func RequesterEmail(ctx context.Context, db *gorm.DB, userID int64) (string, error) {
	var email string
	err := db.WithContext(ctx).Table("users").Select("email").Where("id = ?", userID).Scan(&email).Error
	return email, err
}

// EmployeeExists guards the employee reference of a request form.
func EmployeeExists(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Table("employees").Where("id = ?", id).Count(&n).Error
	return n > 0, err
}
