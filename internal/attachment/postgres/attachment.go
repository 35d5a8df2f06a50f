package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/staff-management/internal/attachment"
	attachmentDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/attachment"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) attachment.RepositoryAPI {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) GetByID(ctx context.Context, id string) (*attachmentDatamodel.Attachment, error) {
	var row attachmentDatamodel.Attachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attachment.ErrAttachmentNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *AttachmentRepository) ListByOwner(ctx context.Context, ownerType string, ownerID int64) ([]attachmentDatamodel.Attachment, error) {
	var rows []attachmentDatamodel.Attachment
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// OwnerDirectory returns the serial number of the owning row, which names the
// blob directory of its attachments.
func (r *AttachmentRepository) OwnerDirectory(ctx context.Context, ownerType string, ownerID int64) (string, error) {
	switch ownerType {
	case attachment.OwnerIncident, attachment.OwnerCarPass, attachment.OwnerIDRequest:
	default:
		return "", fmt.Errorf("unknown attachment owner type %q", ownerType)
	}

	var serial string
	err := r.db.WithContext(ctx).
		Table(ownerType).
		Select("serial_number").
		Where("id = ?", ownerID).
		Scan(&serial).Error
	if err != nil {
		return "", err
	}
	if serial == "" {
		return "", attachment.ErrAttachmentNotFound
	}
	return serial, nil
}

// OwnerRequester returns the requested_by_id of a car-pass or ID request.
func (r *AttachmentRepository) OwnerRequester(ctx context.Context, ownerType string, ownerID int64) (int64, error) {
	switch ownerType {
	case attachment.OwnerCarPass, attachment.OwnerIDRequest:
	default:
		return 0, fmt.Errorf("attachment owner type %q has no requester", ownerType)
	}

	var requester int64
	err := r.db.WithContext(ctx).
		Table(ownerType).
		Select("requested_by_id").
		Where("id = ?", ownerID).
		Scan(&requester).Error
	if err != nil {
		return 0, err
	}
	if requester == 0 {
		return 0, attachment.ErrAttachmentNotFound
	}
	return requester, nil
}

// ApplyRows writes a reconciliation plan's attachment rows; callers pass the
// transaction that also writes the owning entity.
func ApplyRows(tx *gorm.DB, ownerType string, ownerID int64, plan attachment.Plan) error {
	if len(plan.ToDelete) > 0 {
		ids := make([]string, 0, len(plan.ToDelete))
		for _, e := range plan.ToDelete {
			ids = append(ids, e.ID)
		}
		err := tx.Where("owner_type = ? AND owner_id = ? AND id IN ?", ownerType, ownerID, ids).
			Delete(&attachmentDatamodel.Attachment{}).Error
		if err != nil {
			return fmt.Errorf("delete attachments: %w", err)
		}
	}

	for _, u := range plan.ToUpdate {
		updates := map[string]interface{}{"alt_text": u.AltText}
		if u.Replaces() {
			updates["file_key"] = u.FileKey
			updates["file_name"] = u.File.Name
			updates["content_type"] = u.File.ContentType
			updates["extension"] = u.File.Extension()
			updates["size"] = u.File.Size
		}
		err := tx.Model(&attachmentDatamodel.Attachment{}).
			Where("id = ? AND owner_type = ? AND owner_id = ?", u.ID, ownerType, ownerID).
			Updates(updates).Error
		if err != nil {
			return fmt.Errorf("update attachment %s: %w", u.ID, err)
		}
	}

	if len(plan.ToCreate) > 0 {
		rows := make([]attachmentDatamodel.Attachment, 0, len(plan.ToCreate))
		for _, c := range plan.ToCreate {
			rows = append(rows, attachmentDatamodel.Attachment{
				ID:          c.ID,
				OwnerType:   ownerType,
				OwnerID:     ownerID,
				FileKey:     c.FileKey,
				FileName:    c.File.Name,
				ContentType: c.File.ContentType,
				Extension:   c.File.Extension(),
				Size:        c.File.Size,
				AltText:     c.AltText,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("create attachments: %w", err)
		}
	}

	return nil
}

// DeleteByOwner removes every attachment row of one owner.
func DeleteByOwner(tx *gorm.DB, ownerType string, ownerID int64) error {
	return tx.Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Delete(&attachmentDatamodel.Attachment{}).Error
}
