package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/staff-management/internal/attachment"
	attachmentPostgres "github.com/frahmantamala/staff-management/internal/attachment/postgres"
	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/carpass"
	requestDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/request"
	"github.com/frahmantamala/staff-management/internal/listquery"
	workflowPostgres "github.com/frahmantamala/staff-management/internal/workflow/postgres"
)

type CarPassRepository struct {
	db *gorm.DB
}

func NewCarPassRepository(db *gorm.DB) carpass.RepositoryAPI {
	return &CarPassRepository{db: db}
}

func (r *CarPassRepository) List(ctx context.Context, q listquery.ListQuery, scope auth.Scope) (listquery.Page[carpass.CarPass], error) {
	page, err := listquery.FilterAndPaginate[requestDatamodel.CarPassRequest](ctx, r.db, q, listquery.Options{
		SearchFields: []string{"serial_number", "plate_number", "vehicle_make", "status", "Employee.full_name"},
		Scope:        workflowPostgres.OwnedBy(scope, "car_pass_requests"),
		Order:        "car_pass_requests.created_at DESC",
		Preloads:     []string{"Employee", "Attachments"},
	})
	if err != nil {
		return listquery.Page[carpass.CarPass]{}, err
	}
	return listquery.Map(page, carpass.FromDataModel), nil
}

func (r *CarPassRepository) GetByID(ctx context.Context, id int64) (*carpass.CarPass, error) {
	var row requestDatamodel.CarPassRequest
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Attachments", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, carpass.ErrCarPassNotFound
		}
		return nil, err
	}
	c := carpass.FromDataModel(row)
	return &c, nil
}

func (r *CarPassRepository) Save(ctx context.Context, c *carpass.CarPass, plan attachment.Plan) error {
	row := carpass.ToDataModel(c)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := workflowPostgres.SaveRequest(tx, row, row.ID, row.Status); err != nil {
			return err
		}
		return attachmentPostgres.ApplyRows(tx, attachment.OwnerCarPass, row.ID, plan)
	})
	if err != nil {
		return err
	}
	c.ID = row.ID
	c.CreatedAt = row.CreatedAt
	c.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *CarPassRepository) Decide(ctx context.Context, id int64, status, reason string) (bool, error) {
	return workflowPostgres.Decide(ctx, r.db, &requestDatamodel.CarPassRequest{}, id, status, reason)
}

func (r *CarPassRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := attachmentPostgres.DeleteByOwner(tx, attachment.OwnerCarPass, id); err != nil {
			return err
		}
		return tx.Delete(&requestDatamodel.CarPassRequest{}, id).Error
	})
}

func (r *CarPassRepository) EmployeeExists(ctx context.Context, id int64) (bool, error) {
	return workflowPostgres.EmployeeExists(ctx, r.db, id)
}

func (r *CarPassRepository) RequesterEmail(ctx context.Context, userID int64) (string, error) {
	return workflowPostgres.RequesterEmail(ctx, r.db, userID)
}
