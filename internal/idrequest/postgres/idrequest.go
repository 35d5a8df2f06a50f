package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/staff-management/internal/attachment"
	attachmentPostgres "github.com/frahmantamala/staff-management/internal/attachment/postgres"
	"github.com/frahmantamala/staff-management/internal/auth"
		requestDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/request"
	"github.com/frahmantamala/staff-management/internal/idrequest"
	"github.com/frahmantamala/staff-management/internal/listquery"
	workflowPostgres "github.com/frahmantamala/staff-management/internal/workflow/postgres"
)

type IDRequestRepository struct {
	db *gorm.DB
}

func NewIDRequestRepository(db *gorm.DB) idrequest.RepositoryAPI {
	return &IDRequestRepository{db: db}
}

func (r *IDRequestRepository) List(ctx context.Context, q listquery.ListQuery, scope auth.Scope) (listquery.Page[idrequest.IDRequest], error) {
	page, err := listquery.FilterAndPaginate[requestDatamodel.IDRequest](ctx, r.db, q, listquery.Options{
		SearchFields: []string{"serial_number", "request_type", "status", "Employee.full_name"},
		Scope:        workflowPostgres.OwnedBy(scope, "id_requests"),
		Order:        "id_requests.created_at DESC",
		Preloads:     []string{"Employee", "Attachments"},
	})
	if err != nil {
		return listquery.Page[idrequest.IDRequest]{}, err
	}
	return listquery.Map(page, idrequest.FromDataModel), nil
}

func (r *IDRequestRepository) GetByID(ctx context.Context, id int64) (*idrequest.IDRequest, error) {
	var row requestDatamodel.IDRequest
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Attachments", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, idrequest.ErrIDRequestNotFound
		}
		return nil, err
	}
	i := idrequest.FromDataModel(row)
	return &i, nil
}

func (r *IDRequestRepository) Save(ctx context.Context, i *idrequest.IDRequest, plan attachment.Plan) error {
	row := idrequest.ToDataModel(i)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := workflowPostgres.SaveRequest(tx, row, row.ID, row.Status); err != nil {
			return err
		}
		return attachmentPostgres.ApplyRows(tx, attachment.OwnerIDRequest, row.ID, plan)
	})
	if err != nil {
		return err
	}
	i.ID = row.ID
	i.CreatedAt = row.CreatedAt
	i.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *IDRequestRepository) Decide(ctx context.Context, id int64, status, reason string) (bool, error) {
	return workflowPostgres.Decide(ctx, r.db, &requestDatamodel.IDRequest{}, id, status, reason)
}

func (r *IDRequestRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := attachmentPostgres.DeleteByOwner(tx, attachment.OwnerIDRequest, id); err != nil {
			return err
		}
		return tx.Delete(&requestDatamodel.IDRequest{}, id).Error
	})
}

func (r *IDRequestRepository) EmployeeExists(ctx context.Context, id int64) (bool, error) {
	return workflowPostgres.EmployeeExists(ctx, r.db, id)
}

func (r *IDRequestRepository) RequesterEmail(ctx context.Context, userID int64) (string, error) {
	return workflowPostgres.RequesterEmail(ctx, r.db, userID)
}
