package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/staff-management/internal/accessrequest"
	"github.com/frahmantamala/staff-management/internal/auth"
	requestDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/request"
	settingsDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/settings"
	"github.com/frahmantamala/staff-management/internal/listquery"
	workflowPostgres "github.com/frahmantamala/staff-management/internal/workflow/postgres"
)

type AccessRequestRepository struct {
	db *gorm.DB
}

func NewAccessRequestRepository(db *gorm.DB) accessrequest.RepositoryAPI {
	return &AccessRequestRepository{db: db}
}

func (r *AccessRequestRepository) List(ctx context.Context, q listquery.ListQuery, scope auth.Scope) (listquery.Page[accessrequest.AccessRequest], error) {
	page, err := listquery.FilterAndPaginate[requestDatamodel.AccessRequest](ctx, r.db, q, listquery.Options{
		SearchFields: []string{"serial_number", "visitor_name", "visitor_company", "status", "HostEmployee.full_name"},
		Scope:        workflowPostgres.OwnedBy(scope, "access_requests"),
		Order:        "access_requests.visit_from DESC",
		Preloads:     []string{"HostEmployee", "Location"},
	})
	if err != nil {
		return listquery.Page[accessrequest.AccessRequest]{}, err
	}
	return listquery.Map(page, accessrequest.FromDataModel), nil
}

func (r *AccessRequestRepository) GetByID(ctx context.Context, id int64) (*accessrequest.AccessRequest, error) {
	var row requestDatamodel.AccessRequest
	err := r.db.WithContext(ctx).Preload("HostEmployee").Preload("Location").First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accessrequest.ErrAccessRequestNotFound
		}
		return nil, err
	}
	a := accessrequest.FromDataModel(row)
	return &a, nil
}

func (r *AccessRequestRepository) Save(ctx context.Context, a *accessrequest.AccessRequest) error {
	row := accessrequest.ToDataModel(a)
	if err := workflowPostgres.SaveRequest(r.db.WithContext(ctx), row, row.ID, row.Status); err != nil {
		return err
	}
	a.ID = row.ID
	a.CreatedAt = row.CreatedAt
	a.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *AccessRequestRepository) Decide(ctx context.Context, id int64, status, reason string) (bool, error) {
	return workflowPostgres.Decide(ctx, r.db, &requestDatamodel.AccessRequest{}, id, status, reason)
}

func (r *AccessRequestRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&requestDatamodel.AccessRequest{}, id).Error
}

func (r *AccessRequestRepository) EmployeeExists(ctx context.Context, id int64) (bool, error) {
	return workflowPostgres.EmployeeExists(ctx, r.db, id)
}

func (r *AccessRequestRepository) LocationExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&settingsDatamodel.Location{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *AccessRequestRepository) RequesterEmail(ctx context.Context, userID int64) (string, error) {
	return workflowPostgres.RequesterEmail(ctx, r.db, userID)
}
