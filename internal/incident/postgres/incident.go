package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/staff-management/internal/attachment"
	attachmentPostgres "github.com/frahmantamala/staff-management/internal/attachment/postgres"
	incidentDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/incident"
	"github.com/frahmantamala/staff-management/internal/incident"
	"github.com/frahmantamala/staff-management/internal/listquery"
)

type IncidentRepository struct {
	db *gorm.DB
}

func NewIncidentRepository(db *gorm.DB) incident.RepositoryAPI {
	return &IncidentRepository{db: db}
}

func (r *IncidentRepository) List(ctx context.Context, q listquery.ListQuery) (listquery.Page[incident.Incident], error) {
	page, err := listquery.FilterAndPaginate[incidentDatamodel.Incident](ctx, r.db, q, listquery.Options{
		SearchFields: []string{"serial_number", "title", "description", "Location.name"},
		Order:        "incidents.occurred_at DESC",
		Preloads:     []string{"Location", "Employee", "Attachments"},
	})
	if err != nil {
		return listquery.Page[incident.Incident]{}, err
	}
	return listquery.Map(page, incident.FromDataModel), nil
}

func (r *IncidentRepository) GetByID(ctx context.Context, id int64) (*incident.Incident, error) {
	var row incidentDatamodel.Incident
	err := r.db.WithContext(ctx).
		Preload("Location").
		Preload("Employee").
		Preload("Attachments", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, incident.ErrIncidentNotFound
		}
		return nil, err
	}
	i := incident.FromDataModel(row)
	return &i, nil
}

func (r *IncidentRepository) Save(ctx context.Context, i *incident.Incident, plan attachment.Plan) error {
	row := incident.ToDataModel(i)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(row).Error; err != nil {
			return err
		}
		return attachmentPostgres.ApplyRows(tx, attachment.OwnerIncident, row.ID, plan)
	})
	if err != nil {
		return err
	}
	i.ID = row.ID
	i.CreatedAt = row.CreatedAt
	i.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *IncidentRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&incidentDatamodel.Incident{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *IncidentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := attachmentPostgres.DeleteByOwner(tx, attachment.OwnerIncident, id); err != nil {
			return err
		}
		return tx.Delete(&incidentDatamodel.Incident{}, id).Error
	})
}
