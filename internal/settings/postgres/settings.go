package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	settingsDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/settings"
	"github.com/frahmantamala/staff-management/internal/listquery"
	"github.com/frahmantamala/staff-management/internal/settings"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) settings.RepositoryAPI {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) List(ctx context.Context, kind settings.Kind, q listquery.ListQuery) (listquery.Page[settings.Item], error) {
	db := r.db.WithContext(ctx)
	switch kind {
	case settings.KindOrgan:
		page, err := listquery.FilterAndPaginate[settingsDatamodel.Organ](ctx, db, q, listquery.Options{
			SearchFields: []string{"name", "description"},
			Order:        "organs.name ASC",
		})
		return listquery.Map(page, organItem), err
	case settings.KindDepartment:
		page, err := listquery.FilterAndPaginate[settingsDatamodel.Department](ctx, db, q, listquery.Options{
			SearchFields: []string{"name", "description", "Organ.name"},
			Order:        "departments.name ASC",
			Preloads:     []string{"Organ"},
		})
		return listquery.Map(page, departmentItem), err
	case settings.KindLocation:
		page, err := listquery.FilterAndPaginate[settingsDatamodel.Location](ctx, db, q, listquery.Options{
			SearchFields: []string{"name", "description"},
			Order:        "locations.name ASC",
		})
		return listquery.Map(page, locationItem), err
	case settings.KindCountry:
		page, err := listquery.FilterAndPaginate[settingsDatamodel.Country](ctx, db, q, listquery.Options{
			SearchFields: []string{"name", "code"},
			Order:        "countries.name ASC",
		})
		return listquery.Map(page, countryItem), err
	}
	return listquery.Page[settings.Item]{}, settings.ErrUnknownKind
}

func (r *SettingsRepository) GetByID(ctx context.Context, kind settings.Kind, id int64) (*settings.Item, error) {
	db := r.db.WithContext(ctx)
	var (
		item settings.Item
		err  error
	)
	switch kind {
	case settings.KindOrgan:
		var row settingsDatamodel.Organ
		err = db.First(&row, id).Error
		item = organItem(row)
	case settings.KindDepartment:
		var row settingsDatamodel.Department
		err = db.Preload("Organ").First(&row, id).Error
		item = departmentItem(row)
	case settings.KindLocation:
		var row settingsDatamodel.Location
		err = db.First(&row, id).Error
		item = locationItem(row)
	case settings.KindCountry:
		var row settingsDatamodel.Country
		err = db.First(&row, id).Error
		item = countryItem(row)
	default:
		return nil, settings.ErrUnknownKind
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, settings.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *SettingsRepository) NameTaken(ctx context.Context, kind settings.Kind, name string, exceptID int64) (bool, error) {
	model, err := modelFor(kind)
	if err != nil {
		return false, err
	}
	var n int64
	err = r.db.WithContext(ctx).Model(model).
		Where("LOWER(name) = LOWER(?) AND id <> ?", name, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *SettingsRepository) Create(ctx context.Context, kind settings.Kind, item *settings.Item) error {
	row, err := rowFor(kind, item)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	item.ID = idOf(row)
	return nil
}

func (r *SettingsRepository) Update(ctx context.Context, kind settings.Kind, item *settings.Item) error {
	row, err := rowFor(kind, item)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *SettingsRepository) Delete(ctx context.Context, kind settings.Kind, id int64) error {
	model, err := modelFor(kind)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(model, id).Error
}

func (r *SettingsRepository) Options(ctx context.Context, kind settings.Kind) ([]settings.Option, error) {
	model, err := modelFor(kind)
	if err != nil {
		return nil, err
	}
	options := make([]settings.Option, 0)
	err = r.db.WithContext(ctx).Model(model).Select("id", "name").Order("name ASC").Scan(&options).Error
	return options, err
}

func modelFor(kind settings.Kind) (interface{}, error) {
	switch kind {
	case settings.KindOrgan:
		return &settingsDatamodel.Organ{}, nil
	case settings.KindDepartment:
		return &settingsDatamodel.Department{}, nil
	case settings.KindLocation:
		return &settingsDatamodel.Location{}, nil
	case settings.KindCountry:
		return &settingsDatamodel.Country{}, nil
	}
	return nil, settings.ErrUnknownKind
}

func rowFor(kind settings.Kind, item *settings.Item) (interface{}, error) {
	switch kind {
	case settings.KindOrgan:
		return &settingsDatamodel.Organ{ID: item.ID, Name: item.Name, Description: item.Description, CreatedAt: item.CreatedAt}, nil
	case settings.KindDepartment:
		return &settingsDatamodel.Department{ID: item.ID, Name: item.Name, Description: item.Description, OrganID: item.OrganID, CreatedAt: item.CreatedAt}, nil
	case settings.KindLocation:
		return &settingsDatamodel.Location{ID: item.ID, Name: item.Name, Description: item.Description, CreatedAt: item.CreatedAt}, nil
	case settings.KindCountry:
		return &settingsDatamodel.Country{ID: item.ID, Name: item.Name, Code: item.Code, CreatedAt: item.CreatedAt}, nil
	}
	return nil, settings.ErrUnknownKind
}

func idOf(row interface{}) int64 {
	switch row := row.(type) {
	case *settingsDatamodel.Organ:
		return row.ID
	case *settingsDatamodel.Department:
		return row.ID
	case *settingsDatamodel.Location:
		return row.ID
	case *settingsDatamodel.Country:
		return row.ID
	}
	return 0
}

func organItem(row settingsDatamodel.Organ) settings.Item {
	return settings.Item{ID: row.ID, Name: row.Name, Description: row.Description, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
}

func departmentItem(row settingsDatamodel.Department) settings.Item {
	item := settings.Item{ID: row.ID, Name: row.Name, Description: row.Description, OrganID: row.OrganID, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
	if row.Organ != nil {
		item.OrganName = row.Organ.Name
	}
	return item
}

func locationItem(row settingsDatamodel.Location) settings.Item {
	return settings.Item{ID: row.ID, Name: row.Name, Description: row.Description, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
}

func countryItem(row settingsDatamodel.Country) settings.Item {
	return settings.Item{ID: row.ID, Name: row.Name, Code: row.Code, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
}
