package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	employeeDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/staff-management/internal/employee"
	"github.com/frahmantamala/staff-management/internal/listquery"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.RepositoryAPI {
	return &EmployeeRepository{db: db}
}

var relations = []string{"Department", "Organ", "Location", "Country"}

func (r *EmployeeRepository) List(ctx context.Context, q listquery.ListQuery, status string) (listquery.Page[employee.Employee], error) {
	opts := listquery.Options{
		SearchFields: []string{"full_name", "email", "job_title", "Department.name"},
		Order:        "employees.full_name ASC",
		Preloads:     relations,
	}
	if status != "" {
		opts.Scope = func(tx *gorm.DB) *gorm.DB {
			return tx.Where("employees.status = ?", status)
		}
	}

	page, err := listquery.FilterAndPaginate[employeeDatamodel.Employee](ctx, r.db, q, opts)
	if err != nil {
		return listquery.Page[employee.Employee]{}, err
	}
	return listquery.Map(page, employee.FromDataModel), nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*employee.Employee, error) {
	var row employeeDatamodel.Employee
	tx := r.db.WithContext(ctx)
	for _, rel := range relations {
		tx = tx.Preload(rel)
	}
	if err := tx.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}
	e := employee.FromDataModel(row)
	return &e, nil
}

func (r *EmployeeRepository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&employeeDatamodel.Employee{}).
		Where("LOWER(email) = LOWER(?) AND id <> ?", email, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) error {
	row := employee.ToDataModel(e)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	e.ID = row.ID
	e.CreatedAt = row.CreatedAt
	e.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) error {
	row := employee.ToDataModel(e)
	if err := r.db.WithContext(ctx).Omit(relations...).Save(row).Error; err != nil {
		return err
	}
	e.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&employeeDatamodel.Employee{}, id).Error
}
