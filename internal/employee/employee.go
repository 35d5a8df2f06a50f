package employee

import (
	"errors"
	"time"

	employeeDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/employee"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var ErrEmployeeNotFound = errors.New("employee not found")

type Employee struct {
	ID             int64      `json:"id"`
	FullName       string     `json:"fullName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	JobTitle       string     `json:"jobTitle,omitempty"`
	Status         string     `json:"status"`
	HiredAt        *time.Time `json:"hiredAt,omitempty"`
	DepartmentID   *int64     `json:"departmentId,omitempty"`
	DepartmentName string     `json:"departmentName,omitempty"`
	OrganID        *int64     `json:"organId,omitempty"`
	OrganName      string     `json:"organName,omitempty"`
	LocationID     *int64     `json:"locationId,omitempty"`
	LocationName   string     `json:"locationName,omitempty"`
	CountryID      *int64     `json:"countryId,omitempty"`
	CountryName    string     `json:"countryName,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (e *Employee) IsActive() bool {
	return e.Status == StatusActive
}

func ToDataModel(e *Employee) *employeeDatamodel.Employee {
	return &employeeDatamodel.Employee{
		ID:           e.ID,
		FullName:     e.FullName,
		Email:        e.Email,
		Phone:        e.Phone,
		JobTitle:     e.JobTitle,
		Status:       e.Status,
		HiredAt:      e.HiredAt,
		DepartmentID: e.DepartmentID,
		OrganID:      e.OrganID,
		LocationID:   e.LocationID,
		CountryID:    e.CountryID,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func FromDataModel(row employeeDatamodel.Employee) Employee {
	e := Employee{
		ID:           row.ID,
		FullName:     row.FullName,
		Email:        row.Email,
		Phone:        row.Phone,
		JobTitle:     row.JobTitle,
		Status:       row.Status,
		HiredAt:      row.HiredAt,
		DepartmentID: row.DepartmentID,
		OrganID:      row.OrganID,
		LocationID:   row.LocationID,
		CountryID:    row.CountryID,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.Department != nil {
		e.DepartmentName = row.Department.Name
	}
	if row.Organ != nil {
		e.OrganName = row.Organ.Name
	}
	if row.Location != nil {
		e.LocationName = row.Location.Name
	}
	if row.Country != nil {
		e.CountryName = row.Country.Name
	}
	return e
}
