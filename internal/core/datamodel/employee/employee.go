package employee

import (
	"time"

	"github.com/frahmantamala/staff-management/internal/core/datamodel/settings"
)

type Employee struct {
	ID           int64                `gorm:"primaryKey"`
	FullName     string               `gorm:"column:full_name;not null"`
	Email        string               `gorm:"column:email;uniqueIndex;not null"`
	Phone        string               `gorm:"column:phone"`
	JobTitle     string               `gorm:"column:job_title"`
	Status       string               `gorm:"column:status;default:active"`
	HiredAt      *time.Time           `gorm:"column:hired_at"`
	DepartmentID *int64               `gorm:"column:department_id"`
	Department   *settings.Department `gorm:"foreignKey:DepartmentID"`
	OrganID      *int64               `gorm:"column:organ_id"`
	Organ        *settings.Organ      `gorm:"foreignKey:OrganID"`
	LocationID   *int64               `gorm:"column:location_id"`
	Location     *settings.Location   `gorm:"foreignKey:LocationID"`
	CountryID    *int64               `gorm:"column:country_id"`
	Country      *settings.Country    `gorm:"foreignKey:CountryID"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
