package incident

import (
	"time"

	"github.com/frahmantamala/staff-management/internal/core/datamodel/attachment"
	"github.com/frahmantamala/staff-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/staff-management/internal/core/datamodel/settings"
)

type Incident struct {
	ID           int64                   `gorm:"primaryKey"`
	SerialNumber string                  `gorm:"column:serial_number;uniqueIndex;not null"`
	Title        string                  `gorm:"column:title;not null"`
	Description  string                  `gorm:"column:description"`
	Severity     string                  `gorm:"column:severity;default:low"`
	Status       string                  `gorm:"column:status;default:open"`
	OccurredAt   time.Time               `gorm:"column:occurred_at"`
	LocationID   *int64                  `gorm:"column:location_id"`
	Location     *settings.Location      `gorm:"foreignKey:LocationID"`
	EmployeeID   *int64                  `gorm:"column:employee_id"`
	Employee     *employee.Employee      `gorm:"foreignKey:EmployeeID"`
	ReportedByID int64                   `gorm:"column:reported_by_id;not null"`
	Attachments  []attachment.Attachment `gorm:"polymorphic:Owner;polymorphicValue:incidents"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
