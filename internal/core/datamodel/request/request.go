package request

import (
	"time"

	"github.com/frahmantamala/staff-management/internal/core/datamodel/attachment"
	"github.com/frahmantamala/staff-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/staff-management/internal/core/datamodel/settings"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type CarPassRequest struct {
	ID              int64                   `gorm:"primaryKey"`
	SerialNumber    string                  `gorm:"column:serial_number;uniqueIndex;not null"`
	EmployeeID      int64                   `gorm:"column:employee_id;not null"`
	Employee        *employee.Employee      `gorm:"foreignKey:EmployeeID"`
	VehicleMake     string                  `gorm:"column:vehicle_make"`
	VehicleModel    string                  `gorm:"column:vehicle_model"`
	PlateNumber     string                  `gorm:"column:plate_number;not null"`
	Color           string                  `gorm:"column:color"`
	ValidFrom       time.Time               `gorm:"column:valid_from"`
	ValidUntil      time.Time               `gorm:"column:valid_until"`
	Status          string                  `gorm:"column:status;default:pending"`
	RejectionReason string                  `gorm:"column:rejection_reason"`
	RequestedByID   int64                   `gorm:"column:requested_by_id;not null"`
	Attachments     []attachment.Attachment `gorm:"polymorphic:Owner;polymorphicValue:car_pass_requests"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

type IDRequest struct {
	ID              int64                   `gorm:"primaryKey"`
	SerialNumber    string                  `gorm:"column:serial_number;uniqueIndex;not null"`
	EmployeeID      int64                   `gorm:"column:employee_id;not null"`
	Employee        *employee.Employee      `gorm:"foreignKey:EmployeeID"`
	RequestType     string                  `gorm:"column:request_type;not null"`
	Reason          string                  `gorm:"column:reason"`
	Status          string                  `gorm:"column:status;default:pending"`
	RejectionReason string                  `gorm:"column:rejection_reason"`
	RequestedByID   int64                   `gorm:"column:requested_by_id;not null"`
	Attachments     []attachment.Attachment `gorm:"polymorphic:Owner;polymorphicValue:id_requests"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (IDRequest) TableName() string {
	return "id_requests"
}

type AccessRequest struct {
	ID              int64              `gorm:"primaryKey"`
	SerialNumber    string             `gorm:"column:serial_number;uniqueIndex;not null"`
	VisitorName     string             `gorm:"column:visitor_name;not null"`
	VisitorCompany  string             `gorm:"column:visitor_company"`
	VisitorIDNumber string             `gorm:"column:visitor_id_number"`
	HostEmployeeID  int64              `gorm:"column:host_employee_id;not null"`
	HostEmployee    *employee.Employee `gorm:"foreignKey:HostEmployeeID"`
	LocationID      *int64             `gorm:"column:location_id"`
	Location        *settings.Location `gorm:"foreignKey:LocationID"`
	Purpose         string             `gorm:"column:purpose"`
	VisitFrom       time.Time          `gorm:"column:visit_from"`
	VisitUntil      time.Time          `gorm:"column:visit_until"`
	Status          string             `gorm:"column:status;default:pending"`
	RejectionReason string             `gorm:"column:rejection_reason"`
	RequestedByID   int64              `gorm:"column:requested_by_id;not null"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
