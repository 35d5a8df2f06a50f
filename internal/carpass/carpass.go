package carpass

import (
	"errors"
	"time"

	"github.com/frahmantamala/staff-management/internal/attachment"
	requestDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/request"
)

// Entity names car passes in permissions, serial counters and events.
const Entity = "carpass"

var ErrCarPassNotFound = errors.New("car pass request not found")

type CarPass struct {
	ID              int64                 `json:"id"`
	SerialNumber    string                `json:"serialNumber"`
	EmployeeID      int64                 `json:"employeeId"`
	EmployeeName    string                `json:"employeeName,omitempty"`
	VehicleMake     string                `json:"vehicleMake,omitempty"`
	VehicleModel    string                `json:"vehicleModel,omitempty"`
	PlateNumber     string                `json:"plateNumber"`
	Color           string                `json:"color,omitempty"`
	ValidFrom       time.Time             `json:"validFrom"`
	ValidUntil      time.Time             `json:"validUntil"`
	Status          string                `json:"status"`
	RejectionReason string                `json:"rejectionReason,omitempty"`
	RequestedByID   int64                 `json:"requestedById"`
	Attachments     []attachment.Response `json:"attachments"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`

	existing []attachment.Existing
}

func (c *CarPass) ExistingAttachments() []attachment.Existing {
	return c.existing
}

func ToDataModel(c *CarPass) *requestDatamodel.CarPassRequest {
	return &requestDatamodel.CarPassRequest{
		ID:              c.ID,
		SerialNumber:    c.SerialNumber,
		EmployeeID:      c.EmployeeID,
		VehicleMake:     c.VehicleMake,
		VehicleModel:    c.VehicleModel,
		PlateNumber:     c.PlateNumber,
		Color:           c.Color,
		ValidFrom:       c.ValidFrom,
		ValidUntil:      c.ValidUntil,
		Status:          c.Status,
		RejectionReason: c.RejectionReason,
		RequestedByID:   c.RequestedByID,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func FromDataModel(row requestDatamodel.CarPassRequest) CarPass {
	c := CarPass{
		ID:              row.ID,
		SerialNumber:    row.SerialNumber,
		EmployeeID:      row.EmployeeID,
		VehicleMake:     row.VehicleMake,
		VehicleModel:    row.VehicleModel,
		PlateNumber:     row.PlateNumber,
		Color:           row.Color,
		ValidFrom:       row.ValidFrom,
		ValidUntil:      row.ValidUntil,
		Status:          row.Status,
		RejectionReason: row.RejectionReason,
		RequestedByID:   row.RequestedByID,
		Attachments:     attachment.ToResponses(row.Attachments),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		existing:        attachment.ExistingFromRows(row.Attachments),
	}
	if row.Employee != nil {
		c.EmployeeName = row.Employee.FullName
	}
	return c
}
