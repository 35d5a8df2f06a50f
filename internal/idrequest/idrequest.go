package idrequest

import (
	"errors"
	"time"

	"github.com/frahmantamala/staff-management/internal/attachment"
	requestDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/request"
)

const Entity = "idrequest"

const (
	TypeNew         = "new"
	TypeRenewal     = "renewal"
	TypeReplacement = "replacement"
)

var Types = []string{TypeNew, TypeRenewal, TypeReplacement}

var ErrIDRequestNotFound = errors.New("id request not found")

type IDRequest struct {
	ID              int64                 `json:"id"`
	SerialNumber    string                `json:"serialNumber"`
	EmployeeID      int64                 `json:"employeeId"`
	EmployeeName    string                `json:"employeeName,omitempty"`
	RequestType     string                `json:"requestType"`
	Reason          string                `json:"reason,omitempty"`
	Status          string                `json:"status"`
	RejectionReason string                `json:"rejectionReason,omitempty"`
	RequestedByID   int64                 `json:"requestedById"`
	Attachments     []attachment.Response `json:"attachments"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`

	existing []attachment.Existing
}

func (i *IDRequest) ExistingAttachments() []attachment.Existing {
	return i.existing
}

func ToDataModel(i *IDRequest) *requestDatamodel.IDRequest {
	return &requestDatamodel.IDRequest{
		ID:              i.ID,
		SerialNumber:    i.SerialNumber,
		EmployeeID:      i.EmployeeID,
		RequestType:     i.RequestType,
		Reason:          i.Reason,
		Status:          i.Status,
		RejectionReason: i.RejectionReason,
		RequestedByID:   i.RequestedByID,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

func FromDataModel(row requestDatamodel.IDRequest) IDRequest {
	i := IDRequest{
		ID:              row.ID,
		SerialNumber:    row.SerialNumber,
		EmployeeID:      row.EmployeeID,
		RequestType:     row.RequestType,
		Reason:          row.Reason,
		Status:          row.Status,
		RejectionReason: row.RejectionReason,
		RequestedByID:   row.RequestedByID,
		Attachments:     attachment.ToResponses(row.Attachments),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		existing:        attachment.ExistingFromRows(row.Attachments),
	}
	if row.Employee != nil {
		i.EmployeeName = row.Employee.FullName
	}
	return i
}
