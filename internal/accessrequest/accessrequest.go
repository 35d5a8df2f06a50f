package accessrequest

import (
	"errors"
	"time"

	requestDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/request"
)

// Entity names visitor access requests in permissions, serial counters and events.
const Entity = "accessrequest"

var ErrAccessRequestNotFound = errors.New("access request not found")

// AccessRequest asks for a visitor to be let onto a site for a time window.
type AccessRequest struct {
	ID               int64     `json:"id"`
	SerialNumber     string    `json:"serialNumber"`
	VisitorName      string    `json:"visitorName"`
	VisitorCompany   string    `json:"visitorCompany,omitempty"`
	VisitorIDNumber  string    `json:"visitorIdNumber,omitempty"`
	HostEmployeeID   int64     `json:"hostEmployeeId"`
	HostEmployeeName string    `json:"hostEmployeeName,omitempty"`
	LocationID       *int64    `json:"locationId,omitempty"`
	LocationName     string    `json:"locationName,omitempty"`
	Purpose          string    `json:"purpose,omitempty"`
	VisitFrom        time.Time `json:"visitFrom"`
	VisitUntil       time.Time `json:"visitUntil"`
	Status           string    `json:"status"`
	RejectionReason  string    `json:"rejectionReason,omitempty"`
	RequestedByID    int64     `json:"requestedById"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func ToDataModel(a *AccessRequest) *requestDatamodel.AccessRequest {
	return &requestDatamodel.AccessRequest{
		ID:              a.ID,
		SerialNumber:    a.SerialNumber,
		VisitorName:     a.VisitorName,
		VisitorCompany:  a.VisitorCompany,
		VisitorIDNumber: a.VisitorIDNumber,
		HostEmployeeID:  a.HostEmployeeID,
		LocationID:      a.LocationID,
		Purpose:         a.Purpose,
		VisitFrom:       a.VisitFrom,
		VisitUntil:      a.VisitUntil,
		Status:          a.Status,
		RejectionReason: a.RejectionReason,
		RequestedByID:   a.RequestedByID,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func FromDataModel(row requestDatamodel.AccessRequest) AccessRequest {
	a := AccessRequest{
		ID:              row.ID,
		SerialNumber:    row.SerialNumber,
		VisitorName:     row.VisitorName,
		VisitorCompany:  row.VisitorCompany,
		VisitorIDNumber: row.VisitorIDNumber,
		HostEmployeeID:  row.HostEmployeeID,
		LocationID:      row.LocationID,
		Purpose:         row.Purpose,
		VisitFrom:       row.VisitFrom,
		VisitUntil:      row.VisitUntil,
		Status:          row.Status,
		RejectionReason: row.RejectionReason,
		RequestedByID:   row.RequestedByID,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if row.HostEmployee != nil {
		a.HostEmployeeName = row.HostEmployee.FullName
	}
	if row.Location != nil {
		a.LocationName = row.Location.Name
	}
	return a
}
