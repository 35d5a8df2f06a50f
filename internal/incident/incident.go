package incident

import (
	"errors"
	"time"

	"github.com/frahmantamala/staff-management/internal/attachment"
	incidentDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/incident"
)

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"

	StatusOpen          = "open"
	StatusInvestigating = "investigating"
	StatusClosed        = "closed"
)

var (
	Severities = []string{SeverityLow, SeverityMedium, SeverityHigh}
	Statuses   = []string{StatusOpen, StatusInvestigating, StatusClosed}
)

var ErrIncidentNotFound = errors.New("incident not found")

type Incident struct {
	ID           int64                 `json:"id"`
	SerialNumber string                `json:"serialNumber"`
	Title        string                `json:"title"`
	Description  string                `json:"description,omitempty"`
	Severity     string                `json:"severity"`
	Status       string                `json:"status"`
	OccurredAt   time.Time             `json:"occurredAt"`
	LocationID   *int64                `json:"locationId,omitempty"`
	LocationName string                `json:"locationName,omitempty"`
	EmployeeID   *int64                `json:"employeeId,omitempty"`
	EmployeeName string                `json:"employeeName,omitempty"`
	ReportedByID int64                 `json:"reportedById"`
	Attachments  []attachment.Response `json:"attachments"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`

	existing []attachment.Existing
}

// ExistingAttachments is what the reconciler compares a submitted form against.
func (i *Incident) ExistingAttachments() []attachment.Existing {
	return i.existing
}

func ToDataModel(i *Incident) *incidentDatamodel.Incident {
	return &incidentDatamodel.Incident{
		ID:           i.ID,
		SerialNumber: i.SerialNumber,
		Title:        i.Title,
		Description:  i.Description,
		Severity:     i.Severity,
		Status:       i.Status,
		OccurredAt:   i.OccurredAt,
		LocationID:   i.LocationID,
		EmployeeID:   i.EmployeeID,
		ReportedByID: i.ReportedByID,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

func FromDataModel(row incidentDatamodel.Incident) Incident {
	i := Incident{
		ID:           row.ID,
		SerialNumber: row.SerialNumber,
		Title:        row.Title,
		Description:  row.Description,
		Severity:     row.Severity,
		Status:       row.Status,
		OccurredAt:   row.OccurredAt,
		LocationID:   row.LocationID,
		EmployeeID:   row.EmployeeID,
		ReportedByID: row.ReportedByID,
		Attachments:  attachment.ToResponses(row.Attachments),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		existing:     attachment.ExistingFromRows(row.Attachments),
	}
	if row.Location != nil {
		i.LocationName = row.Location.Name
	}
	if row.Employee != nil {
		i.EmployeeName = row.Employee.FullName
	}
	return i
}
