package incident

import (
	"net/http"
	"time"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/attachment"
	"github.com/frahmantamala/staff-management/internal/core/common/validation"
	"github.com/frahmantamala/staff-management/internal/transport"
)

type IncidentDTO struct {
	Title       string
	Description string
	Severity    string
	Status      string
	OccurredAt  time.Time
	LocationID  *int64
	EmployeeID  *int64
	Attachments []attachment.FieldSet
}

func (d IncidentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(200)
	v.Field("description", d.Description).MaxLength(5000)
	v.Field("severity", d.Severity).Required().OneOf(Severities...)
	v.Field("status", d.Status).Required().OneOf(Statuses...)
	v.Field("occurredAt", d.OccurredAt).Required().NotFuture()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d IncidentDTO) apply(i *Incident) {
	i.Title = d.Title
	i.Description = d.Description
	i.Severity = d.Severity
	i.Status = d.Status
	i.OccurredAt = d.OccurredAt
	i.LocationID = d.LocationID
	i.EmployeeID = d.EmployeeID
}

func validateStatus(status string) error {
	v := validation.NewValidator()
	v.Field("status", status).Required().OneOf(Statuses...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type command interface{ isCommand() }

type addCommand struct{ dto IncidentDTO }

type editCommand struct {
	id  int64
	dto IncidentDTO
}

type deleteCommand struct{ id int64 }

type updateStatusCommand struct {
	id     int64
	status string
}

func (addCommand) isCommand()          {}
func (editCommand) isCommand()         {}
func (deleteCommand) isCommand()       {}
func (updateStatusCommand) isCommand() {}

func decodeCommand(r *http.Request, maxFileSize int64) (command, error) {
	f := transport.NewFormReader(r)
	intent := transport.Intent(r)

	var cmd command
	switch intent {
	case "add", "edit":
		dto := readIncidentDTO(f)
		attachments, err := attachment.FromMultipart(r.MultipartForm, maxFileSize)
		if err != nil {
			return nil, appErrors.NewValidationError("Unreadable attachment", appErrors.ErrCodeValidationFailed).WithCause(err)
		}
		dto.Attachments = attachments
		if intent == "add" {
			cmd = addCommand{dto: dto}
		} else {
			cmd = editCommand{id: f.Int64("id"), dto: dto}
		}
	case "delete":
		cmd = deleteCommand{id: f.Int64("id")}
	case "update-status":
		cmd = updateStatusCommand{id: f.Int64("id"), status: f.String("status")}
	default:
		return nil, transport.UnknownIntent(intent)
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func readIncidentDTO(f *transport.FormReader) IncidentDTO {
	severity := f.String("severity")
	if severity == "" {
		severity = SeverityLow
	}
	status := f.String("status")
	if status == "" {
		status = StatusOpen
	}
	return IncidentDTO{
		Title:       f.String("title"),
		Description: f.String("description"),
		Severity:    severity,
		Status:      status,
		OccurredAt:  f.Time("occurredAt"),
		LocationID:  f.OptionalInt64("locationId"),
		EmployeeID:  f.OptionalInt64("employeeId"),
	}
}
