package idrequest

import (
	"net/http"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/attachment"
	"github.com/frahmantamala/staff-management/internal/core/common/validation"
	"github.com/frahmantamala/staff-management/internal/transport"
)

type IDRequestDTO struct {
	EmployeeID  int64
	RequestType string
	Reason      string
	Attachments []attachment.FieldSet
}

func (d IDRequestDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("employeeId", d.EmployeeID).Required()
	v.Field("requestType", d.RequestType).Required().OneOf(Types...)
	v.Field("reason", d.Reason).MaxLength(1000)
	if d.RequestType == TypeReplacement {
		v.Field("reason", d.Reason).Required()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d IDRequestDTO) apply(i *IDRequest) {
	i.EmployeeID = d.EmployeeID
	i.RequestType = d.RequestType
	i.Reason = d.Reason
}

type command interface{ isCommand() }

type addCommand struct{ dto IDRequestDTO }

type editCommand struct {
	id  int64
	dto IDRequestDTO
}

type deleteCommand struct{ id int64 }

type approveCommand struct{ id int64 }

type rejectCommand struct {
	id     int64
	reason string
}

func (addCommand) isCommand()     {}
func (editCommand) isCommand()    {}
func (deleteCommand) isCommand()  {}
func (approveCommand) isCommand() {}
func (rejectCommand) isCommand()  {}

func decodeCommand(r *http.Request, maxFileSize int64) (command, error) {
	f := transport.NewFormReader(r)
	intent := transport.Intent(r)

	var cmd command
	switch intent {
	case "add", "edit":
		dto := IDRequestDTO{
			EmployeeID:  f.Int64("employeeId"),
			RequestType: f.String("requestType"),
			Reason:      f.String("reason"),
		}
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
	case "approve":
		cmd = approveCommand{id: f.Int64("id")}
	case "reject":
		cmd = rejectCommand{id: f.Int64("id"), reason: f.String("rejectionReason")}
	default:
		return nil, transport.UnknownIntent(intent)
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	return cmd, nil
}
