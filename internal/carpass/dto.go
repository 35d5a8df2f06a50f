package carpass

import (
	"net/http"
	"strings"
	"time"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/attachment"
	"github.com/frahmantamala/staff-management/internal/core/common/validation"
	"github.com/frahmantamala/staff-management/internal/transport"
)

type CarPassDTO struct {
	EmployeeID   int64
	VehicleMake  string
	VehicleModel string
	PlateNumber  string
	Color        string
	ValidFrom    time.Time
	ValidUntil   time.Time
	Attachments  []attachment.FieldSet
}

func (d CarPassDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("employeeId", d.EmployeeID).Required()
	v.Field("vehicleMake", d.VehicleMake).MaxLength(60)
	v.Field("vehicleModel", d.VehicleModel).MaxLength(60)
	v.Field("plateNumber", d.PlateNumber).Required().MaxLength(20)
	v.Field("color", d.Color).MaxLength(30)
	v.Field("validFrom", d.ValidFrom).Required()
	v.Field("validUntil", d.ValidUntil).Required().After(d.ValidFrom, "validFrom")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d CarPassDTO) apply(c *CarPass) {
	c.EmployeeID = d.EmployeeID
	c.VehicleMake = d.VehicleMake
	c.VehicleModel = d.VehicleModel
	c.PlateNumber = d.PlateNumber
	c.Color = d.Color
	c.ValidFrom = d.ValidFrom
	c.ValidUntil = d.ValidUntil
}

type command interface{ isCommand() }

type addCommand struct{ dto CarPassDTO }

type editCommand struct {
	id  int64
	dto CarPassDTO
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
		dto := readCarPassDTO(f)
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

func readCarPassDTO(f *transport.FormReader) CarPassDTO {
	return CarPassDTO{
		EmployeeID:   f.Int64("employeeId"),
		VehicleMake:  f.String("vehicleMake"),
		VehicleModel: f.String("vehicleModel"),
		PlateNumber:  strings.ToUpper(f.String("plateNumber")),
		Color:        f.String("color"),
		ValidFrom:    f.Time("validFrom"),
		ValidUntil:   f.Time("validUntil"),
	}
}
