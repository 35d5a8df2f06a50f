package accessrequest

import (
	"net/http"
	"time"

	"github.com/frahmantamala/staff-management/internal/core/common/validation"
	"github.com/frahmantamala/staff-management/internal/transport"
)

type AccessRequestDTO struct {
	VisitorName     string
	VisitorCompany  string
	VisitorIDNumber string
	HostEmployeeID  int64
	LocationID      *int64
	Purpose         string
	VisitFrom       time.Time
	VisitUntil      time.Time
}

func (d AccessRequestDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("visitorName", d.VisitorName).Required().MaxLength(120)
	v.Field("visitorCompany", d.VisitorCompany).MaxLength(120)
	v.Field("visitorIdNumber", d.VisitorIDNumber).MaxLength(40)
	v.Field("hostEmployeeId", d.HostEmployeeID).Required()
	v.Field("purpose", d.Purpose).MaxLength(500)
	v.Field("visitFrom", d.VisitFrom).Required()
	v.Field("visitUntil", d.VisitUntil).Required().After(d.VisitFrom, "visitFrom")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d AccessRequestDTO) apply(a *AccessRequest) {
	a.VisitorName = d.VisitorName
	a.VisitorCompany = d.VisitorCompany
	a.VisitorIDNumber = d.VisitorIDNumber
	a.HostEmployeeID = d.HostEmployeeID
	a.LocationID = d.LocationID
	a.Purpose = d.Purpose
	a.VisitFrom = d.VisitFrom
	a.VisitUntil = d.VisitUntil
}

type command interface{ isCommand() }

type addCommand struct{ dto AccessRequestDTO }

type editCommand struct {
	id  int64
	dto AccessRequestDTO
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

func decodeCommand(r *http.Request) (command, error) {
	f := transport.NewFormReader(r)
	intent := transport.Intent(r)

	var cmd command
	switch intent {
	case "add":
		cmd = addCommand{dto: readAccessRequestDTO(f)}
	case "edit":
		cmd = editCommand{id: f.Int64("id"), dto: readAccessRequestDTO(f)}
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

func readAccessRequestDTO(f *transport.FormReader) AccessRequestDTO {
	return AccessRequestDTO{
		VisitorName:     f.String("visitorName"),
		VisitorCompany:  f.String("visitorCompany"),
		VisitorIDNumber: f.String("visitorIdNumber"),
		HostEmployeeID:  f.Int64("hostEmployeeId"),
		LocationID:      f.OptionalInt64("locationId"),
		Purpose:         f.String("purpose"),
		VisitFrom:       f.Time("visitFrom"),
		VisitUntil:      f.Time("visitUntil"),
	}
}
