package employee

import (
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/staff-management/internal/core/common/validation"
	"github.com/frahmantamala/staff-management/internal/transport"
)

type EmployeeDTO struct {
	FullName     string
	Email        string
	Phone        string
	JobTitle     string
	Status       string
	HiredAt      *time.Time
	DepartmentID *int64
	OrganID      *int64
	LocationID   *int64
	CountryID    *int64
}

func (d EmployeeDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("fullName", d.FullName).Required().MaxLength(150)
	v.Field("email", d.Email).Required().Email().MaxLength(254)
	v.Field("phone", d.Phone).MaxLength(30)
	v.Field("jobTitle", d.JobTitle).MaxLength(100)
	v.Field("status", d.Status).Required().OneOf(StatusActive, StatusInactive)
	if d.HiredAt != nil {
		v.Field("hiredAt", *d.HiredAt).NotFuture()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d EmployeeDTO) apply(e *Employee) {
	e.FullName = d.FullName
	e.Email = d.Email
	e.Phone = d.Phone
	e.JobTitle = d.JobTitle
	e.Status = d.Status
	e.HiredAt = d.HiredAt
	e.DepartmentID = d.DepartmentID
	e.OrganID = d.OrganID
	e.LocationID = d.LocationID
	e.CountryID = d.CountryID
}

type command interface{ isCommand() }

type addCommand struct{ dto EmployeeDTO }

type editCommand struct {
	id  int64
	dto EmployeeDTO
}

type deleteCommand struct{ id int64 }

func (addCommand) isCommand()    {}
func (editCommand) isCommand()   {}
func (deleteCommand) isCommand() {}

func decodeCommand(r *http.Request) (command, error) {
	f := transport.NewFormReader(r)
	intent := transport.Intent(r)

	var cmd command
	switch intent {
	case "add":
		cmd = addCommand{dto: readEmployeeDTO(f)}
	case "edit":
		cmd = editCommand{id: f.Int64("id"), dto: readEmployeeDTO(f)}
	case "delete":
		cmd = deleteCommand{id: f.Int64("id")}
	default:
		return nil, transport.UnknownIntent(intent)
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func readEmployeeDTO(f *transport.FormReader) EmployeeDTO {
	status := f.String("status")
	if status == "" {
		status = StatusActive
	}
	return EmployeeDTO{
		FullName:     f.String("fullName"),
		Email:        strings.ToLower(f.String("email")),
		Phone:        f.String("phone"),
		JobTitle:     f.String("jobTitle"),
		Status:       status,
		HiredAt:      f.OptionalTime("hiredAt"),
		DepartmentID: f.OptionalInt64("departmentId"),
		OrganID:      f.OptionalInt64("organId"),
		LocationID:   f.OptionalInt64("locationId"),
		CountryID:    f.OptionalInt64("countryId"),
	}
}
