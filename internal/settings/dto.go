package settings

import (
	"net/http"
	"regexp"
	"strings"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/core/common/validation"
	"github.com/frahmantamala/staff-management/internal/transport"
)

var countryCode = regexp.MustCompile(`^[A-Z]{2}$`)

type ItemDTO struct {
	Name        string
	Description string
	OrganID     *int64
	Code        string
}

func (d ItemDTO) Validate(kind Kind) error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("description", d.Description).MaxLength(500)
	if kind == KindCountry {
		v.Field("code", d.Code).Required().Custom(func(value interface{}) *appErrors.AppError {
			if s, _ := value.(string); s != "" && !countryCode.MatchString(s) {
				return appErrors.NewValidationFieldError("code", "code must be a two-letter ISO country code", appErrors.ErrCodeValidationFailed)
			}
			return nil
		})
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d ItemDTO) apply(item *Item, kind Kind) {
	item.Name = d.Name
	item.Description = d.Description
	switch kind {
	case KindDepartment:
		item.OrganID = d.OrganID
	case KindCountry:
		item.Code = d.Code
		item.Description = ""
	}
}

// command is the closed set of editor intents.
type command interface{ isCommand() }

type addCommand struct{ dto ItemDTO }

type editCommand struct {
	id  int64
	dto ItemDTO
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
		cmd = addCommand{dto: readItemDTO(f)}
	case "edit":
		cmd = editCommand{id: f.Int64("id"), dto: readItemDTO(f)}
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

func readItemDTO(f *transport.FormReader) ItemDTO {
	return ItemDTO{
		Name:        f.String("name"),
		Description: f.String("description"),
		OrganID:     f.OptionalInt64("organId"),
		Code:        strings.ToUpper(f.String("code")),
	}
}
