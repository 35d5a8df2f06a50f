package user

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/staff-management/internal/core/common/validation"
	"github.com/frahmantamala/staff-management/internal/transport"
)

type RoleDTO struct {
	Name          string
	Description   string
	PermissionIDs []int64
}

func (d RoleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(50)
	v.Field("description", d.Description).MaxLength(255)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type roleCommand interface{ isRoleCommand() }

type addRoleCommand struct{ dto RoleDTO }

type editRoleCommand struct {
	id  int64
	dto RoleDTO
}

type deleteRoleCommand struct{ id int64 }

func (addRoleCommand) isRoleCommand()    {}
func (editRoleCommand) isRoleCommand()   {}
func (deleteRoleCommand) isRoleCommand() {}

func decodeRoleCommand(r *http.Request) (roleCommand, error) {
	f := transport.NewFormReader(r)
	intent := transport.Intent(r)

	var cmd roleCommand
	switch intent {
	case "add":
		cmd = addRoleCommand{dto: readRoleDTO(f)}
	case "edit":
		cmd = editRoleCommand{id: f.Int64("id"), dto: readRoleDTO(f)}
	case "delete":
		cmd = deleteRoleCommand{id: f.Int64("id")}
	default:
		return nil, transport.UnknownIntent(intent)
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func readRoleDTO(f *transport.FormReader) RoleDTO {
	return RoleDTO{
		Name:          strings.ToLower(f.String("name")),
		Description:   f.String("description"),
		PermissionIDs: f.Int64s("permissionIds"),
	}
}

type userCommand interface{ isUserCommand() }

type updateRolesCommand struct {
	id      int64
	roleIDs []int64
}

type setActiveCommand struct {
	id     int64
	active bool
}

func (updateRolesCommand) isUserCommand() {}
func (setActiveCommand) isUserCommand()   {}

func decodeUserCommand(r *http.Request) (userCommand, error) {
	f := transport.NewFormReader(r)
	intent := transport.Intent(r)

	var cmd userCommand
	switch intent {
	case "update-roles":
		cmd = updateRolesCommand{id: f.Int64("id"), roleIDs: f.Int64s("roleIds")}
	case "set-active":
		cmd = setActiveCommand{id: f.Int64("id"), active: f.Bool("active")}
	default:
		return nil, transport.UnknownIntent(intent)
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	return cmd, nil
}
