package incident

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/cookie"
	"github.com/frahmantamala/staff-management/internal/listquery"
	"github.com/frahmantamala/staff-management/internal/settings"
	"github.com/frahmantamala/staff-management/internal/transport"
)

const listPath = "/dashboard/incidents"

type ServiceAPI interface {
	MaxFileSize() int64
	List(ctx context.Context, q listquery.ListQuery) (listquery.Page[Incident], error)
	Get(ctx context.Context, id int64) (*Incident, error)
	Create(ctx context.Context, reporterID int64, dto IncidentDTO) (*Incident, error)
	Update(ctx context.Context, id int64, dto IncidentDTO) (*Incident, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*Incident, error)
	Delete(ctx context.Context, id int64) error
}

// Gatekeeper checks an "entity:action:access" permission for the session user.
type Gatekeeper interface {
	RequireUserWithPermission(r *http.Request, permission string) (int64, error)
}

type OptionsProvider interface {
	Options(ctx context.Context, kind settings.Kind) ([]settings.Option, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Gate    Gatekeeper
	Options OptionsProvider
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, gate Gatekeeper, options OptionsProvider) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Gate:        gate,
		Options:     options,
	}
}

type ListView struct {
	Search     string                   `json:"search"`
	Incidents  listquery.Page[Incident] `json:"incidents"`
	Locations  []settings.Option        `json:"locations"`
	Severities []string                 `json:"severities"`
	Statuses   []string                 `json:"statuses"`
}

type DetailView struct {
	Incident  *Incident         `json:"incident"`
	Locations []settings.Option `json:"locations"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := listquery.FromValues(r.URL.Query())
	incidents, err := h.Service.List(r.Context(), q)
	if err != nil {
		h.Logger.Error("List: failed to list incidents", "error", err)
		h.HandleError(w, r, err)
		return
	}
	locations, err := h.Options.Options(r.Context(), settings.KindLocation)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteView(w, r, ListView{
		Search:     q.Search,
		Incidents:  incidents,
		Locations:  locations,
		Severities: Severities,
		Statuses:   Statuses,
	})
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	i, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	locations, err := h.Options.Options(r.Context(), settings.KindLocation)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteView(w, r, DetailView{Incident: i, Locations: locations})
}

func (h *Handler) Editor(w http.ResponseWriter, r *http.Request) {
	if err := h.ParseForm(r); err != nil {
		h.HandleError(w, r, err)
		return
	}
	userID, err := h.Gate.RequireUserWithPermission(r, permissionFor(transport.Intent(r)))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	cmd, err := decodeCommand(r, h.Service.MaxFileSize())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	redirect := listPath
	var toast cookie.Toast
	switch cmd := cmd.(type) {
	case addCommand:
		i, err := h.Service.Create(r.Context(), userID, cmd.dto)
		if err != nil {
			h.HandleError(w, r, err)
			return
		}
		toast = cookie.SuccessToast("Incident reported", i.SerialNumber)
		redirect = detailPath(i.ID)
	case editCommand:
		i, err := h.Service.Update(r.Context(), cmd.id, cmd.dto)
		if err != nil {
			h.HandleError(w, r, err)
			return
		}
		toast = cookie.SuccessToast("Incident updated", i.SerialNumber)
		redirect = detailPath(i.ID)
	case updateStatusCommand:
		i, err := h.Service.UpdateStatus(r.Context(), cmd.id, cmd.status)
		if err != nil {
			h.HandleError(w, r, err)
			return
		}
		toast = cookie.SuccessToast("Status changed", i.SerialNumber+" is now "+i.Status)
		redirect = detailPath(i.ID)
	case deleteCommand:
		if err := h.Service.Delete(r.Context(), cmd.id); err != nil {
			h.HandleError(w, r, err)
			return
		}
		toast = cookie.SuccessToast("Incident deleted", "")
	}

	h.RedirectWithToast(w, r, redirect, toast)
}

// permissionFor maps an intent to the permission it needs; unknown intents
// fall through to update and are rejected by decodeCommand.
func permissionFor(intent string) string {
	action := auth.ActionUpdate
	switch intent {
	case "add":
		action = auth.ActionCreate
	case "delete":
		action = auth.ActionDelete
	}
	return "incident:" + action + ":" + auth.AccessAny
}

func detailPath(id int64) string {
	return listPath + "/" + strconv.FormatInt(id, 10)
}
