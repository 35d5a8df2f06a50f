package accessrequest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/cookie"
	"github.com/frahmantamala/staff-management/internal/listquery"
	"github.com/frahmantamala/staff-management/internal/settings"
	"github.com/frahmantamala/staff-management/internal/transport"
	"github.com/frahmantamala/staff-management/internal/workflow"
)

const listPath = "/dashboard/access-requests"

type ServiceAPI interface {
	List(ctx context.Context, scope auth.Scope, q listquery.ListQuery) (listquery.Page[AccessRequest], error)
	Get(ctx context.Context, scope auth.Scope, id int64) (*AccessRequest, error)
	Create(ctx context.Context, scope auth.Scope, dto AccessRequestDTO) (*AccessRequest, error)
	Update(ctx context.Context, scope auth.Scope, id int64, dto AccessRequestDTO) (*AccessRequest, error)
	Delete(ctx context.Context, scope auth.Scope, id int64) error
	Approve(ctx context.Context, id int64) (*AccessRequest, error)
	Reject(ctx context.Context, id int64, reason string) (*AccessRequest, error)
}

type OptionsProvider interface {
	Options(ctx context.Context, kind settings.Kind) ([]settings.Option, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Gate    workflow.Gatekeeper
	Options OptionsProvider
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, gate workflow.Gatekeeper, options OptionsProvider) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Gate:        gate,
		Options:     options,
	}
}

type ListView struct {
	Search         string                        `json:"search"`
	CanDecide      bool                          `json:"canDecide"`
	AccessRequests listquery.Page[AccessRequest] `json:"accessRequests"`
	Locations      []settings.Option             `json:"locations"`
}

type DetailView struct {
	AccessRequest *AccessRequest    `json:"accessRequest"`
	CanDecide     bool              `json:"canDecide"`
	Locations     []settings.Option `json:"locations"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope, err := h.Gate.RequireScope(r, Entity, auth.ActionRead)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	q := listquery.FromValues(r.URL.Query())
	requests, err := h.Service.List(r.Context(), scope, q)
	if err != nil {
		h.Logger.Error("List: failed to list access requests", "error", err)
		h.HandleError(w, r, err)
		return
	}
	locations, err := h.Options.Options(r.Context(), settings.KindLocation)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteView(w, r, ListView{Search: q.Search, CanDecide: scope.Any, AccessRequests: requests, Locations: locations})
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	scope, err := h.Gate.RequireScope(r, Entity, auth.ActionRead)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	req, err := h.Service.Get(r.Context(), scope, id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	locations, err := h.Options.Options(r.Context(), settings.KindLocation)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteView(w, r, DetailView{
		AccessRequest: req,
		CanDecide:     scope.Any && req.Status == workflow.StatusPending,
		Locations:     locations,
	})
}

func (h *Handler) Editor(w http.ResponseWriter, r *http.Request) {
	if err := h.ParseForm(r); err != nil {
		h.HandleError(w, r, err)
		return
	}
	scope, err := workflow.Authorize(h.Gate, r, Entity)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	cmd, err := decodeCommand(r)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	var (
		req   *AccessRequest
		toast cookie.Toast
	)
	switch cmd := cmd.(type) {
	case addCommand:
		req, err = h.Service.Create(r.Context(), scope, cmd.dto)
		toast = cookie.SuccessToast("Visitor access requested", "")
	case editCommand:
		req, err = h.Service.Update(r.Context(), scope, cmd.id, cmd.dto)
		toast = cookie.SuccessToast("Access request updated", "")
	case approveCommand:
		req, err = h.Service.Approve(r.Context(), cmd.id)
		toast = cookie.SuccessToast("Access request approved", "")
	case rejectCommand:
		req, err = h.Service.Reject(r.Context(), cmd.id, cmd.reason)
		toast = cookie.SuccessToast("Access request rejected", "")
	case deleteCommand:
		err = h.Service.Delete(r.Context(), scope, cmd.id)
		toast = cookie.SuccessToast("Access request deleted", "")
	}
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	redirect := listPath
	if req != nil {
		toast.Description = req.SerialNumber
		redirect = listPath + "/" + strconv.FormatInt(req.ID, 10)
	}
	h.RedirectWithToast(w, r, redirect, toast)
}
