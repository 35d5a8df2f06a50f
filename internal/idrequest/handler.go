package idrequest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/cookie"
	"github.com/frahmantamala/staff-management/internal/listquery"
	"github.com/frahmantamala/staff-management/internal/transport"
	"github.com/frahmantamala/staff-management/internal/workflow"
)

const listPath = "/dashboard/id-requests"

type ServiceAPI interface {
	MaxFileSize() int64
	List(ctx context.Context, scope auth.Scope, q listquery.ListQuery) (listquery.Page[IDRequest], error)
	Get(ctx context.Context, scope auth.Scope, id int64) (*IDRequest, error)
	Create(ctx context.Context, scope auth.Scope, dto IDRequestDTO) (*IDRequest, error)
	Update(ctx context.Context, scope auth.Scope, id int64, dto IDRequestDTO) (*IDRequest, error)
	Delete(ctx context.Context, scope auth.Scope, id int64) error
	Approve(ctx context.Context, id int64) (*IDRequest, error)
	Reject(ctx context.Context, id int64, reason string) (*IDRequest, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Gate    workflow.Gatekeeper
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, gate workflow.Gatekeeper) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Gate:        gate,
	}
}

type ListView struct {
	Search     string                    `json:"search"`
	CanDecide  bool                      `json:"canDecide"`
	IDRequests listquery.Page[IDRequest] `json:"idRequests"`
}

type DetailView struct {
	IDRequest *IDRequest `json:"idRequest"`
	CanDecide bool       `json:"canDecide"`
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
		h.Logger.Error("List: failed to list id requests", "error", err)
		h.HandleError(w, r, err)
		return
	}
	h.WriteView(w, r, ListView{Search: q.Search, CanDecide: scope.Any, IDRequests: requests})
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
	h.WriteView(w, r, DetailView{IDRequest: req, CanDecide: scope.Any && req.Status == workflow.StatusPending})
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
	cmd, err := decodeCommand(r, h.Service.MaxFileSize())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	var (
		req   *IDRequest
		toast cookie.Toast
	)
	switch cmd := cmd.(type) {
	case addCommand:
		req, err = h.Service.Create(r.Context(), scope, cmd.dto)
		toast = cookie.SuccessToast("ID badge requested", "")
	case editCommand:
		req, err = h.Service.Update(r.Context(), scope, cmd.id, cmd.dto)
		toast = cookie.SuccessToast("ID request updated", "")
	case approveCommand:
		req, err = h.Service.Approve(r.Context(), cmd.id)
		toast = cookie.SuccessToast("ID request approved", "")
	case rejectCommand:
		req, err = h.Service.Reject(r.Context(), cmd.id, cmd.reason)
		toast = cookie.SuccessToast("ID request rejected", "")
	case deleteCommand:
		err = h.Service.Delete(r.Context(), scope, cmd.id)
		toast = cookie.SuccessToast("ID request deleted", "")
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
