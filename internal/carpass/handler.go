package carpass

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

const listPath = "/dashboard/car-passes"

type ServiceAPI interface {
	MaxFileSize() int64
	List(ctx context.Context, scope auth.Scope, q listquery.ListQuery) (listquery.Page[CarPass], error)
	Get(ctx context.Context, scope auth.Scope, id int64) (*CarPass, error)
	Create(ctx context.Context, scope auth.Scope, dto CarPassDTO) (*CarPass, error)
	Update(ctx context.Context, scope auth.Scope, id int64, dto CarPassDTO) (*CarPass, error)
	Delete(ctx context.Context, scope auth.Scope, id int64) error
	Approve(ctx context.Context, id int64) (*CarPass, error)
	Reject(ctx context.Context, id int64, reason string) (*CarPass, error)
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
	Search    string                  `json:"search"`
	CanDecide bool                    `json:"canDecide"`
	CarPasses listquery.Page[CarPass] `json:"carPasses"`
}

type DetailView struct {
	CarPass   *CarPass `json:"carPass"`
	CanDecide bool     `json:"canDecide"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope, err := h.Gate.RequireScope(r, Entity, auth.ActionRead)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	q := listquery.FromValues(r.URL.Query())
	passes, err := h.Service.List(r.Context(), scope, q)
	if err != nil {
		h.Logger.Error("List: failed to list car passes", "error", err)
		h.HandleError(w, r, err)
		return
	}
	h.WriteView(w, r, ListView{Search: q.Search, CanDecide: scope.Any, CarPasses: passes})
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
	c, err := h.Service.Get(r.Context(), scope, id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteView(w, r, DetailView{CarPass: c, CanDecide: scope.Any && c.Status == workflow.StatusPending})
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
		c     *CarPass
		toast cookie.Toast
	)
	switch cmd := cmd.(type) {
	case addCommand:
		c, err = h.Service.Create(r.Context(), scope, cmd.dto)
		toast = cookie.SuccessToast("Car pass requested", "")
	case editCommand:
		c, err = h.Service.Update(r.Context(), scope, cmd.id, cmd.dto)
		toast = cookie.SuccessToast("Car pass updated", "")
	case approveCommand:
		c, err = h.Service.Approve(r.Context(), cmd.id)
		toast = cookie.SuccessToast("Car pass approved", "")
	case rejectCommand:
		c, err = h.Service.Reject(r.Context(), cmd.id, cmd.reason)
		toast = cookie.SuccessToast("Car pass rejected", "")
	case deleteCommand:
		err = h.Service.Delete(r.Context(), scope, cmd.id)
		toast = cookie.SuccessToast("Car pass deleted", "")
	}
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	redirect := listPath
	if c != nil {
		toast.Description = c.SerialNumber
		redirect = listPath + "/" + strconv.FormatInt(c.ID, 10)
	}
	h.RedirectWithToast(w, r, redirect, toast)
}
