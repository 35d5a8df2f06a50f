package settings

import (
	"context"
	"fmt"
	"net/http"

	"github.com/frahmantamala/staff-management/internal/cookie"
	"github.com/frahmantamala/staff-management/internal/listquery"
	"github.com/frahmantamala/staff-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, kind Kind, q listquery.ListQuery) (listquery.Page[Item], error)
	Get(ctx context.Context, kind Kind, id int64) (*Item, error)
	Options(ctx context.Context, kind Kind) ([]Option, error)
	Create(ctx context.Context, kind Kind, dto ItemDTO) (*Item, error)
	Update(ctx context.Context, kind Kind, id int64, dto ItemDTO) (*Item, error)
	Delete(ctx context.Context, kind Kind, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

type ListView struct {
	Kind   Kind                 `json:"kind"`
	Search string               `json:"search"`
	Items  listquery.Page[Item] `json:"items"`
	Organs []Option             `json:"organs,omitempty"`
}

func listPath(kind Kind) string {
	return "/dashboard/settings/" + string(kind)
}

func (h *Handler) List(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := listquery.FromValues(r.URL.Query())
		items, err := h.Service.List(r.Context(), kind, q)
		if err != nil {
			h.Logger.Error("List: failed to list settings", "kind", kind, "error", err)
			h.HandleError(w, r, err)
			return
		}

		view := ListView{Kind: kind, Search: q.Search, Items: items}
		if kind == KindDepartment {
			if view.Organs, err = h.Service.Options(r.Context(), KindOrgan); err != nil {
				h.HandleError(w, r, err)
				return
			}
		}
		h.WriteView(w, r, view)
	}
}

func (h *Handler) Editor(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.ParseForm(r); err != nil {
			h.HandleError(w, r, err)
			return
		}
		cmd, err := decodeCommand(r)
		if err != nil {
			h.HandleError(w, r, err)
			return
		}

		var toast cookie.Toast
		switch cmd := cmd.(type) {
		case addCommand:
			item, err := h.Service.Create(r.Context(), kind, cmd.dto)
			if err != nil {
				h.HandleError(w, r, err)
				return
			}
			toast = cookie.SuccessToast(kind.Singular()+" added", item.Name)
		case editCommand:
			item, err := h.Service.Update(r.Context(), kind, cmd.id, cmd.dto)
			if err != nil {
				h.HandleError(w, r, err)
				return
			}
			toast = cookie.SuccessToast(kind.Singular()+" updated", item.Name)
		case deleteCommand:
			if err := h.Service.Delete(r.Context(), kind, cmd.id); err != nil {
				h.HandleError(w, r, err)
				return
			}
			toast = cookie.SuccessToast(kind.Singular()+" deleted", fmt.Sprintf("#%d", cmd.id))
		}

		h.RedirectWithToast(w, r, listPath(kind), toast)
	}
}
