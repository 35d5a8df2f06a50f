package employee

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/frahmantamala/staff-management/internal/cookie"
	"github.com/frahmantamala/staff-management/internal/listquery"
	"github.com/frahmantamala/staff-management/internal/settings"
	"github.com/frahmantamala/staff-management/internal/transport"
)

const listPath = "/dashboard/employees"

type ServiceAPI interface {
	List(ctx context.Context, q listquery.ListQuery, status string) (listquery.Page[Employee], error)
	Get(ctx context.Context, id int64) (*Employee, error)
	Create(ctx context.Context, dto EmployeeDTO) (*Employee, error)
	Update(ctx context.Context, id int64, dto EmployeeDTO) (*Employee, error)
	Delete(ctx context.Context, id int64) error
	Export(ctx context.Context, q listquery.ListQuery, status string, w io.Writer) error
}

// OptionsProvider feeds the select lists of the employee form.
type OptionsProvider interface {
	Options(ctx context.Context, kind settings.Kind) ([]settings.Option, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Options OptionsProvider
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, options OptionsProvider) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Options:     options,
	}
}

type FormOptions struct {
	Departments []settings.Option `json:"departments"`
	Organs      []settings.Option `json:"organs"`
	Locations   []settings.Option `json:"locations"`
	Countries   []settings.Option `json:"countries"`
}

type ListView struct {
	Search    string                   `json:"search"`
	Status    string                   `json:"status,omitempty"`
	Employees listquery.Page[Employee] `json:"employees"`
	Options   FormOptions              `json:"options"`
}

type DetailView struct {
	Employee *Employee   `json:"employee"`
	Options  FormOptions `json:"options"`
}

func (h *Handler) formOptions(ctx context.Context) (FormOptions, error) {
	var (
		opts FormOptions
		err  error
	)
	if opts.Departments, err = h.Options.Options(ctx, settings.KindDepartment); err != nil {
		return opts, err
	}
	if opts.Organs, err = h.Options.Options(ctx, settings.KindOrgan); err != nil {
		return opts, err
	}
	if opts.Locations, err = h.Options.Options(ctx, settings.KindLocation); err != nil {
		return opts, err
	}
	if opts.Countries, err = h.Options.Options(ctx, settings.KindCountry); err != nil {
		return opts, err
	}
	return opts, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := listquery.FromValues(r.URL.Query())
	status := r.URL.Query().Get("status")

	employees, err := h.Service.List(r.Context(), q, status)
	if err != nil {
		h.Logger.Error("List: failed to list employees", "error", err)
		h.HandleError(w, r, err)
		return
	}
	opts, err := h.formOptions(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteView(w, r, ListView{Search: q.Search, Status: status, Employees: employees, Options: opts})
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	e, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	opts, err := h.formOptions(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteView(w, r, DetailView{Employee: e, Options: opts})
}

// Export streams the current search as a spreadsheet download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	q := listquery.FromValues(r.URL.Query())
	status := r.URL.Query().Get("status")

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=employees-%s.xlsx", time.Now().Format("20060102")))
	if err := h.Service.Export(r.Context(), q, status, w); err != nil {
		w.Header().Del("Content-Disposition")
		h.HandleError(w, r, err)
	}
}

func (h *Handler) Editor(w http.ResponseWriter, r *http.Request) {
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
		e, err := h.Service.Create(r.Context(), cmd.dto)
		if err != nil {
			h.HandleError(w, r, err)
			return
		}
		toast = cookie.SuccessToast("Employee added", e.FullName)
	case editCommand:
		e, err := h.Service.Update(r.Context(), cmd.id, cmd.dto)
		if err != nil {
			h.HandleError(w, r, err)
			return
		}
		toast = cookie.SuccessToast("Employee updated", e.FullName)
	case deleteCommand:
		if err := h.Service.Delete(r.Context(), cmd.id); err != nil {
			h.HandleError(w, r, err)
			return
		}
		toast = cookie.SuccessToast("Employee deleted", fmt.Sprintf("#%d", cmd.id))
	}

	h.RedirectWithToast(w, r, listPath, toast)
}
