package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/blob"
	attachmentDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/attachment"
	"github.com/frahmantamala/staff-management/internal/transport"
)

type ServiceAPI interface {
	Open(ctx context.Context, id string) (*attachmentDatamodel.Attachment, io.ReadCloser, error)
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

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	row, rc, err := h.Service.Open(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrAttachmentNotFound) || errors.Is(err, blob.ErrNotFound) {
			h.WriteAppError(w, appErrors.NewNotFoundError("Attachment not found", appErrors.ErrCodeNotFound))
			return
		}
		if _, ok := appErrors.IsAppError(err); ok {
			h.HandleError(w, r, err)
			return
		}
		h.Logger.Error("Download: failed to open attachment", "attachment_id", id, "error", err)
		h.WriteServerError(w, err)
		return
	}
	defer rc.Close()

	contentType := row.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", row.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.Logger.Error("Download: failed to stream attachment", "attachment_id", id, "error", err)
	}
}
