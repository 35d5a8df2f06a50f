package attachment

import (
	"context"
	"errors"
	"io"
	"log/slog"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/auth"
	attachmentDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/attachment"
)

var ErrAttachmentNotFound = errors.New("attachment not found")

type RepositoryAPI interface {
	GetByID(ctx context.Context, id string) (*attachmentDatamodel.Attachment, error)
	ListByOwner(ctx context.Context, ownerType string, ownerID int64) ([]attachmentDatamodel.Attachment, error)
	OwnerDirectory(ctx context.Context, ownerType string, ownerID int64) (string, error)
	// OwnerRequester returns the user who filed the owning request.
	OwnerRequester(ctx context.Context, ownerType string, ownerID int64) (int64, error)
}

type Authorizer interface {
	HasPermission(ctx context.Context, userID int64, permission string) (bool, error)
}

// ownerEntities names the permission entity guarding each owner type.
var ownerEntities = map[string]string{
	OwnerIncident:  "incident",
	OwnerCarPass:   "carpass",
	OwnerIDRequest: "idrequest",
}

type Service struct {
	repo       RepositoryAPI
	reconciler *Reconciler
	authorizer Authorizer
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, reconciler *Reconciler, authorizer Authorizer, logger *slog.Logger) *Service {
	return &Service{repo: repo, reconciler: reconciler, authorizer: authorizer, logger: logger}
}

// Open returns the stored row and a reader over its blob. The caller in ctx
// must be allowed to read the owning entity.
func (s *Service) Open(ctx context.Context, id string) (*attachmentDatamodel.Attachment, io.ReadCloser, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorize(ctx, row); err != nil {
		return nil, nil, err
	}

	dir, err := s.repo.OwnerDirectory(ctx, row.OwnerType, row.OwnerID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.reconciler.Store.Get(ctx, s.reconciler.BlobKey(dir, row.FileKey, row.Extension))
	if err != nil {
		s.logger.Error("Open: blob missing for attachment row", "attachment_id", id, "error", err)
		return nil, nil, err
	}
	return row, rc, nil
}

// authorize applies the read rule of the owning entity. Incidents need
// any-access; requests are also open to their requester under own-access.
// A refusal reads as a missing attachment.
func (s *Service) authorize(ctx context.Context, row *attachmentDatamodel.Attachment) error {
	userID, ok := appErrors.UserIDFromContext(ctx)
	if !ok {
		return appErrors.ErrNoSession
	}
	entity, ok := ownerEntities[row.OwnerType]
	if !ok {
		return ErrAttachmentNotFound
	}

	anyAccess, err := s.authorizer.HasPermission(ctx, userID, entity+":"+auth.ActionRead+":"+auth.AccessAny)
	if err != nil {
		return err
	}
	if anyAccess {
		return nil
	}
	if row.OwnerType == OwnerIncident {
		return s.deny(userID, row)
	}

	ownAccess, err := s.authorizer.HasPermission(ctx, userID, entity+":"+auth.ActionRead+":"+auth.AccessOwn)
	if err != nil {
		return err
	}
	if !ownAccess {
		return s.deny(userID, row)
	}
	requester, err := s.repo.OwnerRequester(ctx, row.OwnerType, row.OwnerID)
	if err != nil {
		return err
	}
	if !(auth.Scope{UserID: userID}).Covers(requester) {
		return s.deny(userID, row)
	}
	return nil
}

func (s *Service) deny(userID int64, row *attachmentDatamodel.Attachment) error {
	s.logger.Warn("Open: attachment outside the caller's reach", "user_id", userID, "attachment_id", row.ID, "owner_type", row.OwnerType)
	return ErrAttachmentNotFound
}
