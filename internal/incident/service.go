package incident

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/attachment"
	"github.com/frahmantamala/staff-management/internal/listquery"
	"github.com/frahmantamala/staff-management/internal/serial"
)

type RepositoryAPI interface {
	List(ctx context.Context, q listquery.ListQuery) (listquery.Page[Incident], error)
	GetByID(ctx context.Context, id int64) (*Incident, error)
	// Save writes the incident and its attachment rows in one transaction.
	Save(ctx context.Context, i *Incident, plan attachment.Plan) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type SerialGenerator interface {
	Next(ctx context.Context, entityType string) (string, error)
}

type Service struct {
	repo        RepositoryAPI
	serials     SerialGenerator
	attachments attachment.Binding[*Incident]
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, serials SerialGenerator, reconciler *attachment.Reconciler, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		serials: serials,
		attachments: attachment.Binding[*Incident]{
			Reconciler: reconciler,
			DirOf:      func(i *Incident) string { return i.SerialNumber },
			Upsert:     repo.Save,
		},
		logger: logger,
	}
}

func (s *Service) MaxFileSize() int64 {
	return s.attachments.MaxFileSize
}

func (s *Service) List(ctx context.Context, q listquery.ListQuery) (listquery.Page[Incident], error) {
	return s.repo.List(ctx, q)
}

func (s *Service) Get(ctx context.Context, id int64) (*Incident, error) {
	i, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrIncidentNotFound) {
			return nil, appErrors.NewNotFoundError("Incident not found", appErrors.ErrCodeNotFound)
		}
		return nil, err
	}
	return i, nil
}

func (s *Service) Create(ctx context.Context, reporterID int64, dto IncidentDTO) (*Incident, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.attachments.Validate(dto.Attachments); err != nil {
		return nil, err
	}

	number, err := s.serials.Next(ctx, serial.EntityIncident)
	if err != nil {
		s.logger.Error("Create: failed to issue serial number", "error", err)
		return nil, err
	}

	i := &Incident{SerialNumber: number, ReportedByID: reporterID}
	dto.apply(i)
	if _, err := s.attachments.Save(ctx, i, nil, dto.Attachments); err != nil {
		return nil, s.saveError("Create", i, err)
	}

	s.logger.Info("incident reported", "incident_id", i.ID, "serial_number", i.SerialNumber)
	return i, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto IncidentDTO) (*Incident, error) {
	if id <= 0 {
		return nil, appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	i, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	dto.apply(i)
	if _, err := s.attachments.Save(ctx, i, i.ExistingAttachments(), dto.Attachments); err != nil {
		return nil, s.saveError("Update", i, err)
	}
	return i, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*Incident, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	i, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		s.logger.Error("UpdateStatus: failed to update incident", "incident_id", id, "error", err)
		return nil, fmt.Errorf("update incident status: %w", err)
	}
	i.Status = status
	return i, nil
}

// Delete removes the row and its attachment rows, then the blob directory.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	i, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Delete: failed to delete incident", "incident_id", id, "error", err)
		return fmt.Errorf("delete incident: %w", err)
	}
	if err := s.attachments.Delete(ctx, i); err != nil {
		s.logger.Warn("Delete: incident removed but blobs remain", "serial_number", i.SerialNumber, "error", err)
	}
	return nil
}

func (s *Service) saveError(op string, i *Incident, err error) error {
	if _, ok := appErrors.IsAppError(err); ok {
		return err
	}
	s.logger.Error(op+": failed to save incident", "serial_number", i.SerialNumber, "error", err)
	return fmt.Errorf("save incident: %w", err)
}
