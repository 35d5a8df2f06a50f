package idrequest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/attachment"
	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/listquery"
	"github.com/frahmantamala/staff-management/internal/serial"
	"github.com/frahmantamala/staff-management/internal/workflow"
)

type RepositoryAPI interface {
	List(ctx context.Context, q listquery.ListQuery, scope auth.Scope) (listquery.Page[IDRequest], error)
	GetByID(ctx context.Context, id int64) (*IDRequest, error)
	Save(ctx context.Context, req *IDRequest, plan attachment.Plan) error
	// Decide returns false when the request is no longer pending.
	Decide(ctx context.Context, id int64, status, reason string) (bool, error)
	Delete(ctx context.Context, id int64) error
	EmployeeExists(ctx context.Context, id int64) (bool, error)
	RequesterEmail(ctx context.Context, userID int64) (string, error)
}

type SerialGenerator interface {
	Next(ctx context.Context, entityType string) (string, error)
}

var errNotFound = appErrors.NewNotFoundError("ID request not found", appErrors.ErrCodeNotFound)

type Service struct {
	repo        RepositoryAPI
	serials     SerialGenerator
	attachments attachment.Binding[*IDRequest]
	publisher   workflow.EventPublisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, serials SerialGenerator, reconciler *attachment.Reconciler, publisher workflow.EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		serials: serials,
		attachments: attachment.Binding[*IDRequest]{
			Reconciler: reconciler,
			DirOf:      func(req *IDRequest) string { return req.SerialNumber },
			Upsert:     repo.Save,
		},
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) MaxFileSize() int64 {
	return s.attachments.MaxFileSize
}

func (s *Service) List(ctx context.Context, scope auth.Scope, q listquery.ListQuery) (listquery.Page[IDRequest], error) {
	return s.repo.List(ctx, q, scope)
}

func (s *Service) Get(ctx context.Context, scope auth.Scope, id int64) (*IDRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrIDRequestNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	if err := workflow.EnsureVisible(scope, req.RequestedByID, errNotFound); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Service) Create(ctx context.Context, scope auth.Scope, dto IDRequestDTO) (*IDRequest, error) {
	if err := s.validate(ctx, dto); err != nil {
		return nil, err
	}
	if err := s.attachments.Validate(dto.Attachments); err != nil {
		return nil, err
	}

	number, err := s.serials.Next(ctx, serial.EntityIDRequest)
	if err != nil {
		s.logger.Error("Create: failed to issue serial number", "error", err)
		return nil, err
	}

	req := &IDRequest{SerialNumber: number, Status: workflow.StatusPending, RequestedByID: scope.UserID}
	dto.apply(req)
	if _, err := s.attachments.Save(ctx, req, nil, dto.Attachments); err != nil {
		return nil, s.saveError("Create", req, err)
	}

	s.logger.Info("id badge requested", "id_request_id", req.ID, "serial_number", req.SerialNumber)
	return req, nil
}

func (s *Service) Update(ctx context.Context, scope auth.Scope, id int64, dto IDRequestDTO) (*IDRequest, error) {
	if id <= 0 {
		return nil, appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	req, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.EnsureEditable(scope, req.RequestedByID, req.Status, errNotFound); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, dto); err != nil {
		return nil, err
	}

	dto.apply(req)
	if _, err := s.attachments.Save(ctx, req, req.ExistingAttachments(), dto.Attachments); err != nil {
		return nil, s.saveError("Update", req, err)
	}
	return req, nil
}

func (s *Service) Delete(ctx context.Context, scope auth.Scope, id int64) error {
	if id <= 0 {
		return appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	req, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := workflow.EnsureEditable(scope, req.RequestedByID, req.Status, errNotFound); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Delete: failed to delete id request", "id_request_id", id, "error", err)
		return fmt.Errorf("delete id request: %w", err)
	}
	if err := s.attachments.Delete(ctx, req); err != nil {
		s.logger.Warn("Delete: id request removed but blobs remain", "serial_number", req.SerialNumber, "error", err)
	}
	return nil
}

func (s *Service) Approve(ctx context.Context, id int64) (*IDRequest, error) {
	return s.decide(ctx, id, workflow.StatusApproved, "")
}

// Reject records the reason and emails it to the requester.
func (s *Service) Reject(ctx context.Context, id int64, reason string) (*IDRequest, error) {
	if err := workflow.ValidateRejection(reason); err != nil {
		return nil, err
	}
	req, err := s.decide(ctx, id, workflow.StatusRejected, reason)
	if err != nil {
		return nil, err
	}

	email, err := s.repo.RequesterEmail(ctx, req.RequestedByID)
	if err != nil {
		s.logger.Error("Reject: failed to look up requester", "id_request_id", id, "error", err)
	}
	workflow.NotifyRejection(ctx, s.publisher, s.logger, Entity, req.ID, req.SerialNumber, email, reason)
	return req, nil
}

func (s *Service) decide(ctx context.Context, id int64, status, reason string) (*IDRequest, error) {
	req, err := s.Get(ctx, auth.Scope{Any: true}, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.EnsurePending(req.Status); err != nil {
		return nil, err
	}

	ok, err := s.repo.Decide(ctx, id, status, reason)
	if err != nil {
		s.logger.Error("decide: failed to record decision", "id_request_id", id, "status", status, "error", err)
		return nil, fmt.Errorf("decide id request: %w", err)
	}
	if !ok {
		return nil, workflow.ErrAlreadyDecided
	}

	req.Status = status
	req.RejectionReason = reason
	s.logger.Info("id request decided", "serial_number", req.SerialNumber, "status", status)
	return req, nil
}

func (s *Service) validate(ctx context.Context, dto IDRequestDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	ok, err := s.repo.EmployeeExists(ctx, dto.EmployeeID)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.NewValidationFieldError("employeeId", "Employee does not exist", appErrors.ErrCodeNotFound)
	}
	return nil
}

func (s *Service) saveError(op string, req *IDRequest, err error) error {
	if _, ok := appErrors.IsAppError(err); ok {
		return err
	}
	s.logger.Error(op+": failed to save id request", "serial_number", req.SerialNumber, "error", err)
	return fmt.Errorf("save id request: %w", err)
}
