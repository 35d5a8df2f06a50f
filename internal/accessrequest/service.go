package accessrequest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/listquery"
	"github.com/frahmantamala/staff-management/internal/serial"
	"github.com/frahmantamala/staff-management/internal/workflow"
)

type RepositoryAPI interface {
	List(ctx context.Context, q listquery.ListQuery, scope auth.Scope) (listquery.Page[AccessRequest], error)
	GetByID(ctx context.Context, id int64) (*AccessRequest, error)
	Save(ctx context.Context, a *AccessRequest) error
	// Decide returns false when the request is no longer pending.
	Decide(ctx context.Context, id int64, status, reason string) (bool, error)
	Delete(ctx context.Context, id int64) error
	EmployeeExists(ctx context.Context, id int64) (bool, error)
	LocationExists(ctx context.Context, id int64) (bool, error)
	RequesterEmail(ctx context.Context, userID int64) (string, error)
}

type SerialGenerator interface {
	Next(ctx context.Context, entityType string) (string, error)
}

var errNotFound = appErrors.NewNotFoundError("Access request not found", appErrors.ErrCodeNotFound)

type Service struct {
	repo      RepositoryAPI
	serials   SerialGenerator
	publisher workflow.EventPublisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, serials SerialGenerator, publisher workflow.EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		serials:   serials,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context, scope auth.Scope, q listquery.ListQuery) (listquery.Page[AccessRequest], error) {
	return s.repo.List(ctx, q, scope)
}

func (s *Service) Get(ctx context.Context, scope auth.Scope, id int64) (*AccessRequest, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccessRequestNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	if err := workflow.EnsureVisible(scope, a.RequestedByID, errNotFound); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Create(ctx context.Context, scope auth.Scope, dto AccessRequestDTO) (*AccessRequest, error) {
	if err := s.validate(ctx, dto); err != nil {
		return nil, err
	}

	number, err := s.serials.Next(ctx, serial.EntityAccessRequest)
	if err != nil {
		s.logger.Error("Create: failed to issue serial number", "error", err)
		return nil, err
	}

	a := &AccessRequest{SerialNumber: number, Status: workflow.StatusPending, RequestedByID: scope.UserID}
	dto.apply(a)
	if err := s.repo.Save(ctx, a); err != nil {
		s.logger.Error("Create: failed to save access request", "serial_number", number, "error", err)
		return nil, fmt.Errorf("save access request: %w", err)
	}

	s.logger.Info("visitor access requested", "access_request_id", a.ID, "serial_number", a.SerialNumber)
	return a, nil
}

func (s *Service) Update(ctx context.Context, scope auth.Scope, id int64, dto AccessRequestDTO) (*AccessRequest, error) {
	if id <= 0 {
		return nil, appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	a, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.EnsureEditable(scope, a.RequestedByID, a.Status, errNotFound); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, dto); err != nil {
		return nil, err
	}

	dto.apply(a)
	if err := s.repo.Save(ctx, a); err != nil {
		if _, ok := appErrors.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("Update: failed to save access request", "access_request_id", id, "error", err)
		return nil, fmt.Errorf("save access request: %w", err)
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, scope auth.Scope, id int64) error {
	if id <= 0 {
		return appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	a, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := workflow.EnsureEditable(scope, a.RequestedByID, a.Status, errNotFound); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Delete: failed to delete access request", "access_request_id", id, "error", err)
		return fmt.Errorf("delete access request: %w", err)
	}
	return nil
}

func (s *Service) Approve(ctx context.Context, id int64) (*AccessRequest, error) {
	return s.decide(ctx, id, workflow.StatusApproved, "")
}

func (s *Service) Reject(ctx context.Context, id int64, reason string) (*AccessRequest, error) {
	if err := workflow.ValidateRejection(reason); err != nil {
		return nil, err
	}
	a, err := s.decide(ctx, id, workflow.StatusRejected, reason)
	if err != nil {
		return nil, err
	}

	email, err := s.repo.RequesterEmail(ctx, a.RequestedByID)
	if err != nil {
		s.logger.Error("Reject: failed to look up requester", "access_request_id", id, "error", err)
	}
	workflow.NotifyRejection(ctx, s.publisher, s.logger, Entity, a.ID, a.SerialNumber, email, reason)
	return a, nil
}

func (s *Service) decide(ctx context.Context, id int64, status, reason string) (*AccessRequest, error) {
	a, err := s.Get(ctx, auth.Scope{Any: true}, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.EnsurePending(a.Status); err != nil {
		return nil, err
	}

	ok, err := s.repo.Decide(ctx, id, status, reason)
	if err != nil {
		s.logger.Error("decide: failed to record decision", "access_request_id", id, "status", status, "error", err)
		return nil, fmt.Errorf("decide access request: %w", err)
	}
	if !ok {
		return nil, workflow.ErrAlreadyDecided
	}

	a.Status = status
	a.RejectionReason = reason
	s.logger.Info("access request decided", "serial_number", a.SerialNumber, "status", status)
	return a, nil
}

func (s *Service) validate(ctx context.Context, dto AccessRequestDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	ok, err := s.repo.EmployeeExists(ctx, dto.HostEmployeeID)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.NewValidationFieldError("hostEmployeeId", "Employee does not exist", appErrors.ErrCodeNotFound)
	}
	if dto.LocationID != nil {
		ok, err := s.repo.LocationExists(ctx, *dto.LocationID)
		if err != nil {
			return err
		}
		if !ok {
			return appErrors.NewValidationFieldError("locationId", "Location does not exist", appErrors.ErrCodeNotFound)
		}
	}
	return nil
}
