package carpass

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
	List(ctx context.Context, q listquery.ListQuery, scope auth.Scope) (listquery.Page[CarPass], error)
	GetByID(ctx context.Context, id int64) (*CarPass, error)
	Save(ctx context.Context, c *CarPass, plan attachment.Plan) error
	// Decide returns false when the request is no longer pending.
	Decide(ctx context.Context, id int64, status, reason string) (bool, error)
	Delete(ctx context.Context, id int64) error
	EmployeeExists(ctx context.Context, id int64) (bool, error)
	RequesterEmail(ctx context.Context, userID int64) (string, error)
}

type SerialGenerator interface {
	Next(ctx context.Context, entityType string) (string, error)
}

var errNotFound = appErrors.NewNotFoundError("Car pass request not found", appErrors.ErrCodeNotFound)

type Service struct {
	repo        RepositoryAPI
	serials     SerialGenerator
	attachments attachment.Binding[*CarPass]
	publisher   workflow.EventPublisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, serials SerialGenerator, reconciler *attachment.Reconciler, publisher workflow.EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		serials: serials,
		attachments: attachment.Binding[*CarPass]{
			Reconciler: reconciler,
			DirOf:      func(c *CarPass) string { return c.SerialNumber },
			Upsert:     repo.Save,
		},
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) MaxFileSize() int64 {
	return s.attachments.MaxFileSize
}

func (s *Service) List(ctx context.Context, scope auth.Scope, q listquery.ListQuery) (listquery.Page[CarPass], error) {
	return s.repo.List(ctx, q, scope)
}

func (s *Service) Get(ctx context.Context, scope auth.Scope, id int64) (*CarPass, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCarPassNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	if err := workflow.EnsureVisible(scope, c.RequestedByID, errNotFound); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, scope auth.Scope, dto CarPassDTO) (*CarPass, error) {
	if err := s.validate(ctx, dto); err != nil {
		return nil, err
	}
	if err := s.attachments.Validate(dto.Attachments); err != nil {
		return nil, err
	}

	number, err := s.serials.Next(ctx, serial.EntityCarPass)
	if err != nil {
		s.logger.Error("Create: failed to issue serial number", "error", err)
		return nil, err
	}

	c := &CarPass{SerialNumber: number, Status: workflow.StatusPending, RequestedByID: scope.UserID}
	dto.apply(c)
	if _, err := s.attachments.Save(ctx, c, nil, dto.Attachments); err != nil {
		return nil, s.saveError("Create", c, err)
	}

	s.logger.Info("car pass requested", "car_pass_id", c.ID, "serial_number", c.SerialNumber)
	return c, nil
}

func (s *Service) Update(ctx context.Context, scope auth.Scope, id int64, dto CarPassDTO) (*CarPass, error) {
	if id <= 0 {
		return nil, appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	c, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.EnsureEditable(scope, c.RequestedByID, c.Status, errNotFound); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, dto); err != nil {
		return nil, err
	}

	dto.apply(c)
	if _, err := s.attachments.Save(ctx, c, c.ExistingAttachments(), dto.Attachments); err != nil {
		return nil, s.saveError("Update", c, err)
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, scope auth.Scope, id int64) error {
	if id <= 0 {
		return appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	c, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := workflow.EnsureEditable(scope, c.RequestedByID, c.Status, errNotFound); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Delete: failed to delete car pass", "car_pass_id", id, "error", err)
		return fmt.Errorf("delete car pass: %w", err)
	}
	if err := s.attachments.Delete(ctx, c); err != nil {
		s.logger.Warn("Delete: car pass removed but blobs remain", "serial_number", c.SerialNumber, "error", err)
	}
	return nil
}

func (s *Service) Approve(ctx context.Context, id int64) (*CarPass, error) {
	return s.decide(ctx, id, workflow.StatusApproved, "")
}

// Reject records the reason and emails it to the requester.
func (s *Service) Reject(ctx context.Context, id int64, reason string) (*CarPass, error) {
	if err := workflow.ValidateRejection(reason); err != nil {
		return nil, err
	}
	c, err := s.decide(ctx, id, workflow.StatusRejected, reason)
	if err != nil {
		return nil, err
	}

	email, err := s.repo.RequesterEmail(ctx, c.RequestedByID)
	if err != nil {
		s.logger.Error("Reject: failed to look up requester", "car_pass_id", id, "error", err)
	}
	workflow.NotifyRejection(ctx, s.publisher, s.logger, Entity, c.ID, c.SerialNumber, email, reason)
	return c, nil
}

func (s *Service) decide(ctx context.Context, id int64, status, reason string) (*CarPass, error) {
	c, err := s.Get(ctx, auth.Scope{Any: true}, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.EnsurePending(c.Status); err != nil {
		return nil, err
	}

	ok, err := s.repo.Decide(ctx, id, status, reason)
	if err != nil {
		s.logger.Error("decide: failed to record decision", "car_pass_id", id, "status", status, "error", err)
		return nil, fmt.Errorf("decide car pass: %w", err)
	}
	if !ok {
		return nil, workflow.ErrAlreadyDecided
	}

	c.Status = status
	c.RejectionReason = reason
	s.logger.Info("car pass decided", "serial_number", c.SerialNumber, "status", status)
	return c, nil
}

func (s *Service) validate(ctx context.Context, dto CarPassDTO) error {
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

func (s *Service) saveError(op string, c *CarPass, err error) error {
	if _, ok := appErrors.IsAppError(err); ok {
		return err
	}
	s.logger.Error(op+": failed to save car pass", "serial_number", c.SerialNumber, "error", err)
	return fmt.Errorf("save car pass: %w", err)
}
