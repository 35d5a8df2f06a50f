package employee

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/listquery"
)

type RepositoryAPI interface {
	List(ctx context.Context, q listquery.ListQuery, status string) (listquery.Page[Employee], error)
	GetByID(ctx context.Context, id int64) (*Employee, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	Create(ctx context.Context, e *Employee) error
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, q listquery.ListQuery, status string) (listquery.Page[Employee], error) {
	if status != "" && status != StatusActive && status != StatusInactive {
		return listquery.Page[Employee]{}, appErrors.NewValidationFieldError("status", "status must be active or inactive", appErrors.ErrCodeInvalidStatus)
	}
	return s.repo.List(ctx, q, status)
}

func (s *Service) Get(ctx context.Context, id int64) (*Employee, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return nil, appErrors.NewNotFoundError("Employee not found", appErrors.ErrCodeNotFound)
		}
		return nil, err
	}
	return e, nil
}

func (s *Service) Create(ctx context.Context, dto EmployeeDTO) (*Employee, error) {
	if err := s.validate(ctx, dto, 0); err != nil {
		return nil, err
	}

	e := &Employee{}
	dto.apply(e)
	if err := s.repo.Create(ctx, e); err != nil {
		s.logger.Error("Create: failed to create employee", "error", err)
		return nil, fmt.Errorf("create employee: %w", err)
	}

	s.logger.Info("employee created", "employee_id", e.ID)
	return e, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto EmployeeDTO) (*Employee, error) {
	if id <= 0 {
		return nil, appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, dto, id); err != nil {
		return nil, err
	}

	dto.apply(e)
	if err := s.repo.Update(ctx, e); err != nil {
		s.logger.Error("Update: failed to update employee", "employee_id", id, "error", err)
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Delete: failed to delete employee", "employee_id", id, "error", err)
		return fmt.Errorf("delete employee: %w", err)
	}
	return nil
}

// Export writes every employee matching the search as an xlsx workbook.
func (s *Service) Export(ctx context.Context, q listquery.ListQuery, status string, w io.Writer) error {
	q.All = true
	page, err := s.List(ctx, q, status)
	if err != nil {
		return err
	}
	if err := writeWorkbook(w, page.Data); err != nil {
		s.logger.Error("Export: failed to write workbook", "error", err)
		return err
	}
	s.logger.Info("employees exported", "rows", len(page.Data))
	return nil
}

func (s *Service) validate(ctx context.Context, dto EmployeeDTO, exceptID int64) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	taken, err := s.repo.EmailTaken(ctx, dto.Email, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return appErrors.NewValidationFieldError("email", "An employee with this email already exists", appErrors.ErrCodeEmailTaken)
	}
	return nil
}
