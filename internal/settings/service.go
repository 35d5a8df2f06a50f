package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/listquery"
)

type RepositoryAPI interface {
	List(ctx context.Context, kind Kind, q listquery.ListQuery) (listquery.Page[Item], error)
	GetByID(ctx context.Context, kind Kind, id int64) (*Item, error)
	NameTaken(ctx context.Context, kind Kind, name string, exceptID int64) (bool, error)
	Create(ctx context.Context, kind Kind, item *Item) error
	Update(ctx context.Context, kind Kind, item *Item) error
	Delete(ctx context.Context, kind Kind, id int64) error
	Options(ctx context.Context, kind Kind) ([]Option, error)
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

func (s *Service) List(ctx context.Context, kind Kind, q listquery.ListQuery) (listquery.Page[Item], error) {
	if !kind.Valid() {
		return listquery.Page[Item]{}, ErrUnknownKind
	}
	return s.repo.List(ctx, kind, q)
}

func (s *Service) Get(ctx context.Context, kind Kind, id int64) (*Item, error) {
	item, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, appErrors.NewNotFoundError(kind.Singular()+" not found", appErrors.ErrCodeNotFound)
		}
		return nil, err
	}
	return item, nil
}

func (s *Service) Options(ctx context.Context, kind Kind) ([]Option, error) {
	return s.repo.Options(ctx, kind)
}

func (s *Service) Create(ctx context.Context, kind Kind, dto ItemDTO) (*Item, error) {
	if err := s.validate(ctx, kind, dto, 0); err != nil {
		return nil, err
	}

	item := &Item{}
	dto.apply(item, kind)
	if err := s.repo.Create(ctx, kind, item); err != nil {
		s.logger.Error("Create: failed to create settings item", "kind", kind, "error", err)
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}

	s.logger.Info("settings item created", "kind", kind, "id", item.ID)
	return item, nil
}

func (s *Service) Update(ctx context.Context, kind Kind, id int64, dto ItemDTO) (*Item, error) {
	if id <= 0 {
		return nil, appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	item, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, kind, dto, id); err != nil {
		return nil, err
	}

	dto.apply(item, kind)
	if err := s.repo.Update(ctx, kind, item); err != nil {
		s.logger.Error("Update: failed to update settings item", "kind", kind, "id", id, "error", err)
		return nil, fmt.Errorf("update %s: %w", kind, err)
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, kind Kind, id int64) error {
	if id <= 0 {
		return appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	if _, err := s.Get(ctx, kind, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		s.logger.Error("Delete: failed to delete settings item", "kind", kind, "id", id, "error", err)
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return nil
}

func (s *Service) validate(ctx context.Context, kind Kind, dto ItemDTO, exceptID int64) error {
	if !kind.Valid() {
		return ErrUnknownKind
	}
	if err := dto.Validate(kind); err != nil {
		return err
	}

	taken, err := s.repo.NameTaken(ctx, kind, dto.Name, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return appErrors.NewValidationFieldError("name", fmt.Sprintf("%s %q already exists", kind.Singular(), dto.Name), appErrors.ErrCodeDuplicateName)
	}

	if kind == KindDepartment && dto.OrganID != nil {
		if _, err := s.repo.GetByID(ctx, KindOrgan, *dto.OrganID); err != nil {
			if errors.Is(err, ErrItemNotFound) {
				return appErrors.NewValidationFieldError("organId", "organ does not exist", appErrors.ErrCodeValidationFailed)
			}
			return err
		}
	}
	return nil
}
