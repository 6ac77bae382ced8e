package permission

import (
	"log/slog"

	"github.com/raffops/auth-management/internal"
	"github.com/raffops/auth-management/internal/auth"
)

type Repository interface {
	// GetAll returns every permission except the reserved wildcard.
	GetAll() ([]*Permission, error)
	GetByID(id int64) (*Permission, error)
	GetByName(name string) (*Permission, error)
	Create(name string) (*Permission, error)
	Rename(id int64, name string) (*Permission, error)
	Delete(id int64) error
	// CountGroups reports how many groups are linked to the permission.
	CountGroups(id int64) (int64, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List() ([]*Permission, error) {
	return s.repo.GetAll()
}

func (s *Service) GetByID(id int64) (*Permission, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrPermissionNotFound
	}
	return p, nil
}

func (s *Service) Create(dto PermissionDTO) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.Name == auth.WildcardPermission {
		return nil, internal.NewConflictError("Permission name is reserved", internal.ErrCodeReservedName)
	}

	if _, err := s.repo.GetByName(dto.Name); err == nil {
		return nil, internal.ErrPermissionExists
	}

	created, err := s.repo.Create(dto.Name)
	if err != nil {
		return nil, internal.NewInternalError("failed to create permission", err)
	}

	s.logger.Info("permission created", "name", created.Name)
	return created, nil
}

// Rename changes a permission's name. Any existing holder of the new name,
// including the permission itself, is a conflict.
func (s *Service) Rename(id int64, dto PermissionDTO) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.Name == auth.WildcardPermission {
		return nil, internal.NewConflictError("Permission name is reserved", internal.ErrCodeReservedName)
	}

	if _, err := s.repo.GetByID(id); err != nil {
		return nil, internal.ErrPermissionNotFound
	}

	if _, err := s.repo.GetByName(dto.Name); err == nil {
		return nil, internal.ErrPermissionExists
	}

	return s.repo.Rename(id, dto.Name)
}

// Delete removes a permission, refusing while any group still references it.
func (s *Service) Delete(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return internal.ErrPermissionNotFound
	}

	linked, err := s.repo.CountGroups(id)
	if err != nil {
		return internal.NewInternalError("failed to count linked groups", err)
	}
	if linked > 0 {
		return internal.ErrPermissionInUse
	}

	if err := s.repo.Delete(id); err != nil {
		return internal.NewInternalError("failed to delete permission", err)
	}

	s.logger.Info("permission deleted", "permission_id", id)
	return nil
}
