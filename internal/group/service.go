package group

import (
	"log/slog"

	"github.com/raffops/auth-management/internal"
	"github.com/raffops/auth-management/internal/auth"
)

type Repository interface {
	// GetAll returns every group except the reserved administrators group.
	GetAll() ([]*Group, error)
	GetByID(id int64) (*Group, error)
	GetByName(name string) (*Group, error)
	Create(name string, permissionIDs []int64) (*Group, error)
	Update(id int64, name string, permissionIDs []int64) (*Group, error)
	Delete(id int64) error
	// CountUsers reports how many users are linked to the group.
	CountUsers(id int64) (int64, error)
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

func (s *Service) List() ([]*Group, error) {
	return s.repo.GetAll()
}

func (s *Service) Create(dto GroupDTO) (*Group, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.Name == auth.AdminsGroup {
		return nil, internal.NewConflictError("Group name is reserved", internal.ErrCodeReservedName)
	}

	if _, err := s.repo.GetByName(dto.Name); err == nil {
		return nil, internal.ErrGroupExists
	}

	created, err := s.repo.Create(dto.Name, dto.PermissionIDs)
	if err != nil {
		return nil, internal.NewInternalError("failed to create group", err)
	}

	s.logger.Info("group created", "name", created.Name)
	return created, nil
}

// Update renames the group and replaces its permission set. A name conflict
// with a different group is rejected; keeping the current name is fine.
func (s *Service) Update(id int64, dto GroupDTO) (*Group, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.Name == auth.AdminsGroup {
		return nil, internal.NewConflictError("Group name is reserved", internal.ErrCodeReservedName)
	}

	if _, err := s.repo.GetByID(id); err != nil {
		return nil, internal.ErrGroupNotFound
	}

	if existing, err := s.repo.GetByName(dto.Name); err == nil && existing.ID != id {
		return nil, internal.ErrGroupExists
	}

	return s.repo.Update(id, dto.Name, dto.PermissionIDs)
}

// Delete removes a group, refusing while any user is still linked to it.
func (s *Service) Delete(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return internal.ErrGroupNotFound
	}

	linked, err := s.repo.CountUsers(id)
	if err != nil {
		return internal.NewInternalError("failed to count linked users", err)
	}
	if linked > 0 {
		return internal.ErrGroupHasUsers
	}

	if err := s.repo.Delete(id); err != nil {
		return internal.NewInternalError("failed to delete group", err)
	}

	s.logger.Info("group deleted", "group_id", id)
	return nil
}
