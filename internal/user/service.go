package user

import (
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/raffops/auth-management/internal"
	"github.com/raffops/auth-management/internal/auth"
)

type Repository interface {
	GetAll() ([]*User, error)
	GetByID(id int64) (*User, error)
	GetByUsername(username string) (*User, error)
	GetByEmail(email string) (*User, error)
	GetPermissions(username string) ([]string, error)
	GroupsExist(groupIDs []int64) (bool, error)
	Create(dto CreateUserDTO, passwordHash string) (*User, error)
	ReplaceGroups(id int64, groupIDs []int64) (*User, error)
	UpdateActive(id int64, active bool) (*User, error)
	UpdateAvatar(id int64, avatar string) (*User, error)
	UpdatePassword(id int64, passwordHash string) error
}

type Service struct {
	repo   Repository
	hasher auth.PasswordHasher
	logger *slog.Logger
}

func NewService(repo Repository, hasher auth.PasswordHasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

func (s *Service) List() ([]*User, error) {
	return s.repo.GetAll()
}

func (s *Service) GetByID(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) GetByUsername(username string) (*User, error) {
	u, err := s.repo.GetByUsername(username)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

// Create registers a new user. Username and email must be unique and every
// referenced group must exist before anything is written.
func (s *Service) Create(dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByUsername(dto.Username); err == nil {
		return nil, internal.ErrUsernameTaken
	}
	if _, err := s.repo.GetByEmail(dto.Email); err == nil {
		return nil, internal.ErrEmailTaken
	}

	if len(dto.Groups) > 0 {
		ok, err := s.repo.GroupsExist(dto.Groups)
		if err != nil {
			return nil, internal.NewInternalError("failed to verify groups", err)
		}
		if !ok {
			return nil, internal.ErrGroupNotFound
		}
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	if dto.Avatar != "" {
		dto.Avatar = avatarName(dto.Avatar)
	}

	created, err := s.repo.Create(dto, hash)
	if err != nil {
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "username", created.Username)
	return created, nil
}

func (s *Service) UpdateGroups(id int64, dto PatchGroupsDTO) (*User, error) {
	if _, err := s.repo.GetByID(id); err != nil {
		return nil, internal.ErrUserNotFound
	}

	if len(dto.Groups) > 0 {
		ok, err := s.repo.GroupsExist(dto.Groups)
		if err != nil {
			return nil, internal.NewInternalError("failed to verify groups", err)
		}
		if !ok {
			return nil, internal.ErrGroupNotFound
		}
	}

	return s.repo.ReplaceGroups(id, dto.Groups)
}

func (s *Service) UpdateStatus(id int64, dto PatchStatusDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(id); err != nil {
		return nil, internal.ErrUserNotFound
	}
	return s.repo.UpdateActive(id, *dto.Active)
}

// UpdateAvatar stores a new avatar reference. A user may change their own
// avatar; changing someone else's requires the wildcard permission.
func (s *Service) UpdateAvatar(id int64, dto PatchAvatarDTO, actor *auth.User) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(id); err != nil {
		return nil, internal.ErrUserNotFound
	}

	if actor.ID != id {
		perms, err := s.repo.GetPermissions(actor.Username)
		if err != nil {
			return nil, internal.NewInternalError("failed to resolve permissions", err)
		}
		if !auth.HasPermissions(perms, []string{auth.WildcardPermission}) {
			return nil, internal.NewForbiddenError(
				"Cannot update another user's avatar", internal.ErrCodeInsufficientPermissions)
		}
	}

	return s.repo.UpdateAvatar(id, avatarName(dto.Filename))
}

func (s *Service) UpdatePassword(id int64, dto PatchPasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	if dto.Password != dto.PasswordConfirm {
		return internal.ErrPasswordMismatch
	}

	if _, err := s.repo.GetByID(id); err != nil {
		return internal.ErrUserNotFound
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.UpdatePassword(id, hash); err != nil {
		return internal.NewInternalError("failed to update password", err)
	}

	s.logger.Info("password updated", "user_id", id)
	return nil
}

// avatarName derives a fresh stored name so uploads never collide or leak the
// original file name.
func avatarName(original string) string {
	return "avatar_" + uuid.NewString() + filepath.Ext(original)
}
