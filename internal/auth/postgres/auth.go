package postgres

import (
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/raffops/auth-management/internal/auth"
	"github.com/raffops/auth-management/internal/core/datamodel/identity"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetUserGroupsPermissions loads the user with group and permission
// associations and flattens them into name lists. Permissions granted by more
// than one group appear once.
func (r *Repository) GetUserGroupsPermissions(username string) (*auth.User, []string, []string, error) {
	var rec identity.User
	err := r.db.Preload("Groups.Permissions").Where("username = ?", username).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, auth.ErrUserNotFound
		}
		return nil, nil, nil, err
	}

	groups := make([]string, 0, len(rec.Groups))
	permSet := make(map[string]struct{})
	for _, g := range rec.Groups {
		groups = append(groups, g.Name)
		for _, p := range g.Permissions {
			permSet[p.Name] = struct{}{}
		}
	}

	permissions := make([]string, 0, len(permSet))
	for name := range permSet {
		permissions = append(permissions, name)
	}
	sort.Strings(permissions)

	return toDomain(&rec), groups, permissions, nil
}

func (r *Repository) GetPasswordHash(username string) (string, error) {
	var hash string
	err := r.db.Model(&identity.User{}).
		Select("password_hash").
		Where("username = ?", username).
		Scan(&hash).Error
	if err != nil {
		return "", err
	}
	if hash == "" {
		return "", auth.ErrUserNotFound
	}
	return hash, nil
}

func (r *Repository) GetUserByUsername(username string) (*auth.User, error) {
	var rec identity.User
	err := r.db.Preload("Groups").Where("username = ?", username).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return toDomain(&rec), nil
}

func (r *Repository) GetUserByEmail(email string) (*auth.User, error) {
	var rec identity.User
	err := r.db.Preload("Groups").Where("email = ?", email).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return toDomain(&rec), nil
}

func toDomain(rec *identity.User) *auth.User {
	groups := make([]string, 0, len(rec.Groups))
	for _, g := range rec.Groups {
		groups = append(groups, g.Name)
	}
	return &auth.User{
		ID:       rec.ID,
		Username: rec.Username,
		Name:     rec.Name,
		Email:    rec.Email,
		Avatar:   rec.Avatar,
		IsActive: rec.IsActive,
		Groups:   groups,
	}
}
