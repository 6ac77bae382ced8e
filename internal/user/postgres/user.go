package postgres

import (
	"sort"

	"gorm.io/gorm"

	"github.com/raffops/auth-management/internal/core/datamodel/identity"
	"github.com/raffops/auth-management/internal/user"
)

// Repository persists users through gorm. Group membership lives on the
// user_groups join table and is always loaded eagerly.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetAll() ([]*user.User, error) {
	var records []identity.User
	if err := r.db.Preload("Groups").Order("id").Find(&records).Error; err != nil {
		return nil, err
	}

	users := make([]*user.User, 0, len(records))
	for i := range records {
		users = append(users, user.FromDataModel(&records[i]))
	}
	return users, nil
}

func (r *Repository) GetByID(id int64) (*user.User, error) {
	var rec identity.User
	if err := r.db.Preload("Groups").First(&rec, id).Error; err != nil {
		return nil, err
	}
	return user.FromDataModel(&rec), nil
}

func (r *Repository) GetByUsername(username string) (*user.User, error) {
	var rec identity.User
	if err := r.db.Preload("Groups").Where("username = ?", username).First(&rec).Error; err != nil {
		return nil, err
	}
	return user.FromDataModel(&rec), nil
}

func (r *Repository) GetByEmail(email string) (*user.User, error) {
	var rec identity.User
	if err := r.db.Preload("Groups").Where("email = ?", email).First(&rec).Error; err != nil {
		return nil, err
	}
	return user.FromDataModel(&rec), nil
}

// GetPermissions returns the deduplicated union of the permissions granted
// through every group the user belongs to.
func (r *Repository) GetPermissions(username string) ([]string, error) {
	var rec identity.User
	err := r.db.Preload("Groups.Permissions").Where("username = ?", username).First(&rec).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, g := range rec.Groups {
		for _, p := range g.Permissions {
			seen[p.Name] = struct{}{}
		}
	}

	perms := make([]string, 0, len(seen))
	for name := range seen {
		perms = append(perms, name)
	}
	sort.Strings(perms)
	return perms, nil
}

func (r *Repository) GroupsExist(groupIDs []int64) (bool, error) {
	if len(groupIDs) == 0 {
		return true, nil
	}
	var count int64
	err := r.db.Model(&identity.Group{}).Where("id IN ?", groupIDs).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == int64(len(groupIDs)), nil
}

func (r *Repository) Create(dto user.CreateUserDTO, passwordHash string) (*user.User, error) {
	rec := identity.User{
		Username:     dto.Username,
		Name:         dto.Name,
		PasswordHash: passwordHash,
		Email:        dto.Email,
		Avatar:       dto.Avatar,
		IsActive:     true,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if len(dto.Groups) > 0 {
			var groups []identity.Group
			if err := tx.Where("id IN ?", dto.Groups).Find(&groups).Error; err != nil {
				return err
			}
			rec.Groups = groups
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(rec.ID)
}

// ReplaceGroups swaps the user's memberships for the given set. An empty set
// clears every membership.
func (r *Repository) ReplaceGroups(id int64, groupIDs []int64) (*user.User, error) {
	var rec identity.User
	if err := r.db.First(&rec, id).Error; err != nil {
		return nil, err
	}

	var groups []identity.Group
	if len(groupIDs) > 0 {
		if err := r.db.Where("id IN ?", groupIDs).Find(&groups).Error; err != nil {
			return nil, err
		}
	}

	if err := r.db.Model(&rec).Association("Groups").Replace(groups); err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *Repository) UpdateActive(id int64, active bool) (*user.User, error) {
	err := r.db.Model(&identity.User{}).Where("id = ?", id).
		Update("is_active", active).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *Repository) UpdateAvatar(id int64, avatar string) (*user.User, error) {
	err := r.db.Model(&identity.User{}).Where("id = ?", id).
		Update("avatar", avatar).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *Repository) UpdatePassword(id int64, passwordHash string) error {
	return r.db.Model(&identity.User{}).Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}
