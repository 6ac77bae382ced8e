package postgres

import (
	"gorm.io/gorm"

	"github.com/raffops/auth-management/internal/auth"
	"github.com/raffops/auth-management/internal/core/datamodel/identity"
	"github.com/raffops/auth-management/internal/group"
)

// Repository persists groups through gorm. Permission links live on the
// group_permissions join table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetAll() ([]*group.Group, error) {
	var records []identity.Group
	err := r.db.Preload("Permissions").
		Where("name <> ?", auth.AdminsGroup).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	groups := make([]*group.Group, 0, len(records))
	for i := range records {
		groups = append(groups, group.FromDataModel(&records[i]))
	}
	return groups, nil
}

func (r *Repository) GetByID(id int64) (*group.Group, error) {
	var rec identity.Group
	if err := r.db.Preload("Permissions").First(&rec, id).Error; err != nil {
		return nil, err
	}
	return group.FromDataModel(&rec), nil
}

func (r *Repository) GetByName(name string) (*group.Group, error) {
	var rec identity.Group
	if err := r.db.Preload("Permissions").Where("name = ?", name).First(&rec).Error; err != nil {
		return nil, err
	}
	return group.FromDataModel(&rec), nil
}

func (r *Repository) Create(name string, permissionIDs []int64) (*group.Group, error) {
	rec := identity.Group{Name: name}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if len(permissionIDs) > 0 {
			var perms []identity.Permission
			if err := tx.Where("id IN ?", permissionIDs).Find(&perms).Error; err != nil {
				return err
			}
			rec.Permissions = perms
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(rec.ID)
}

// Update renames the group and replaces its permission associations.
func (r *Repository) Update(id int64, name string, permissionIDs []int64) (*group.Group, error) {
	var rec identity.Group
	if err := r.db.First(&rec, id).Error; err != nil {
		return nil, err
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&rec).Update("name", name).Error; err != nil {
			return err
		}

		var perms []identity.Permission
		if len(permissionIDs) > 0 {
			if err := tx.Where("id IN ?", permissionIDs).Find(&perms).Error; err != nil {
				return err
			}
		}
		return tx.Model(&rec).Association("Permissions").Replace(perms)
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(id)
}

func (r *Repository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		rec := identity.Group{ID: id}
		if err := tx.Model(&rec).Association("Permissions").Clear(); err != nil {
			return err
		}
		return tx.Delete(&rec).Error
	})
}

func (r *Repository) CountUsers(id int64) (int64, error) {
	var count int64
	err := r.db.Table("user_groups").Where("group_id = ?", id).Count(&count).Error
	return count, err
}
