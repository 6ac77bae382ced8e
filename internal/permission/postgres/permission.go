package postgres

import (
	"gorm.io/gorm"

	"github.com/raffops/auth-management/internal/auth"
	"github.com/raffops/auth-management/internal/core/datamodel/identity"
	"github.com/raffops/auth-management/internal/permission"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetAll() ([]*permission.Permission, error) {
	var records []identity.Permission
	err := r.db.Where("name <> ?", auth.WildcardPermission).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	perms := make([]*permission.Permission, 0, len(records))
	for i := range records {
		perms = append(perms, permission.FromDataModel(&records[i]))
	}
	return perms, nil
}

func (r *Repository) GetByID(id int64) (*permission.Permission, error) {
	var rec identity.Permission
	if err := r.db.First(&rec, id).Error; err != nil {
		return nil, err
	}
	return permission.FromDataModel(&rec), nil
}

func (r *Repository) GetByName(name string) (*permission.Permission, error) {
	var rec identity.Permission
	if err := r.db.Where("name = ?", name).First(&rec).Error; err != nil {
		return nil, err
	}
	return permission.FromDataModel(&rec), nil
}

func (r *Repository) Create(name string) (*permission.Permission, error) {
	rec := identity.Permission{Name: name}
	if err := r.db.Create(&rec).Error; err != nil {
		return nil, err
	}
	return permission.FromDataModel(&rec), nil
}

func (r *Repository) Rename(id int64, name string) (*permission.Permission, error) {
	err := r.db.Model(&identity.Permission{}).Where("id = ?", id).
		Update("name", name).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *Repository) Delete(id int64) error {
	return r.db.Delete(&identity.Permission{}, id).Error
}

func (r *Repository) CountGroups(id int64) (int64, error) {
	var count int64
	err := r.db.Table("group_permissions").Where("permission_id = ?", id).Count(&count).Error
	return count, err
}
