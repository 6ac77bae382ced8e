package identity

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"column:username;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Avatar       string    `gorm:"column:avatar"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	Groups       []Group   `gorm:"many2many:user_groups"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

type Group struct {
	ID          int64        `gorm:"primaryKey"`
	Name        string       `gorm:"column:name;uniqueIndex;not null"`
	Permissions []Permission `gorm:"many2many:group_permissions"`
	Users       []User       `gorm:"many2many:user_groups"`
}

type Permission struct {
	ID     int64   `gorm:"primaryKey"`
	Name   string  `gorm:"column:name;uniqueIndex;not null"`
	Groups []Group `gorm:"many2many:group_permissions"`
}

func (User) TableName() string       { return "users" }
func (Group) TableName() string      { return "groups" }
func (Permission) TableName() string { return "permissions" }
