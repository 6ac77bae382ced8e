package user

import (
	"time"

	"github.com/raffops/auth-management/internal/core/datamodel/identity"
)

// User is the domain user with resolved group names. The password hash never
// leaves the repository layer on this struct.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"nome_usuario"`
	Name      string    `json:"nome_pessoa"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	IsActive  bool      `json:"ativo"`
	Groups    []string  `json:"grupos"`
	CreatedAt time.Time `json:"data_criacao"`
}

func FromDataModel(rec *identity.User) *User {
	groups := make([]string, 0, len(rec.Groups))
	for _, g := range rec.Groups {
		groups = append(groups, g.Name)
	}
	return &User{
		ID:        rec.ID,
		Username:  rec.Username,
		Name:      rec.Name,
		Email:     rec.Email,
		Avatar:    rec.Avatar,
		IsActive:  rec.IsActive,
		Groups:    groups,
		CreatedAt: rec.CreatedAt,
	}
}
