package group

import "github.com/raffops/auth-management/internal/core/datamodel/identity"

// PermissionRef is the nested permission view returned on group payloads.
type PermissionRef struct {
	ID   int64  `json:"id"`
	Name string `json:"nome_permissao"`
}

// Group is a named permission bundle. Users gain permissions only through
// group membership.
type Group struct {
	ID          int64           `json:"id"`
	Name        string          `json:"nome_grupo"`
	Permissions []PermissionRef `json:"permissoes"`
}

func FromDataModel(rec *identity.Group) *Group {
	perms := make([]PermissionRef, 0, len(rec.Permissions))
	for _, p := range rec.Permissions {
		perms = append(perms, PermissionRef{ID: p.ID, Name: p.Name})
	}
	return &Group{
		ID:          rec.ID,
		Name:        rec.Name,
		Permissions: perms,
	}
}
