package permission

import "github.com/raffops/auth-management/internal/core/datamodel/identity"

// Permission is an atomic capability name, conventionally action:resource.
type Permission struct {
	ID   int64  `json:"id"`
	Name string `json:"nome_permissao"`
}

func FromDataModel(rec *identity.Permission) *Permission {
	return &Permission{ID: rec.ID, Name: rec.Name}
}
