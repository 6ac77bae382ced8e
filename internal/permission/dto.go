package permission

type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// PermissionDTO is the create and patch payload.
type PermissionDTO struct {
	Name string `json:"nome_permissao"`
}

func (d PermissionDTO) Validate() error {
	if d.Name == "" {
		return ValidationError{Msg: "nome_permissao is required"}
	}
	return nil
}
