package group

type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// GroupDTO is the create and patch payload. PermissionIDs replaces the
// group's permission set wholesale.
type GroupDTO struct {
	Name          string  `json:"nome_grupo"`
	PermissionIDs []int64 `json:"permissoes_id"`
}

func (d GroupDTO) Validate() error {
	if d.Name == "" {
		return ValidationError{Msg: "nome_grupo is required"}
	}
	return nil
}
