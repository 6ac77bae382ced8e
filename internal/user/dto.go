package user

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// CreateUserDTO is the payload for user creation. Avatar is an optional file
// reference; the upload itself is handled elsewhere.
type CreateUserDTO struct {
	Username string  `json:"nome_usuario"`
	Name     string  `json:"nome_pessoa"`
	Password string  `json:"senha"`
	Email    string  `json:"email"`
	Avatar   string  `json:"avatar,omitempty"`
	Groups   []int64 `json:"grupos"`
}

func (d CreateUserDTO) Validate() error {
	if d.Username == "" {
		return ValidationError{Msg: "nome_usuario is required"}
	}
	if d.Name == "" {
		return ValidationError{Msg: "nome_pessoa is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "senha is required"}
	}
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	return nil
}

// PatchGroupsDTO replaces a user's group memberships.
type PatchGroupsDTO struct {
	Groups []int64 `json:"grupos"`
}

// PatchStatusDTO activates or deactivates an account.
type PatchStatusDTO struct {
	Active *bool `json:"ativo"`
}

func (d PatchStatusDTO) Validate() error {
	if d.Active == nil {
		return ValidationError{Msg: "ativo is required"}
	}
	return nil
}

// PatchAvatarDTO updates the avatar file reference.
type PatchAvatarDTO struct {
	Filename string `json:"avatar"`
}

func (d PatchAvatarDTO) Validate() error {
	if d.Filename == "" {
		return ValidationError{Msg: "avatar is required"}
	}
	return nil
}

// PatchPasswordDTO carries the new password and its confirmation.
type PatchPasswordDTO struct {
	Password        string `json:"senha"`
	PasswordConfirm string `json:"senha_confirmacao"`
}

func (d PatchPasswordDTO) Validate() error {
	if d.Password == "" {
		return ValidationError{Msg: "senha is required"}
	}
	return nil
}
