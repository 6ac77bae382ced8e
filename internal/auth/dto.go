package auth

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// LoginForm is the form-encoded credential pair accepted by POST /token.
type LoginForm struct {
	Username string
	Password string
}

func (f LoginForm) Validate() error {
	if f.Username == "" {
		return ValidationError{Msg: "username is required"}
	}
	if f.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

// UserResponse is the public profile returned by GET /token. Group membership
// never rides on this shape; clients read it from the token claims.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"nome_usuario"`
	Name     string `json:"nome_pessoa"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
	IsActive bool   `json:"ativo"`
}

func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Avatar:   u.Avatar,
		IsActive: u.IsActive,
	}
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return ValidationError{Msg: "refresh_token is required"}
	}
	return nil
}

// ForgotPasswordDTO for password reset requests
type ForgotPasswordDTO struct {
	Email string `json:"email"`
}

func (d ForgotPasswordDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	return nil
}
