package auth

import (
	"context"
	"errors"
	"time"
)

// Token scopes. A token is only usable for the purpose its scope names:
// a refresh token cannot authorize an access-scoped action and vice versa.
const (
	ScopeAccessToken   = "access_token"
	ScopeRefreshToken  = "refresh_token"
	ScopePasswordReset = "pwd_reset"
	ScopeSelfRegister  = "auto_cadastro_usuario"
)

// WildcardPermission satisfies any permission requirement. AdminsGroup is the
// reserved group whose members hold the wildcard; both names are excluded from
// general listings and creation.
const (
	WildcardPermission = "all:all"
	AdminsGroup        = "admins"
)

// User is the authenticated identity as seen by the auth layer.
type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"nome_usuario"`
	Name     string   `json:"nome_pessoa"`
	Email    string   `json:"email"`
	Avatar   string   `json:"avatar,omitempty"`
	IsActive bool     `json:"ativo"`
	Groups   []string `json:"grupos,omitempty"`
}

func (u *User) IsSuperuser() bool {
	for _, g := range u.Groups {
		if g == AdminsGroup {
			return true
		}
	}
	return false
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// TokenCodec issues and verifies signed claim sets. Decode is atomic: there is
// no way to read claims without the signature and expiry checks passing first.
type TokenCodec interface {
	Issue(claims Claims, ttl time.Duration, scope string) (string, error)
	Decode(tokenString string) (*Claims, error)
}

// PasswordHasher is a slow, salted, one-way hash. Verify returns false for a
// malformed hash string, never an error.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// ErrUserNotFound is the Repository sentinel for a lookup that matched no
// user. Callers use it to tell an absent account apart from a store failure;
// any other error from the Repository means the store itself misbehaved.
var ErrUserNotFound = errors.New("user not found")

// Repository is the credential store collaborator.
type Repository interface {
	// GetUserGroupsPermissions resolves a user together with the names of the
	// groups they belong to and the deduplicated union of those groups'
	// permissions.
	GetUserGroupsPermissions(username string) (*User, []string, []string, error)
	// GetPasswordHash returns the stored password hash for username. The hash
	// never travels on the domain User struct.
	GetPasswordHash(username string) (string, error)
	GetUserByUsername(username string) (*User, error)
	GetUserByEmail(email string) (*User, error)
}

// Mailer dispatches outbound notifications. Delivery details live behind this
// interface; the auth service only builds the message.
type Mailer interface {
	Send(to, subject, body string) error
}

type ctxKey string

const ContextUserKey ctxKey = "user"

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}
