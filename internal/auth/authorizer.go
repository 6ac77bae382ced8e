package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/raffops/auth-management/internal"
)

// Authorizer maps a request's bearer token to an authorization decision. Every
// check re-verifies the signature; nothing is cached between requests.
type Authorizer struct {
	codec  TokenCodec
	repo   Repository
	logger *slog.Logger
}

func NewAuthorizer(codec TokenCodec, repo Repository, logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{
		codec:  codec,
		repo:   repo,
		logger: logger,
	}
}

// TokenFromRequest extracts the credential from the Authorization header,
// falling back to the `token` query parameter. The bearer header wins when
// both are present.
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// HasPermissions reports whether the granted set satisfies every required
// permission. The wildcard satisfies any requirement, including sets it does
// not literally contain.
func HasPermissions(granted []string, required []string) bool {
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[p] = struct{}{}
	}
	if _, ok := set[WildcardPermission]; ok {
		return true
	}
	for _, p := range required {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}

// Authorize decides whether the request may proceed given a required
// permission set, returning the token's subject on success. The
// self-registration bootstrap scope bypasses the permission check entirely.
func (a *Authorizer) Authorize(r *http.Request, required ...string) (string, *internal.AppError) {
	raw := TokenFromRequest(r)
	if raw == "" {
		return "", internal.ErrMissingCredentials
	}

	claims, err := a.codec.Decode(raw)
	if err != nil {
		return "", internal.ErrInvalidToken
	}

	if claims.Scope == ScopeSelfRegister {
		return claims.Subject, nil
	}

	if claims.Scope != ScopeAccessToken {
		return "", internal.ErrInvalidToken
	}

	if !HasPermissions(claims.Permissions, required) {
		return "", internal.ErrInsufficientPermissions
	}
	return claims.Subject, nil
}

// RequirePermissions gates a route on a fixed required-permission list. All
// listed permissions must be satisfied (subset test, not any-of). The token's
// subject is placed in the request context for downstream handlers.
func (a *Authorizer) RequirePermissions(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, appErr := a.Authorize(r, required...)
			if appErr != nil {
				a.logger.Warn("access denied",
					"path", r.URL.Path,
					"required_permissions", required,
					"code", appErr.Code)
				writeDenied(w, appErr)
				return
			}
			next.ServeHTTP(w, r.WithContext(internal.ContextWithUsername(r.Context(), subject)))
		})
	}
}

// ResolveUser decodes the request's access token and loads the subject from
// the store. Any failure collapses into a generic credential error.
func (a *Authorizer) ResolveUser(r *http.Request) (*User, *internal.AppError) {
	raw := TokenFromRequest(r)
	if raw == "" {
		return nil, internal.ErrMissingCredentials
	}

	claims, err := a.codec.Decode(raw)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}

	if claims.Scope != ScopeAccessToken {
		return nil, internal.ErrInvalidToken
	}

	user, err := a.repo.GetUserByUsername(claims.Subject)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	return user, nil
}

// RequireActiveUser resolves the current user and denies with 403 when the
// account is deactivated. The resolved user is placed in the request context.
func (a *Authorizer) RequireActiveUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, appErr := a.ResolveUser(r)
			if appErr != nil {
				writeDenied(w, appErr)
				return
			}

			if !user.IsActive {
				a.logger.Warn("access denied: deactivated account", "username", user.Username)
				writeDenied(w, internal.ErrUserInactive)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireSuperuser denies unless the resolved user belongs to the reserved
// administrators group.
func (a *Authorizer) RequireSuperuser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, appErr := a.ResolveUser(r)
			if appErr != nil {
				writeDenied(w, appErr)
				return
			}

			if !user.IsSuperuser() {
				a.logger.Warn("access denied: not a superuser", "username", user.Username)
				writeDenied(w, internal.ErrNotSuperuser)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// AuthorizePasswordChange allows a password change for target when either a
// pwd_reset-scoped token whose subject matches the target is supplied, or the
// current session belongs to the target. Failures in the reset-token branch
// are swallowed and evaluation falls through to the session branch.
func (a *Authorizer) AuthorizePasswordChange(r *http.Request, target *User) *internal.AppError {
	if resetToken := r.URL.Query().Get("token"); resetToken != "" {
		claims, err := a.codec.Decode(resetToken)
		if err == nil && claims.Scope == ScopePasswordReset && claims.Subject == target.Username {
			return nil
		}
		// fall through: a bad reset token never aborts the session branch
	}

	user, appErr := a.ResolveUser(r)
	if appErr != nil {
		return appErr
	}
	if user.ID != target.ID {
		return internal.ErrInsufficientPermissions
	}
	return nil
}

// writeDenied renders an authorization failure as a structured response.
// Credential failures advertise the bearer challenge per RFC 6750.
func writeDenied(w http.ResponseWriter, appErr *internal.AppError) {
	if appErr.StatusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(internal.Response{Error: appErr})
}
