package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/raffops/auth-management/internal"
)

// TokenConfig carries the configured token lifetimes, injected at
// construction.
type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
}

// Service orchestrates authentication and the token lifecycle: it verifies
// credentials against the store and mints access/refresh token pairs.
type Service struct {
	repo     Repository
	codec    TokenCodec
	hasher   PasswordHasher
	tokens   TokenConfig
	mailer   Mailer
	sender   string
	resetURL string
	logger   *slog.Logger
}

func NewService(repo Repository, codec TokenCodec, hasher PasswordHasher, tokens TokenConfig, mailer Mailer, sender, resetURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		codec:    codec,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
		sender:   sender,
		resetURL: resetURL,
		logger:   logger,
	}
}

// Authenticate verifies a username/password pair and resolves the user's
// groups and the deduplicated union of their permissions. A missing user and a
// wrong password fail identically; any other store error is a server fault and
// must not masquerade as a credential failure.
//
// The active flag is deliberately not checked here: login succeeds for a
// deactivated account and only subsequent authorization rejects it.
func (s *Service) Authenticate(username, password string) (*User, []string, []string, error) {
	user, groups, permissions, err := s.repo.GetUserGroupsPermissions(username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, nil, internal.ErrInvalidCredentials
		}
		return nil, nil, nil, internal.NewInternalError("credential store lookup failed", err)
	}

	hash, err := s.repo.GetPasswordHash(username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, nil, internal.ErrInvalidCredentials
		}
		return nil, nil, nil, internal.NewInternalError("credential store lookup failed", err)
	}

	if !s.hasher.Verify(password, hash) {
		return nil, nil, nil, internal.ErrInvalidCredentials
	}

	return user, groups, permissions, nil
}

// Login authenticates and mints a token pair. The access token carries the
// subject plus group and permission snapshots; the refresh token carries only
// the subject so a long-lived token never embeds a stale permission set.
func (s *Service) Login(username, password string) (TokenPair, error) {
	user, groups, permissions, err := s.Authenticate(username, password)
	if err != nil {
		return TokenPair{}, err
	}

	accessToken, err := s.codec.Issue(Claims{
		Groups:      groups,
		Permissions: permissions,
		Fresh:       true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.Username,
		},
	}, s.tokens.AccessTTL, ScopeAccessToken)
	if err != nil {
		return TokenPair{}, internal.NewInternalError("failed to issue access token", err)
	}

	refreshToken, err := s.codec.Issue(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.Username,
		},
	}, s.tokens.RefreshTTL, ScopeRefreshToken)
	if err != nil {
		return TokenPair{}, internal.NewInternalError("failed to issue refresh token", err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

// Refresh re-issues a token pair from a refresh-scoped token. The new access
// token carries only the subject; the permission snapshot is not re-derived
// here, so a refreshed session runs without embedded permissions until the
// next full login.
func (s *Service) Refresh(refreshToken string) (TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return TokenPair{}, internal.ErrInvalidToken
	}

	if claims.Scope != ScopeRefreshToken {
		return TokenPair{}, internal.ErrInvalidToken
	}

	accessToken, err := s.codec.Issue(Claims{
		Fresh: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: claims.Subject,
		},
	}, s.tokens.AccessTTL, ScopeAccessToken)
	if err != nil {
		return TokenPair{}, internal.NewInternalError("failed to issue access token", err)
	}

	newRefreshToken, err := s.codec.Issue(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: claims.Subject,
		},
	}, s.tokens.RefreshTTL, ScopeRefreshToken)
	if err != nil {
		return TokenPair{}, internal.NewInternalError("failed to issue refresh token", err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "bearer",
	}, nil
}

// SendPasswordReset issues a pwd_reset-scoped token for the account registered
// under email and hands the message to the mailer. An unknown email is a
// silent no-op so the endpoint cannot be used to probe for accounts.
func (s *Service) SendPasswordReset(email string) error {
	user, err := s.repo.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return internal.NewInternalError("credential store lookup failed", err)
	}

	resetToken, err := s.codec.Issue(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.Username,
		},
	}, s.tokens.ResetTTL, ScopePasswordReset)
	if err != nil {
		return internal.NewInternalError("failed to issue reset token", err)
	}

	body := fmt.Sprintf(passwordResetMessage,
		s.sender, user.Name, s.resetURL, resetToken, int(s.tokens.ResetTTL.Minutes()))

	if err := s.mailer.Send(user.Email, "Password reset", body); err != nil {
		return internal.NewInternalError("failed to send reset email", err)
	}

	s.logger.Info("password reset token issued", "username", user.Username)
	return nil
}

const passwordResetMessage = `From: auth-management <%s>
To: %s
Subject: Password reset

Use the following link to reset your password:
%s?token=%s

This link expires in %d minutes.
`
