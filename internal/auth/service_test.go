package auth_test

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/raffops/auth-management/internal"
	"github.com/raffops/auth-management/internal/auth"
)

// MockRepository implements auth.Repository backed by in-memory maps.
type MockRepository struct {
	users       map[string]*auth.User
	hashes      map[string]string
	groups      map[string][]string
	permissions map[string][]string
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		users:       make(map[string]*auth.User),
		hashes:      make(map[string]string),
		groups:      make(map[string][]string),
		permissions: make(map[string][]string),
	}
}

func (m *MockRepository) AddUser(u *auth.User, passwordHash string, groups, permissions []string) {
	m.users[u.Username] = u
	m.hashes[u.Username] = passwordHash
	m.groups[u.Username] = groups
	m.permissions[u.Username] = permissions
}

func (m *MockRepository) GetUserGroupsPermissions(username string) (*auth.User, []string, []string, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, nil, nil, auth.ErrUserNotFound
	}
	return u, m.groups[username], m.permissions[username], nil
}

func (m *MockRepository) GetPasswordHash(username string) (string, error) {
	hash, ok := m.hashes[username]
	if !ok {
		return "", auth.ErrUserNotFound
	}
	return hash, nil
}

func (m *MockRepository) GetUserByUsername(username string) (*auth.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

func (m *MockRepository) GetUserByEmail(email string) (*auth.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

// FailingRepository simulates a credential store outage: every lookup fails
// with a connectivity error, never with the not-found sentinel.
type FailingRepository struct {
	Err error
}

func (f *FailingRepository) GetUserGroupsPermissions(string) (*auth.User, []string, []string, error) {
	return nil, nil, nil, f.Err
}

func (f *FailingRepository) GetPasswordHash(string) (string, error) { return "", f.Err }

func (f *FailingRepository) GetUserByUsername(string) (*auth.User, error) { return nil, f.Err }

func (f *FailingRepository) GetUserByEmail(string) (*auth.User, error) { return nil, f.Err }

// MockMailer records the last message it was handed.
type MockMailer struct {
	To      string
	Subject string
	Body    string
	Sent    int
	Err     error
}

func (m *MockMailer) Send(to, subject, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.To = to
	m.Subject = subject
	m.Body = body
	m.Sent++
	return nil
}

var _ = Describe("Auth Service", func() {
	var (
		repo    *MockRepository
		codec   *auth.Codec
		hasher  *auth.BcryptHasher
		mail    *MockMailer
		service *auth.Service
		logger  *slog.Logger
	)

	passwordHash := func(plain string) string {
		hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		return string(hash)
	}

	BeforeEach(func() {
		repo = NewMockRepository()
		mail = &MockMailer{}
		hasher = auth.NewBcryptHasher(bcrypt.MinCost)
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		var err error
		codec, err = auth.NewCodec(testSecret, "HS256")
		Expect(err).NotTo(HaveOccurred())

		service = auth.NewService(repo, codec, hasher, auth.TokenConfig{
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
			ResetTTL:   15 * time.Minute,
		}, mail, "no-reply@localhost", "http://localhost/reset", logger)
	})

	Describe("Authenticate", func() {
		BeforeEach(func() {
			repo.AddUser(&auth.User{ID: 1, Username: "alice", Email: "alice@mail.com", IsActive: true},
				passwordHash("s3cret"),
				[]string{"staff", "finance"},
				[]string{"read:grupo", "read:permissao"})
		})

		It("should resolve the user with groups and permissions", func() {
			user, groups, permissions, err := service.Authenticate("alice", "s3cret")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Username).To(Equal("alice"))
			Expect(groups).To(ConsistOf("staff", "finance"))
			Expect(permissions).To(ConsistOf("read:grupo", "read:permissao"))
		})

		It("should fail identically for an unknown user and a wrong password", func() {
			_, _, _, unknownErr := service.Authenticate("nobody", "s3cret")
			_, _, _, wrongErr := service.Authenticate("alice", "wrong")
			Expect(unknownErr).To(MatchError(internal.ErrInvalidCredentials))
			Expect(wrongErr).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("should authenticate a deactivated account", func() {
			repo.AddUser(&auth.User{ID: 2, Username: "bob", IsActive: false},
				passwordHash("pw"), nil, nil)

			user, _, _, err := service.Authenticate("bob", "pw")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.IsActive).To(BeFalse())
		})

		It("should surface a store outage as a server fault, not a credential failure", func() {
			down := auth.NewService(&FailingRepository{
				Err: errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
			}, codec, hasher, auth.TokenConfig{
				AccessTTL:  time.Minute,
				RefreshTTL: time.Hour,
				ResetTTL:   15 * time.Minute,
			}, mail, "no-reply@localhost", "http://localhost/reset", logger)

			_, err := down.Login("alice", "s3cret")
			Expect(err).To(HaveOccurred())
			Expect(err).NotTo(MatchError(internal.ErrInvalidCredentials))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(500))
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			repo.AddUser(&auth.User{ID: 1, Username: "alice", IsActive: true},
				passwordHash("s3cret"),
				[]string{"staff"},
				[]string{"read:grupo"})
		})

		It("should mint an access token carrying the permission snapshot", func() {
			pair, err := service.Login("alice", "s3cret")
			Expect(err).NotTo(HaveOccurred())
			Expect(pair.TokenType).To(Equal("bearer"))

			claims, err := codec.Decode(pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Scope).To(Equal(auth.ScopeAccessToken))
			Expect(claims.Subject).To(Equal("alice"))
			Expect(claims.Groups).To(ConsistOf("staff"))
			Expect(claims.Permissions).To(ConsistOf("read:grupo"))
			Expect(claims.Fresh).To(BeTrue())
		})

		It("should mint a refresh token carrying only the subject", func() {
			pair, err := service.Login("alice", "s3cret")
			Expect(err).NotTo(HaveOccurred())

			claims, err := codec.Decode(pair.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Scope).To(Equal(auth.ScopeRefreshToken))
			Expect(claims.Subject).To(Equal("alice"))
			Expect(claims.Groups).To(BeEmpty())
			Expect(claims.Permissions).To(BeEmpty())
		})

		It("should expire the tokens at their configured lifetimes", func() {
			pair, err := service.Login("alice", "s3cret")
			Expect(err).NotTo(HaveOccurred())

			access, err := codec.Decode(pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(access.ExpiresAt.Time).To(BeTemporally("~", time.Now().Add(time.Minute), time.Second))

			refresh, err := codec.Decode(pair.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(refresh.ExpiresAt.Time).To(BeTemporally("~", time.Now().Add(time.Hour), time.Second))
		})

		It("should propagate credential failures", func() {
			_, err := service.Login("alice", "wrong")
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})
	})

	Describe("Refresh", func() {
		var refreshToken string

		BeforeEach(func() {
			repo.AddUser(&auth.User{ID: 1, Username: "alice", IsActive: true},
				passwordHash("s3cret"),
				[]string{"staff"},
				[]string{"read:grupo"})

			pair, err := service.Login("alice", "s3cret")
			Expect(err).NotTo(HaveOccurred())
			refreshToken = pair.RefreshToken
		})

		It("should issue a fresh pair from a refresh-scoped token", func() {
			pair, err := service.Refresh(refreshToken)
			Expect(err).NotTo(HaveOccurred())

			claims, err := codec.Decode(pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Scope).To(Equal(auth.ScopeAccessToken))
			Expect(claims.Subject).To(Equal("alice"))
		})

		It("should not re-embed groups or permissions in the new access token", func() {
			pair, err := service.Refresh(refreshToken)
			Expect(err).NotTo(HaveOccurred())

			claims, err := codec.Decode(pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Groups).To(BeEmpty())
			Expect(claims.Permissions).To(BeEmpty())
		})

		It("should reject an access-scoped token", func() {
			pair, err := service.Login("alice", "s3cret")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Refresh(pair.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("should reject garbage", func() {
			_, err := service.Refresh("garbage")
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})
	})

	Describe("SendPasswordReset", func() {
		BeforeEach(func() {
			repo.AddUser(&auth.User{ID: 1, Username: "alice", Name: "Alice", Email: "alice@mail.com", IsActive: true},
				passwordHash("s3cret"), nil, nil)
		})

		It("should mail a reset link carrying a pwd_reset-scoped token", func() {
			Expect(service.SendPasswordReset("alice@mail.com")).To(Succeed())
			Expect(mail.Sent).To(Equal(1))
			Expect(mail.To).To(Equal("alice@mail.com"))
			Expect(mail.Body).To(ContainSubstring("http://localhost/reset?token="))

			// pull the token back out of the link and verify its scope
			start := strings.Index(mail.Body, "?token=") + len("?token=")
			end := strings.IndexByte(mail.Body[start:], '\n') + start
			claims, err := codec.Decode(mail.Body[start:end])
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Scope).To(Equal(auth.ScopePasswordReset))
			Expect(claims.Subject).To(Equal("alice"))
		})

		It("should be a silent no-op for an unknown email", func() {
			Expect(service.SendPasswordReset("nobody@mail.com")).To(Succeed())
			Expect(mail.Sent).To(BeZero())
		})

		It("should surface mailer failures", func() {
			mail.Err = errors.New("smtp down")
			Expect(service.SendPasswordReset("alice@mail.com")).NotTo(Succeed())
		})

		It("should surface a store outage instead of treating it as an unknown email", func() {
			down := auth.NewService(&FailingRepository{Err: errors.New("connection refused")},
				codec, hasher, auth.TokenConfig{
					AccessTTL:  time.Minute,
					RefreshTTL: time.Hour,
					ResetTTL:   15 * time.Minute,
				}, mail, "no-reply@localhost", "http://localhost/reset", logger)

			Expect(down.SendPasswordReset("alice@mail.com")).NotTo(Succeed())
		})
	})
})
