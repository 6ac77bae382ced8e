package auth_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/raffops/auth-management/internal/auth"
)

var _ = Describe("Authorizer", func() {
	var (
		repo       *MockRepository
		codec      *auth.Codec
		authorizer *auth.Authorizer
	)

	issue := func(claims auth.Claims, scope string) string {
		token, err := codec.Issue(claims, time.Minute, scope)
		Expect(err).NotTo(HaveOccurred())
		return token
	}

	accessToken := func(subject string, permissions ...string) string {
		return issue(auth.Claims{
			Permissions: permissions,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: subject,
			},
		}, auth.ScopeAccessToken)
	}

	BeforeEach(func() {
		repo = NewMockRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		var err error
		codec, err = auth.NewCodec(testSecret, "HS256")
		Expect(err).NotTo(HaveOccurred())

		authorizer = auth.NewAuthorizer(codec, repo, logger)
	})

	Describe("TokenFromRequest", func() {
		It("should prefer the bearer header over the query parameter", func() {
			r := httptest.NewRequest(http.MethodGet, "/grupos?token=from-query", nil)
			r.Header.Set("Authorization", "Bearer from-header")
			Expect(auth.TokenFromRequest(r)).To(Equal("from-header"))
		})

		It("should accept a case-insensitive bearer prefix", func() {
			r := httptest.NewRequest(http.MethodGet, "/grupos", nil)
			r.Header.Set("Authorization", "bearer abc")
			Expect(auth.TokenFromRequest(r)).To(Equal("abc"))
		})

		It("should fall back to the token query parameter", func() {
			r := httptest.NewRequest(http.MethodGet, "/grupos?token=from-query", nil)
			Expect(auth.TokenFromRequest(r)).To(Equal("from-query"))
		})

		It("should reject a non-bearer authorization header without falling back", func() {
			r := httptest.NewRequest(http.MethodGet, "/grupos?token=from-query", nil)
			r.Header.Set("Authorization", "Basic dXNlcjpwdw==")
			Expect(auth.TokenFromRequest(r)).To(BeEmpty())
		})
	})

	Describe("HasPermissions", func() {
		It("should satisfy any requirement with the wildcard", func() {
			Expect(auth.HasPermissions([]string{auth.WildcardPermission}, []string{"read:grupo", "update:grupo"})).To(BeTrue())
		})

		It("should require every listed permission", func() {
			granted := []string{"read:grupo"}
			Expect(auth.HasPermissions(granted, []string{"read:grupo"})).To(BeTrue())
			Expect(auth.HasPermissions(granted, []string{"read:grupo", "update:grupo"})).To(BeFalse())
		})

		It("should allow an empty requirement set", func() {
			Expect(auth.HasPermissions(nil, nil)).To(BeTrue())
		})
	})

	Describe("RequirePermissions", func() {
		var handler http.Handler

		BeforeEach(func() {
			handler = authorizer.RequirePermissions("read:grupo")(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				}))
		})

		It("should deny without credentials and advertise the bearer challenge", func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/grupos", nil))
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(w.Header().Get("WWW-Authenticate")).To(Equal("Bearer"))
		})

		It("should allow a token holding the required permission", func() {
			r := httptest.NewRequest(http.MethodGet, "/grupos", nil)
			r.Header.Set("Authorization", "Bearer "+accessToken("alice", "read:grupo"))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("should allow the wildcard holder", func() {
			r := httptest.NewRequest(http.MethodGet, "/grupos", nil)
			r.Header.Set("Authorization", "Bearer "+accessToken("admin", auth.WildcardPermission))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("should deny a strict subset of the requirement", func() {
			strict := authorizer.RequirePermissions("read:grupo", "update:grupo")(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				}))
			r := httptest.NewRequest(http.MethodGet, "/grupos", nil)
			r.Header.Set("Authorization", "Bearer "+accessToken("alice", "read:grupo"))
			w := httptest.NewRecorder()
			strict.ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should allow the self-registration scope unconditionally", func() {
			token := issue(auth.Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "bootstrap"},
			}, auth.ScopeSelfRegister)

			r := httptest.NewRequest(http.MethodPost, "/usuarios", nil)
			r.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("should reject a refresh-scoped token", func() {
			token := issue(auth.Claims{
				Permissions:      []string{"read:grupo"},
				RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
			}, auth.ScopeRefreshToken)

			r := httptest.NewRequest(http.MethodGet, "/grupos", nil)
			r.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should accept the token from the query parameter", func() {
			r := httptest.NewRequest(http.MethodGet, "/grupos?token="+accessToken("alice", "read:grupo"), nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("RequireActiveUser", func() {
		var handler http.Handler

		BeforeEach(func() {
			handler = authorizer.RequireActiveUser()(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					user, ok := auth.UserFromContext(r.Context())
					Expect(ok).To(BeTrue())
					Expect(user).NotTo(BeNil())
					w.WriteHeader(http.StatusOK)
				}))
		})

		It("should pass an active user through and expose it in context", func() {
			repo.AddUser(&auth.User{ID: 1, Username: "alice", IsActive: true}, "", nil, nil)
			r := httptest.NewRequest(http.MethodGet, "/token", nil)
			r.Header.Set("Authorization", "Bearer "+accessToken("alice"))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("should deny a deactivated account with 403", func() {
			repo.AddUser(&auth.User{ID: 1, Username: "alice", IsActive: false}, "", nil, nil)
			r := httptest.NewRequest(http.MethodGet, "/token", nil)
			r.Header.Set("Authorization", "Bearer "+accessToken("alice"))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("should deny when the subject no longer exists", func() {
			r := httptest.NewRequest(http.MethodGet, "/token", nil)
			r.Header.Set("Authorization", "Bearer "+accessToken("ghost"))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("RequireSuperuser", func() {
		var handler http.Handler

		BeforeEach(func() {
			handler = authorizer.RequireSuperuser()(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				}))
		})

		It("should allow a member of the administrators group", func() {
			repo.AddUser(&auth.User{ID: 1, Username: "root", IsActive: true, Groups: []string{auth.AdminsGroup}}, "", nil, nil)
			r := httptest.NewRequest(http.MethodPatch, "/usuarios/2/status", nil)
			r.Header.Set("Authorization", "Bearer "+accessToken("root"))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("should deny everyone else with 401", func() {
			repo.AddUser(&auth.User{ID: 1, Username: "alice", IsActive: true, Groups: []string{"staff"}}, "", nil, nil)
			r := httptest.NewRequest(http.MethodPatch, "/usuarios/2/status", nil)
			r.Header.Set("Authorization", "Bearer "+accessToken("alice"))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("AuthorizePasswordChange", func() {
		target := &auth.User{ID: 7, Username: "alice"}

		It("should allow a reset token whose subject matches the target", func() {
			token := issue(auth.Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
			}, auth.ScopePasswordReset)

			r := httptest.NewRequest(http.MethodPatch, "/usuarios/7/senha?token="+token, nil)
			Expect(authorizer.AuthorizePasswordChange(r, target)).To(BeNil())
		})

		It("should fall through to the session branch on a bad reset token", func() {
			repo.AddUser(&auth.User{ID: 7, Username: "alice", IsActive: true}, "", nil, nil)

			r := httptest.NewRequest(http.MethodPatch, "/usuarios/7/senha?token=garbage", nil)
			r.Header.Set("Authorization", "Bearer "+accessToken("alice"))
			Expect(authorizer.AuthorizePasswordChange(r, target)).To(BeNil())
		})

		It("should ignore a reset token naming a different subject", func() {
			token := issue(auth.Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "mallory"},
			}, auth.ScopePasswordReset)

			r := httptest.NewRequest(http.MethodPatch, "/usuarios/7/senha?token="+token, nil)
			appErr := authorizer.AuthorizePasswordChange(r, target)
			Expect(appErr).NotTo(BeNil())
		})

		It("should allow the target's own session", func() {
			repo.AddUser(&auth.User{ID: 7, Username: "alice", IsActive: true}, "", nil, nil)

			r := httptest.NewRequest(http.MethodPatch, "/usuarios/7/senha", nil)
			r.Header.Set("Authorization", "Bearer "+accessToken("alice"))
			Expect(authorizer.AuthorizePasswordChange(r, target)).To(BeNil())
		})

		It("should deny another user's session", func() {
			repo.AddUser(&auth.User{ID: 8, Username: "bob", IsActive: true}, "", nil, nil)

			r := httptest.NewRequest(http.MethodPatch, "/usuarios/7/senha", nil)
			r.Header.Set("Authorization", "Bearer "+accessToken("bob"))
			appErr := authorizer.AuthorizePasswordChange(r, target)
			Expect(appErr).NotTo(BeNil())
			Expect(appErr.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("should deny without any credentials", func() {
			r := httptest.NewRequest(http.MethodPatch, "/usuarios/7/senha", nil)
			appErr := authorizer.AuthorizePasswordChange(r, target)
			Expect(appErr).NotTo(BeNil())
		})
	})
})
