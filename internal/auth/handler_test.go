package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/raffops/auth-management/internal/auth"
)

var _ = Describe("Auth Handler", func() {
	var (
		repo    *MockRepository
		codec   *auth.Codec
		mail    *MockMailer
		handler *auth.Handler
	)

	BeforeEach(func() {
		repo = NewMockRepository()
		mail = &MockMailer{}

		var err error
		codec, err = auth.NewCodec(testSecret, "HS256")
		Expect(err).NotTo(HaveOccurred())

		hasher := auth.NewBcryptHasher(bcrypt.MinCost)
		service := auth.NewService(repo, codec, hasher, auth.TokenConfig{
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
			ResetTTL:   15 * time.Minute,
		}, mail, "no-reply@localhost", "http://localhost/reset", nil)

		hash, err := hasher.Hash("s3cret")
		Expect(err).NotTo(HaveOccurred())
		repo.AddUser(&auth.User{ID: 1, Username: "alice", Email: "alice@mail.com", IsActive: true},
			hash, []string{"staff"}, []string{"read:grupo"})

		handler = auth.NewHandler(service)
	})

	loginRequest := func(username, password string) *httptest.ResponseRecorder {
		form := url.Values{}
		form.Set("username", username)
		form.Set("password", password)

		req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		handler.Token(w, req)
		return w
	}

	Describe("POST /token", func() {
		It("should return a token pair for valid credentials", func() {
			w := loginRequest("alice", "s3cret")
			Expect(w.Code).To(Equal(http.StatusOK))

			var pair auth.TokenPair
			Expect(json.NewDecoder(w.Body).Decode(&pair)).To(Succeed())
			Expect(pair.TokenType).To(Equal("bearer"))

			claims, err := codec.Decode(pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Subject).To(Equal("alice"))
		})

		It("should return 401 with the bearer challenge for bad credentials", func() {
			w := loginRequest("alice", "wrong")
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(w.Header().Get("WWW-Authenticate")).To(Equal("Bearer"))
		})

		It("should return 400 when a field is missing", func() {
			w := loginRequest("alice", "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("POST /refresh-token", func() {
		It("should exchange a refresh token for a new pair", func() {
			w := loginRequest("alice", "s3cret")
			var pair auth.TokenPair
			Expect(json.NewDecoder(w.Body).Decode(&pair)).To(Succeed())

			body, err := json.Marshal(map[string]string{"refresh_token": pair.RefreshToken})
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodPost, "/refresh-token", strings.NewReader(string(body)))
			rec := httptest.NewRecorder()
			handler.RefreshToken(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var refreshed auth.TokenPair
			Expect(json.NewDecoder(rec.Body).Decode(&refreshed)).To(Succeed())
			Expect(refreshed.AccessToken).NotTo(BeEmpty())
		})

		It("should return 401 for an invalid refresh token", func() {
			req := httptest.NewRequest(http.MethodPost, "/refresh-token",
				strings.NewReader(`{"refresh_token":"garbage"}`))
			rec := httptest.NewRecorder()
			handler.RefreshToken(rec, req)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("GET /token", func() {
		It("should return the public profile without group membership", func() {
			req := httptest.NewRequest(http.MethodGet, "/token", nil)
			req = req.WithContext(auth.ContextWithUser(req.Context(),
				&auth.User{ID: 1, Username: "alice", IsActive: true, Groups: []string{"staff"}}))
			rec := httptest.NewRecorder()
			handler.TokenInfo(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var body map[string]interface{}
			Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("nome_usuario", "alice"))
			Expect(body).To(HaveKeyWithValue("ativo", true))
			Expect(body).NotTo(HaveKey("grupos"))
		})

		It("should return 401 without a resolved user", func() {
			req := httptest.NewRequest(http.MethodGet, "/token", nil)
			rec := httptest.NewRecorder()
			handler.TokenInfo(rec, req)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("POST /forgot-password", func() {
		It("should accept a known email and dispatch the reset message", func() {
			req := httptest.NewRequest(http.MethodPost, "/forgot-password",
				strings.NewReader(`{"email":"alice@mail.com"}`))
			rec := httptest.NewRecorder()
			handler.ForgotPassword(rec, req)

			Expect(rec.Code).To(Equal(http.StatusAccepted))
			Expect(mail.Sent).To(Equal(1))
		})

		It("should accept an unknown email without dispatching anything", func() {
			req := httptest.NewRequest(http.MethodPost, "/forgot-password",
				strings.NewReader(`{"email":"nobody@mail.com"}`))
			rec := httptest.NewRecorder()
			handler.ForgotPassword(rec, req)

			Expect(rec.Code).To(Equal(http.StatusAccepted))
			Expect(mail.Sent).To(BeZero())
		})
	})
})
