package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/raffops/auth-management/internal/auth"
	"github.com/raffops/auth-management/internal/group"
	"github.com/raffops/auth-management/internal/permission"
	"github.com/raffops/auth-management/internal/transport/middleware"
	"github.com/raffops/auth-management/internal/transport/swagger"
	"github.com/raffops/auth-management/internal/user"
)

// RegisterAllRoutes mounts the whole HTTP surface. Route-level guards come
// from the authorizer; permission names follow the action:resource convention.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authorizer *auth.Authorizer,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	groupHandler *group.Handler,
	permissionHandler *permission.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Get("/health", healthHandler.healthCheckHandler)
	router.Get("/ping", healthHandler.pingHandler)

	// Session routes. GET /token doubles as a token validity probe for the
	// authenticated user.
	router.Post("/token", authHandler.Token)
	router.With(authorizer.RequireActiveUser()).Get("/token", authHandler.TokenInfo)
	router.Post("/refresh-token", authHandler.RefreshToken)
	router.Post("/forgot-password", authHandler.ForgotPassword)

	router.Route("/usuarios", func(r chi.Router) {
		r.Get("/", userHandler.List)
		// The self-registration scope passes this gate without holding the
		// permission.
		r.With(authorizer.RequirePermissions("add:usuario")).Post("/", userHandler.Create)

		r.With(authorizer.RequireActiveUser()).Get("/me", userHandler.Me)

		r.Route("/{id}", func(ur chi.Router) {
			ur.Get("/", userHandler.Get)
			ur.Patch("/grupos", userHandler.PatchGroups)
			ur.With(authorizer.RequireSuperuser()).Patch("/status", userHandler.PatchStatus)
			ur.With(authorizer.RequireActiveUser()).Patch("/avatar", userHandler.PatchAvatar)
			// Password changes carry their own guard inside the handler so the
			// reset-token path works without a live session.
			ur.Patch("/senha", userHandler.PatchPassword)
		})
	})

	router.Route("/grupos", func(r chi.Router) {
		r.With(authorizer.RequirePermissions("read:grupo")).Get("/", groupHandler.List)
		r.With(authorizer.RequirePermissions("add:grupo")).Post("/", groupHandler.Create)
		r.With(authorizer.RequirePermissions("update:grupo")).Patch("/{id}", groupHandler.Patch)
		r.With(authorizer.RequirePermissions("delete:grupo")).Delete("/{id}", groupHandler.Delete)
	})

	router.Route("/permissoes", func(r chi.Router) {
		r.With(authorizer.RequirePermissions("read:permissao")).Get("/", permissionHandler.List)
		r.With(authorizer.RequirePermissions("read:permissao")).Get("/{id}", permissionHandler.Get)
		r.With(authorizer.RequirePermissions("add:permissao")).Post("/", permissionHandler.Create)
		r.With(authorizer.RequirePermissions("update:permissao")).Patch("/{id}", permissionHandler.Patch)
		r.With(authorizer.RequirePermissions("delete:permissao")).Delete("/{id}", permissionHandler.Delete)
	})
}
