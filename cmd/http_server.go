package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/raffops/auth-management/internal"
	"github.com/raffops/auth-management/internal/auth"
	authstore "github.com/raffops/auth-management/internal/auth/postgres"
	"github.com/raffops/auth-management/internal/group"
	groupstore "github.com/raffops/auth-management/internal/group/postgres"
	"github.com/raffops/auth-management/internal/mailer"
	"github.com/raffops/auth-management/internal/permission"
	permissionstore "github.com/raffops/auth-management/internal/permission/postgres"
	"github.com/raffops/auth-management/internal/transport/rest"
	"github.com/raffops/auth-management/internal/user"
	userstore "github.com/raffops/auth-management/internal/user/postgres"
	"github.com/raffops/auth-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm rides on the already-verified pgx connection pool.
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	codec, err := auth.NewCodec(config.Security.JWTSecret, config.Security.JWTAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to build token codec: %w", err)
	}
	hasher := auth.NewBcryptHasher(config.Security.BCryptCost)

	authRepo := authstore.NewRepository(gormDB)
	authService := auth.NewService(
		authRepo,
		codec,
		hasher,
		auth.TokenConfig{
			AccessTTL:  config.Security.AccessTokenDuration,
			RefreshTTL: config.Security.RefreshTokenDuration,
			ResetTTL:   config.Security.ResetTokenDuration,
		},
		mailer.NewDebugMailer("", lg),
		config.Mail.Sender,
		config.Mail.PasswordResetURL,
		lg,
	)
	authorizer := auth.NewAuthorizer(codec, authRepo, lg)
	authHandler := auth.NewHandler(authService)

	userService := user.NewService(userstore.NewRepository(gormDB), hasher, lg)
	userHandler := user.NewHandler(userService, authorizer)

	groupService := group.NewService(groupstore.NewRepository(gormDB), lg)
	groupHandler := group.NewHandler(groupService)

	permissionService := permission.NewService(permissionstore.NewRepository(gormDB), lg)
	permissionHandler := permission.NewHandler(permissionService)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, authorizer, authHandler, userHandler, groupHandler, permissionHandler, lg)

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		Router: router,
	}, nil
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
