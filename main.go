package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicreport-be/config"
	"civicreport-be/controllers"
	"civicreport-be/models"
	"civicreport-be/notifications"
	"civicreport-be/repository"
	"civicreport-be/routes"
	"civicreport-be/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found")
	}
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := config.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	redisClient, err := config.ConnectRedis(ctx, cfg.RedisAddress, cfg.RedisPassword)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	store := repository.New(client, cfg.MongoDatabase)
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := seedAdmin(ctx, store, cfg); err != nil {
		return err
	}

	var notifier services.Notifier = notifications.Nop{}
	if cfg.NotifyEnabled {
		notifier = notifications.NewRedisPublisher(redisClient, cfg.NotifyChannel)
	}

	accounts := services.NewAccountService(store, store)
	issues := services.NewIssueService(store)
	lifecycle := services.NewIssueLifecycle(store, notifier)
	ledger := services.NewVotingLedger(store)
	bulk := services.NewBulkMutator(store)
	analytics := services.NewAnalyticsAggregator(store)
	comments := services.NewCommentService(store, notifier)

	r := gin.Default()
	routes.Setup(r, routes.Dependencies{
		Auth: controllers.NewAuthController(accounts, cfg.JWTSecret, cfg.JWTTTL, controllers.CookieSettings{
			Domain:     cfg.CookieDomain,
			Production: cfg.IsProduction(),
		}),
		Issues:    controllers.NewIssueController(issues, lifecycle, ledger),
		Comments:  controllers.NewCommentController(comments),
		Users:     controllers.NewUserController(accounts),
		Admin:     controllers.NewAdminController(issues, lifecycle, bulk, analytics),
		Analytics: controllers.NewAnalyticsController(analytics),
		DB:        store,

		JWTSecret:        cfg.JWTSecret,
		Resolver:         services.NewPrincipalResolver(store, store),
		Redis:            redisClient,
		IssueLimitQueue:  cfg.IssueLimitQueue,
		IssueDailyLimit:  cfg.IssueDailyLimit,
		FrontendURL:      cfg.FrontendURL,
		MaxContentLength: cfg.MaxContentLength,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// seedAdmin creates the bootstrap admin account when one is configured.
func seedAdmin(ctx context.Context, store *repository.Store, cfg config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}
	created, err := store.EnsureAdmin(ctx, &models.Admin{
		Username:  cfg.AdminUsername,
		Email:     cfg.AdminEmail,
		Password:  cfg.AdminPassword,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if created {
		slog.Info("created admin account", "username", cfg.AdminUsername)
	}
	return nil
}
