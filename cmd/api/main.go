package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jobadwizard/backend/internal/config"
	"github.com/jobadwizard/backend/internal/handler"
	"github.com/jobadwizard/backend/internal/handler/page"
	wizardHandler "github.com/jobadwizard/backend/internal/handler/wizard"
	"github.com/jobadwizard/backend/internal/logging"
	"github.com/jobadwizard/backend/internal/metrics"
	"github.com/jobadwizard/backend/internal/model/locale"
	"github.com/jobadwizard/backend/internal/model/wizard"
	"github.com/jobadwizard/backend/internal/service/ai"
	wizardService "github.com/jobadwizard/backend/internal/service/wizard"
	"github.com/jobadwizard/backend/internal/storage/redisstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	locales, err := locale.Builtin(cfg.Generation.DefaultLocale)
	if err != nil {
		logger.Fatal("failed to load locales", zap.Error(err))
	}

	store, closeStore := newSessionStore(ctx, cfg.Session, logger)
	defer closeStore()

	generator := ai.NewGenerator(ctx, cfg, logger)
	collector := metrics.NewCollector("jobad")

	svc := wizardService.NewService(store, locales, generator, wizardService.Options{
		Timeout: cfg.Generation.Timeout,
		Metrics: collector,
		Logger:  logger,
	})

	router := handler.NewRouter(wizardHandler.New(svc, logger), page.New(), handler.RouterOptions{
		CORSOrigins:     cfg.Server.CORSOrigins,
		Metrics:         collector,
		GenerationState: func() string { return generator.State().String() },
	})

	startServer(ctx, cfg.Server, router, logger)
}

func newSessionStore(ctx context.Context, cfg config.SessionConfig, logger *zap.Logger) (wizard.Store, func()) {
	if cfg.Store != config.StoreRedis {
		logger.Info("using in-memory session store")
		return wizard.NewMemoryStore(), func() {}
	}

	client, err := redisstore.Dial(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	logger.Info("using redis session store", zap.Duration("ttl", cfg.TTL))

	return redisstore.New(client, cfg.TTL, logger), func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("job ad wizard listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
