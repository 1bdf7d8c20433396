package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	domstorage "example.com/rocketshoes/app/internal/domain/storage"
	"example.com/rocketshoes/app/internal/infra/catalog"
	"example.com/rocketshoes/app/internal/infra/config"
	"example.com/rocketshoes/app/internal/infra/logging"
	"example.com/rocketshoes/app/internal/infra/notify"
	"example.com/rocketshoes/app/internal/infra/persistence/file"
	"example.com/rocketshoes/app/internal/infra/persistence/memory"
	"example.com/rocketshoes/app/internal/infra/persistence/mysql"
	"example.com/rocketshoes/app/internal/infra/persistence/postgres"
	"example.com/rocketshoes/app/internal/infra/persistence/redis"
	"example.com/rocketshoes/app/internal/infra/security"
	"example.com/rocketshoes/app/internal/infra/telemetry"
	apihttp "example.com/rocketshoes/app/internal/interface/http"
	sessionuc "example.com/rocketshoes/app/internal/usecase/session"
)

const version = "v1.0.0"

func main() {
	cfg := config.Load()
	log := logging.New(os.Stdout, logging.Options{
		Service: "rocketshoes-cart",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("exited")
	}
}

func run(cfg config.Config, log *logrus.Entry) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.Config{
		ServiceName: "rocketshoes-cart",
		Version:     version,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.WithError(err).Warn("shutdown tracing")
		}
	}()

	storage, closeStorage, err := openStorage(ctx, cfg, log.WithField("component", "storage"))
	if err != nil {
		return err
	}
	defer closeStorage()

	catalogClient, err := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout)
	if err != nil {
		return err
	}

	tokenSvc := security.NewJWTService(cfg.JWTSecret, cfg.SessionTTL)
	sessionSvc := sessionuc.NewService(
		tokenSvc,
		catalogClient,
		storage,
		func(sessionID string) sessionuc.Inbox {
			return notify.NewQueue(notify.DefaultCapacity, log.WithFields(logrus.Fields{
				"component":  "notify",
				"session_id": sessionID,
			}))
		},
		cfg.SessionIdleTimeout,
		log.WithField("component", "session"),
	)

	api := apihttp.NewAPI(apihttp.Dependencies{
		SessionService: sessionSvc,
		Logger:         log.WithField("component", "http"),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"storage": cfg.StorageDriver,
			"catalog": cfg.CatalogBaseURL,
		}).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessionSvc.RunEvictor(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStorage(ctx context.Context, cfg config.Config, log *logrus.Entry) (domstorage.Storage, func(), error) {
	noop := func() {}

	switch cfg.StorageDriver {
	case "memory":
		return memory.NewStorage(), noop, nil

	case "file":
		s, err := file.NewStorage(afero.NewOsFs(), cfg.StorageDir)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case "redis":
		client := redis.NewClient(cfg.RedisAddr)
		s := redis.NewStorage(client, redis.DefaultHash, log)
		if err := s.Initialize(ctx, 10); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return s, func() { _ = client.Close() }, nil

	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("mysql ping: %w", err)
		}
		repo := mysql.NewStorageRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("mysql migrate: %w", err)
		}
		return repo, func() { _ = db.Close() }, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pg ping: %w", err)
		}
		repo := postgres.NewStorageRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pg migrate: %w", err)
		}
		return repo, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}
