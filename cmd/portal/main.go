package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/intbank/portal/internal/api"
	"github.com/intbank/portal/internal/api/handler"
	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/ports"
	"github.com/intbank/portal/internal/core/service"
	"github.com/intbank/portal/internal/infrastructure/backend"
	"github.com/intbank/portal/internal/infrastructure/config"
	"github.com/intbank/portal/internal/infrastructure/db/memory"
	mongostore "github.com/intbank/portal/internal/infrastructure/db/mongo"
	redisstore "github.com/intbank/portal/internal/infrastructure/db/redis"
	"github.com/intbank/portal/internal/infrastructure/db/sealed"
	"github.com/intbank/portal/internal/infrastructure/queue"
	"github.com/intbank/portal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "portal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "portal",
	})

	store, checks, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// The backend client reads the bearer token from the session manager,
	// which the portal builds; tokens bridges the two.
	tokens := &tokenBridge{}
	client := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
	}, tokens, logger.Component("backend"))

	portal := service.NewPortal(client, store, service.PortalOptions{
		NoticeTTL:     cfg.Workflow.NoticeTTL,
		RedirectDelay: cfg.Workflow.RedirectDelay,
		Redirect: func(r domain.Route) {
			log.Info().Str("route", string(r)).Msg("redirect")
		},
	}, log)
	defer portal.Close()
	tokens.source = portal.Sessions

	if !cfg.PersistsSession() {
		log.Warn().Msg("SESSION_STORE=memory: the session is lost on restart")
	}
	if ok, err := portal.Sessions.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("could not restore persisted session")
	} else if ok {
		log.Info().Str("role", string(portal.Sessions.Role())).Msg("resumed persisted session")
	}

	if cfg.Workflow.PendingPollSchedule != "" {
		poller, err := queue.NewPoller(cfg.Workflow.PendingPollSchedule, portal.Approvals, portal.Sessions, logger.Component("poller"))
		if err != nil {
			return err
		}
		poller.Start(ctx)
		defer func() { <-poller.Stop().Done() }()
	}

	e := api.NewRouter(portal, checks, logger.Component("http"))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.Backend.URL).Str("session_store", cfg.Session.Store).Msg("portal listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Msg("shutting down")
	return e.Shutdown(shutdownCtx)
}

// openSessionStore selects the persistence behind the session and returns the
// readiness checks of its backing database.
func openSessionStore(ctx context.Context, cfg *config.Config) (ports.SessionStore, map[string]handler.Check, func(), error) {
	var (
		store  ports.SessionStore
		checks = map[string]handler.Check{}
		closer = func() {}
	)

	switch cfg.Session.Store {
	case config.StoreRedis:
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		store = redisstore.NewSessionStore(rdb, cfg.Session.KeyPrefix)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		closer = func() { _ = rdb.Close() }
	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		store = mongostore.NewSessionStore(db, cfg.Session.KeyPrefix+"default")
		checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		closer = func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
	default:
		store = memory.NewSessionStore()
	}

	if cfg.Session.Secret != "" {
		s, err := sealed.NewSessionStore(store, cfg.Session.Secret)
		if err != nil {
			closer()
			return nil, nil, nil, err
		}
		store = s
	}
	return store, checks, closer, nil
}

// tokenBridge lets the backend client be built before the session manager
// that owns the token.
type tokenBridge struct {
	source ports.TokenSource
}

func (b *tokenBridge) Token() string {
	if b.source == nil {
		return ""
	}
	return b.source.Token()
}
