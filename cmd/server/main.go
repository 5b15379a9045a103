package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	adminhandler "employee-compass/internal/admin/handler"
	adminservice "employee-compass/internal/admin/service"
	adminmemory "employee-compass/internal/admin/store/memory"
	"employee-compass/internal/events"
	"employee-compass/internal/events/bus"
	eventshandler "employee-compass/internal/events/handler"
	eventsservice "employee-compass/internal/events/service"
	eventsmemory "employee-compass/internal/events/store/memory"
	eventspostgres "employee-compass/internal/events/store/postgres"
	"employee-compass/internal/events/stream"
	"employee-compass/internal/events/worker"
	"employee-compass/internal/platform/config"
	"employee-compass/internal/platform/database"
	"employee-compass/internal/platform/httpserver"
	"employee-compass/internal/platform/logger"
	"employee-compass/internal/platform/metrics"
	"employee-compass/internal/platform/middleware"
	platformredis "employee-compass/internal/platform/redis"
	"employee-compass/internal/platform/token"
	"employee-compass/internal/rbac"
	rbaccache "employee-compass/internal/rbac/cache"
	rbachandler "employee-compass/internal/rbac/handler"
	rbacservice "employee-compass/internal/rbac/service"
	rbacmemory "employee-compass/internal/rbac/store/memory"
	rbacpostgres "employee-compass/internal/rbac/store/postgres"
	id "employee-compass/pkg/domain"
)

const persistInboxSize = 1024

// multiSaver fans one event out to every configured persistence sink.
// Sink failures are independent; one sink failing never skips the others.
type multiSaver []events.Saver

func (ms multiSaver) Save(ctx context.Context, event events.Event) error {
	var errs []error
	for _, s := range ms {
		if err := s.Save(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := bus.New(
		bus.WithLogger(log),
		bus.WithPanicHook(m.SubscriberPanics.Inc),
	)
	eventStore := eventsmemory.New()

	svcOpts := []eventsservice.Option{
		eventsservice.WithLogger(log),
		eventsservice.WithMetrics(m),
	}

	// Persistence collaborators are optional; configured sinks share one
	// inbox drained by a single worker.
	var savers []events.Saver

	var (
		db  *sql.DB
		err error
	)
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			return err
		}
		defer db.Close()
		savers = append(savers, eventspostgres.New(db))
		log.Info("event persistence enabled", "sink", "postgres")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := stream.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("failed to create kafka publisher", "error", err)
			return err
		}
		defer publisher.Close()
		if err := publisher.EnsureTopic(ctx, 3, 1); err != nil {
			log.Error("failed to ensure kafka topic", "error", err, "topic", cfg.Kafka.Topic)
			return err
		}
		savers = append(savers, publisher)
		log.Info("event persistence enabled", "sink", "kafka", "topic", cfg.Kafka.Topic)
	}

	var inbox chan events.Event
	if len(savers) > 0 {
		inbox = make(chan events.Event, persistInboxSize)
		svcOpts = append(svcOpts, eventsservice.WithPersistInbox(inbox))
	}

	eventService, err := eventsservice.New(eventStore, eventBus, svcOpts...)
	if err != nil {
		log.Error("failed to create event service", "error", err)
		return err
	}

	// Role grants: postgres-backed when configured, in-memory otherwise.
	var grantStore rbacservice.GrantStore = rbacmemory.New()
	if db != nil {
		grantStore = rbacpostgres.New(db)
	}

	rbacOpts := []rbacservice.Option{
		rbacservice.WithLogger(log),
		rbacservice.WithMetrics(m),
		rbacservice.WithAuditor(eventService),
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		rbacOpts = append(rbacOpts, rbacservice.WithCache(
			rbaccache.New(redisClient.Client, cfg.Redis.RoleCacheTTL),
		))
		log.Info("role cache enabled")
	}

	rbacService, err := rbacservice.New(grantStore, rbacOpts...)
	if err != nil {
		log.Error("failed to create rbac service", "error", err)
		return err
	}

	if cfg.BootstrapAdmin != "" {
		adminID, err := id.ParseUserID(cfg.BootstrapAdmin)
		if err != nil {
			log.Error("invalid bootstrap admin id", "error", err)
			return err
		}
		grant := rbac.Grant{UserID: adminID, Role: rbac.RoleAdmin, GrantedAt: time.Now()}
		if err := grantStore.Add(ctx, grant); err != nil {
			log.Error("failed to seed bootstrap admin", "error", err)
			return err
		}
		log.Info("bootstrap admin seeded", "user_id", adminID)
	}

	settingsStore := adminmemory.New()
	adminService, err := adminservice.New(settingsStore,
		adminservice.WithLogger(log),
		adminservice.WithAuditor(eventService),
	)
	if err != nil {
		log.Error("failed to create admin service", "error", err)
		return err
	}

	tokens := token.New(cfg.JWTSigningKey)
	requireAuth := middleware.RequireAuth(tokens, log)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Device)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	eventshandler.New(eventService, rbacService, requireAuth, log).Register(r)
	rbachandler.New(rbacService, requireAuth, log).Register(r)
	adminhandler.New(adminService, rbacService, requireAuth, log).Register(r)

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)

	if inbox != nil {
		w := worker.New(multiSaver(savers), inbox,
			worker.WithLogger(log),
			worker.WithFailureHook(m.PersistFailures.Inc),
		)
		g.Go(func() error {
			err := w.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}
