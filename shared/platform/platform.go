// Package platform assembles the runtime every service process shares: the
// database with its transactional outbox, the broker adapters, the inbound
// channel router, the processed-command store and the HTTP server.
package platform

import (
	"context"
	"net/http"
	"time"

	"github.com/ftgo/order-system/shared/config"
	"github.com/ftgo/order-system/shared/events"
	sharedinfra "github.com/ftgo/order-system/shared/infrastructure"
	"github.com/ftgo/order-system/shared/logger"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// Worker is a long running loop that stops when ctx is cancelled
type Worker func(ctx context.Context) error

// Runtime holds the shared infrastructure of one service process
type Runtime struct {
	Config    config.Base
	Logger    *logger.Logger
	Telemetry *telemetry.Telemetry

	DB        *sqlx.DB
	TxManager *sharedinfra.TxManager

	// Producer and Events write to the outbox so messages commit with the
	// local transaction that caused them.
	Producer  *messaging.Producer
	Events    *events.DomainEventPublisher
	Router    *sharedinfra.ChannelRouter
	Processed messaging.ProcessedStore

	broker            *sharedinfra.SNSPublisherAdapter
	subscriber        *sharedinfra.SQSSubscriberAdapter
	redis             *redis.Client
	workers           []Worker
	shutdownTelemetry func()
}

// New connects the runtime described by cfg
func New(ctx context.Context, cfg config.Base) (*Runtime, error) {
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logger")
	}
	log = log.With("service", cfg.ServiceName)

	rt := &Runtime{
		Config:            cfg,
		Logger:            log,
		Router:            sharedinfra.NewChannelRouter(cfg.ServiceName+"-router", log),
		shutdownTelemetry: func() {},
	}

	if cfg.Telemetry.Enabled {
		tel, shutdown, err := telemetry.InitTelemetry(ctx, telemetry.ForService(cfg.ServiceName).WithOTLPEndpoint(cfg.Telemetry.OTLPEndpoint))
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize telemetry")
		}
		rt.Telemetry = tel
		rt.shutdownTelemetry = shutdown
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.GetDatabaseURL())
	if err != nil {
		rt.Close()
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	rt.DB = db
	rt.TxManager = sharedinfra.NewTxManager(db)

	outbox := sharedinfra.NewPostgresOutbox(db)
	rt.Producer = messaging.NewProducer(outbox)
	rt.Events = events.NewDomainEventPublisher(outbox)

	rt.broker, err = sharedinfra.NewSNSPublisherAdapter(ctx, cfg.AWS)
	if err != nil {
		rt.Close()
		return nil, errors.Wrap(err, "failed to create SNS publisher")
	}
	rt.Go(sharedinfra.NewOutboxRelay(db, rt.broker, cfg.Outbox.BatchSize, cfg.Outbox.PollInterval, log).Run)

	rt.subscriber, err = sharedinfra.NewSQSSubscriberAdapter(ctx, cfg.AWS, rt.Router, log,
		sharedinfra.WithSubscriberName(cfg.ServiceName))
	if err != nil {
		rt.Close()
		return nil, errors.Wrap(err, "failed to create SQS subscriber")
	}

	processed := sharedinfra.NewPostgresProcessedStore(db, cfg.ServiceName)
	rt.redis, rt.Processed, err = newProcessedStore(ctx, cfg.ServiceName, cfg.Redis, processed, log)
	if err != nil {
		rt.Close()
		return nil, err
	}

	return rt, nil
}

// NewLocal returns a runtime without external infrastructure. It serves
// HTTP and runs workers only.
func NewLocal(cfg config.Base, log *logger.Logger) *Runtime {
	return &Runtime{
		Config:            cfg,
		Logger:            log,
		Router:            sharedinfra.NewChannelRouter(cfg.ServiceName+"-router", log),
		Processed:         messaging.NewMemoryProcessedStore(),
		shutdownTelemetry: func() {},
	}
}

// newProcessedStore puts a Redis read-through cache in front of primary when
// an address is configured
func newProcessedStore(ctx context.Context, service string, cfg config.Redis, primary messaging.ProcessedStore, log *logger.Logger) (*redis.Client, messaging.ProcessedStore, error) {
	if cfg.Addr == "" {
		return nil, primary, nil
	}

	client, err := sharedinfra.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to redis")
	}
	cache := sharedinfra.NewRedisProcessedStore(client, service, cfg.DedupTTL)
	return client, sharedinfra.NewCachedProcessedStore(primary, cache, log), nil
}

// Dispatcher builds the command dispatcher of channel and subscribes it.
// Handlers run inside a database transaction and their replies go through
// the outbox.
func (rt *Runtime) Dispatcher(channel string, handlers messaging.CommandHandlers) *messaging.CommandDispatcher {
	dispatcher := messaging.NewCommandDispatcher(rt.Config.ServiceName+"-"+channel, handlers, rt.Producer,
		messaging.WithTransactor(rt.TxManager),
		messaging.WithProcessedStore(rt.Processed),
		messaging.WithLogger(rt.Logger),
	)
	rt.Router.Subscribe(channel, dispatcher)
	return dispatcher
}

// Go registers a worker that runs for the lifetime of Run
func (rt *Runtime) Go(worker Worker) {
	rt.workers = append(rt.workers, worker)
}

// HTTPRouter returns the service router with the common middleware,
// health and metrics endpoints already mounted
func (rt *Runtime) HTTPRouter(routes ...func(chi.Router)) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	if rt.Telemetry != nil {
		r.Use(telemetry.Middleware(rt.Telemetry))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", telemetry.MetricsHandler())

	for _, register := range routes {
		register(r)
	}
	return r
}

// Run serves handler, consumes the service queue and runs the registered
// workers until ctx is cancelled or one of them fails
func (rt *Runtime) Run(ctx context.Context, handler http.Handler) error {
	if rt.subscriber != nil {
		if err := rt.subscriber.Start(ctx); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:    ":" + rt.Config.Port,
		Handler: handler,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rt.Logger.Info("http server listening", "port", rt.Config.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	for _, worker := range rt.workers {
		worker := worker
		g.Go(func() error {
			if err := worker(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

// Close releases everything New acquired
func (rt *Runtime) Close() error {
	var errs []error

	if rt.subscriber != nil {
		if err := rt.subscriber.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close event subscriber"))
		}
	}
	if rt.broker != nil {
		if err := rt.broker.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close event publisher"))
		}
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close redis"))
		}
	}
	if rt.DB != nil {
		if err := rt.DB.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close database"))
		}
	}
	rt.shutdownTelemetry()
	rt.Logger.Sync()

	if len(errs) > 0 {
		return errors.Errorf("errors closing dependencies: %v", errs)
	}
	return nil
}
