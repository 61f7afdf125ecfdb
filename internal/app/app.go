package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GlebRadaev/escrowpay/internal/config"
	"github.com/GlebRadaev/escrowpay/internal/handlers"
	"github.com/GlebRadaev/escrowpay/internal/notify"
	"github.com/GlebRadaev/escrowpay/internal/pg"
	"github.com/GlebRadaev/escrowpay/internal/repo"
	"github.com/GlebRadaev/escrowpay/internal/service"
	"github.com/GlebRadaev/escrowpay/internal/service/paymentservice"
	"github.com/GlebRadaev/escrowpay/pkg/auth"
	"github.com/GlebRadaev/escrowpay/pkg/clients"
	"github.com/GlebRadaev/escrowpay/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg      *config.Config
	api      *handlers.Handlers
	srv      *service.Services
	repo     *repo.Repositories
	notifier *notify.Dispatcher
	pool     *pgxpool.Pool
	redis    *redis.Client

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	opts, err := paymentOptions(cfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	if err := pg.RunMigrations(ctx, pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	txManager := pg.NewTXManager(pool)

	a.cfg = cfg
	a.pool = pool
	a.notifier = a.newNotifier(cfg)
	a.repo = repo.New(pg.New(pool))
	a.srv = service.New(a.repo, txManager, a.notifier, opts)
	a.api = handlers.New(a.srv, auth.NewJWTService(cfg.JWTSecret))

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.ready = true
	zap.L().Info("all systems started successfully",
		zap.String("completion_policy", string(opts.CompletionPolicy)),
		zap.String("fee_percent", opts.FeePercent.String()),
	)
	return nil
}

func paymentOptions(cfg *config.Config) (paymentservice.Options, error) {
	policy, err := cfg.WorkCompletionPolicy()
	if err != nil {
		return paymentservice.Options{}, err
	}
	fee, err := cfg.FeePercent()
	if err != nil {
		return paymentservice.Options{}, err
	}
	return paymentservice.Options{CompletionPolicy: policy, FeePercent: fee}, nil
}

// newNotifier builds the event dispatcher with a sink for every configured
// destination. With none configured events are discarded.
func (a *Application) newNotifier(cfg *config.Config) *notify.Dispatcher {
	var sinks []notify.Sink
	if cfg.RedisAddress != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		sinks = append(sinks, notify.NewRedisSink(a.redis, cfg.NotifyChannel))
	}
	if cfg.NotifyWebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookSink(cfg.NotifyWebhookURL, clients.NewHTTPClient()))
	}
	for _, s := range sinks {
		zap.L().Info("event sink enabled", zap.String("sink", s.Name()))
	}
	return notify.NewDispatcher(notify.Options{Workers: cfg.NotifyWorkers}, sinks...)
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:    a.cfg.Address,
		Handler: router,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(sCtx); err != nil {
			zap.L().Error("http server shutdown", zap.Error(err))
		}
		a.release(sCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

// release flushes queued notifications and closes the external connections.
func (a *Application) release(ctx context.Context) {
	if a.notifier != nil {
		if err := a.notifier.Close(ctx); err != nil {
			zap.L().Warn("notifications left undelivered", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	return appErr
}
