package daemon

import (
	"context"
	"path/filepath"

	"github.com/heyfriend/heyfriend/internal/api"
	"github.com/heyfriend/heyfriend/internal/bus"
	"github.com/heyfriend/heyfriend/internal/config"
	"github.com/heyfriend/heyfriend/internal/lock"
	"github.com/heyfriend/heyfriend/internal/logging"
	"github.com/heyfriend/heyfriend/internal/session"
	"github.com/heyfriend/heyfriend/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved configuration passed to the fx module.
type Params struct {
	Config  *config.Config
	DataDir string // optional override for testing; empty = session.ServerDir()
}

func (p Params) dir() string {
	if p.DataDir != "" {
		return p.DataDir
	}
	return session.ServerDir()
}

func (p Params) server() config.ServerConfig {
	if p.Config == nil {
		return config.Default().Server
	}
	return p.Config.Server
}

// Module returns the fx module for the backend daemon, composing all
// providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideService,
			provideMetrics,
			provideLimiter,
			NewServer,
			NewHTTPServer,
			NewJanitor,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(filepath.Join(p.dir(), "logs", "hfd.log"), "hfd")
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring data dir lock", zap.String("dir", p.dir()))
	l, err := lock.Acquire(p.dir(), "hfd")
	if err != nil {
		return nil, err
	}
	logger.Info("data dir lock acquired")
	return l, nil
}

// provideStore depends on the lock so the database is never opened by two
// daemons at once.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := filepath.Join(p.dir(), "heyfriend.db")
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideService(p Params, db *store.DB, b *bus.Bus, logger *zap.Logger) *api.Service {
	return api.NewService(db, b, logger, p.server().PublicURL)
}

func provideMetrics() *Metrics {
	return NewMetrics()
}

func provideLimiter(p Params) *Limiter {
	cfg := p.server()
	return NewLimiter(cfg.RateLimit, cfg.RateBurst)
}

func registerLifecycle(
	lc fx.Lifecycle,
	srv *Server,
	httpSrv *HTTPServer,
	janitor *Janitor,
	metrics *Metrics,
	db *store.DB,
	lk *lock.Lock,
	b *bus.Bus,
	logger *zap.Logger,
) {
	var stopEvents func()
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			stopEvents = metrics.WatchEvents(b)

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			go func() {
				if err := httpSrv.Start(); err != nil {
					logger.Error("HTTP server error", zap.Error(err))
				}
			}()

			janitor.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			janitor.Stop()
			httpSrv.Stop(ctx)
			srv.Stop(ctx)
			if stopEvents != nil {
				stopEvents()
			}
			b.Close()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
