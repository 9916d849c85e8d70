package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/db"
	"github.com/yungbote/storefront-backend/internal/http"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/envutil"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/realtime"
	"github.com/yungbote/storefront-backend/internal/temporalx/temporalworker"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics

	pg           *db.PostgresService
	server       *http.Server
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewLogger builds the process logger from LOG_MODE.
func NewLogger() (*logger.Logger, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// Bootstrap loads config and opens Postgres. It is shared by the server and
// the one-shot commands.
func Bootstrap(log *logger.Logger, migrate bool) (*db.PostgresService, Config, error) {
	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		return nil, cfg, err
	}
	pg, err := db.NewPostgresService(log, cfg.Postgres)
	if err != nil {
		return nil, cfg, fmt.Errorf("init postgres: %w", err)
	}
	if migrate {
		if err := pg.AutoMigrateAll(); err != nil {
			_ = pg.Close()
			return nil, cfg, fmt.Errorf("postgres automigrate: %w", err)
		}
	}
	return pg, cfg, nil
}

func New(ctx context.Context, log *logger.Logger) (*App, error) {
	pg, cfg, err := Bootstrap(log, true)
	if err != nil {
		return nil, err
	}
	a := &App{Log: log, DB: pg.DB(), Cfg: cfg, pg: pg}

	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)
	a.Metrics = observability.Init(log)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Clients = clients

	a.SSEHub = realtime.NewSSEHub(log)
	var pub realtime.Publisher = a.SSEHub
	if clients.Bus != nil {
		pub = clients.Bus
	}
	emitter := realtime.NewEmitter(log, pub)

	a.Repos = wireRepos(a.DB, log)
	a.Services, err = wireServices(a.DB, log, cfg, a.Repos, clients, emitter, a.Metrics)
	if err != nil {
		a.Close()
		return nil, err
	}

	handlers := wireHandlers(log, a.Services, a.SSEHub, dbPinger(a))
	mw := wireMiddleware(log, cfg, a.Services, clients.Cache)
	a.Router = wireRouter(log, cfg, a.Metrics, handlers, mw)
	return a, nil
}

// Start launches the background loops: the realtime forwarder, the Temporal
// worker and the metrics collectors.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Clients.Bus != nil {
		if err := a.Clients.Bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start realtime forwarder: %w", err)
		}
	}

	if a.Clients.Temporal != nil {
		runner, err := temporalworker.NewRunner(a.Log, a.Clients.Temporal, a.Cfg.Temporal, a.Services.Fulfillment)
		if err != nil {
			return err
		}
		if err := runner.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}

	if a.Metrics != nil {
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
		}
	}
	return nil
}

// Run serves HTTP until ctx ends or SIGINT/SIGTERM arrives, then drains
// in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	a.server = http.NewServer(a.Router)
	addr := ":" + a.Cfg.Port
	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("Server listening", "addr", addr)
		errCh <- a.server.Run(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.Log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close(a.Log)
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OpenTelemetry shutdown", "error", err)
		}
		cancel()
		a.otelShutdown = nil
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Log.Warn("Close postgres", "error", err)
		}
		a.pg = nil
	}
	a.Log.Sync()
}
