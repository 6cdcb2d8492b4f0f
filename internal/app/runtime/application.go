// Package runtime assembles configuration, services, and the HTTP server into
// a runnable process.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/R3E-Network/neostream/internal/api/httpserver"
	app "github.com/R3E-Network/neostream/internal/app"
	"github.com/R3E-Network/neostream/internal/app/events"
	"github.com/R3E-Network/neostream/internal/app/httpapi"
	"github.com/R3E-Network/neostream/internal/app/services/streams"
	"github.com/R3E-Network/neostream/internal/config"
	"github.com/R3E-Network/neostream/internal/middleware"
	"github.com/R3E-Network/neostream/pkg/logger"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	app        *app.Application
	httpServer *httpserver.Server
}

// NewApplication constructs a new application instance from the environment.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewApplicationWithConfig(cfg)
}

// NewApplicationWithConfig builds the application from an explicit config.
func NewApplicationWithConfig(cfg *config.Config) (*Application, error) {
	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	}).WithField("service", "neostream")

	application, err := app.New(app.Stores{}, log)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}

	for _, pub := range buildPublishers(cfg.Events, log) {
		application.Streams.AttachPublisher(pub)
	}

	reporter := streams.NewReporter(application.Streams, cfg.Report.Schedule, log)
	if err := application.Attach(reporter); err != nil {
		return nil, fmt.Errorf("attach reporter: %w", err)
	}

	assets, err := resolveAssets(cfg.Streams)
	if err != nil {
		return nil, fmt.Errorf("resolve asset allowlist: %w", err)
	}

	handler, err := httpapi.NewHandler(application, httpapi.Options{
		Log:                  log,
		Auth:                 middleware.AuthConfig{APIKeys: cfg.Auth.APIKeys, JWTSecret: cfg.Auth.JWTSecret},
		RateLimitRPS:         cfg.RateLimit.RPS,
		RateLimitBurst:       cfg.RateLimit.Burst,
		CORSOrigins:          cfg.CORS.Origins,
		AllowedAssets:        assets,
		ValidateNeoAddresses: cfg.Streams.ValidateAddresses,
		AuditMax:             cfg.Audit.Max,
		AuditFile:            cfg.Audit.File,
		WatchInterval:        cfg.Streams.WatchInterval,
		Version:              Version,
	})
	if err != nil {
		return nil, fmt.Errorf("assemble http api: %w", err)
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		app:        application,
		httpServer: httpserver.New(cfg.Server, log, handler),
	}, nil
}

// App exposes the composed application, mainly for integration tests.
func (a *Application) App() *app.Application {
	return a.app
}

// Run starts background services and the HTTP server, blocking until the
// context is cancelled or the listener fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	errCh := make(chan error, 1)

	go func() {
		a.log.Infof("HTTP server listening on %s", a.httpServer.Addr())
		if err := a.httpServer.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server and background services.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	err := a.httpServer.Shutdown(shutdownCtx)

	if serr := a.app.Stop(shutdownCtx); serr != nil {
		a.log.WithError(serr).Warn("error stopping services")
		if err == nil {
			err = serr
		}
	}

	return err
}

// buildPublishers constructs the configured lifecycle event sinks. A sink
// that fails to initialise is skipped with a warning rather than blocking
// startup.
func buildPublishers(cfg config.EventsConfig, log *logger.Logger) []events.Publisher {
	var pubs []events.Publisher

	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		pub, err := events.NewRedisPublisher(addr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisChannel, log)
		if err != nil {
			log.WithError(err).Warn("configure redis event publisher")
		} else {
			pubs = append(pubs, pub)
		}
	}

	if url := strings.TrimSpace(cfg.WebhookURL); url != "" {
		pubs = append(pubs, events.NewWebhookPublisher(url, cfg.WebhookAPIKey, cfg.WebhookTimeout, log))
	}

	return pubs
}

// resolveAssets returns the asset allowlist: an explicit file wins over the
// environment list; both empty means no allowlist is enforced.
func resolveAssets(cfg config.StreamsConfig) ([]string, error) {
	if path := strings.TrimSpace(cfg.AssetsFile); path != "" {
		assets, err := config.LoadAssetsConfigFromPath(path)
		if err != nil {
			return nil, err
		}
		return assets.Codes(), nil
	}
	if len(cfg.AllowedAssets) > 0 {
		out := make([]string, 0, len(cfg.AllowedAssets))
		for _, a := range cfg.AllowedAssets {
			a = strings.ToUpper(strings.TrimSpace(a))
			if a != "" {
				out = append(out, a)
			}
		}
		return out, nil
	}
	return nil, nil
}
