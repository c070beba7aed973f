package service

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"recipebox/app/config"
	"recipebox/app/events"
	"recipebox/app/metrics"
	"recipebox/app/repositories"
	"recipebox/app/routes"
	"recipebox/app/services"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
)

// App is the blog service: store, event bus, metrics and router.
type App struct {
	cfg     *config.Config
	store   *repositories.Store
	bus     *events.Bus
	metrics *metrics.Metrics
	handler http.Handler
}

// NewApp opens the store and wires everything that serves requests.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := repositories.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	app := &App{
		cfg:     cfg,
		store:   store,
		metrics: metrics.New(),
	}

	var notifier services.PostNotifier
	if cfg.Events.Enabled {
		bus, err := events.NewBus(cfg.Events, log.Logger)
		if err != nil {
			store.Close()
			return nil, err
		}
		bus.OnPostCreated("activity_log", logPostCreated)
		bus.OnPostCreated("posts_created_metric", app.metrics.CountPostCreated)
		app.bus = bus
		notifier = bus
	}

	app.handler = routes.SetupRoutes(routes.Dependencies{
		PostService:  services.NewPostService(store.Posts, notifier),
		Metrics:      app.metrics,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	return app, nil
}

func logPostCreated(ctx context.Context, event events.PostCreated) error {
	log.Info().
		Str("post_id", event.ID).
		Str("author", event.Author).
		Str("title", event.Title).
		Msg("blog post created")
	return nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run listens on the configured address and serves until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve starts the event bus, then serves HTTP on ln. When ctx is done the
// server drains in-flight requests for at most the shutdown timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.bus != nil {
		busErr := make(chan error, 1)
		go func() { busErr <- a.bus.Run(ctx) }()

		select {
		case <-a.bus.Running():
		case err := <-busErr:
			ln.Close()
			return fmt.Errorf("start event bus: %w", err)
		case <-ctx.Done():
			ln.Close()
			return nil
		}
	}

	srv := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	log.Info().Str("addr", ln.Addr().String()).Str("store", a.store.Driver).Msg("blog service listening")

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

// Close stops the event bus and releases the store.
func (a *App) Close() error {
	var result *multierror.Error
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := a.store.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close store: %w", err))
	}
	return result.ErrorOrNil()
}

// RunAppServer runs the blog service until SIGINT or SIGTERM and returns an
// exit code.
func RunAppServer(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", config.DefaultPath, "path to the TOML configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	config.LoadDotEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	config.SetupLogger(cfg.Log, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to start blog service")
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close blog service")
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Error().Err(err).Msg("blog service stopped")
		return 1
	}
	return 0
}
