package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/km-arc/go-chaindi/config"
	"github.com/km-arc/go-chaindi/container"
)

// Application is the top-level kernel for apps wired through the container.
// It embeds the Container so wiring code can call app.Define(), app.Resolve()
// directly, and adds the provider registry and the HTTP server lifecycle.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry
}

// New creates and bootstraps the application: a fresh container with the
// config and routing providers registered.
func New(envFiles ...string) (*Application, error) {
	c := container.New()
	registry := container.NewProviderRegistry(c)

	app := &Application{
		Container: c,
		Providers: registry,
	}

	if err := registry.Register(&ConfigProvider{EnvFiles: envFiles}); err != nil {
		return nil, err
	}
	if err := registry.Register(&RoutingProvider{}); err != nil {
		return nil, err
	}
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers and constructs eager
// singletons.
func (a *Application) Boot() error {
	if err := a.Providers.Boot(); err != nil {
		return err
	}
	return a.Container.Bootstrap()
}

// Config resolves *config.Config from the container.
func (a *Application) Config() *config.Config {
	return container.MustResolve[*config.Config](a.Container, "config")
}

// Router resolves *Router from the container.
func (a *Application) Router() *Router {
	return container.MustResolve[*Router](a.Container, "router")
}

// Run boots the application (if needed) and serves HTTP until interrupted,
// then shuts the server and the container down in order: no new requests,
// drain, dispose singletons.
func (a *Application) Run() error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}
	cfg := a.Config()
	srv := &http.Server{Addr: ":" + cfg.App.Port, Handler: a.Router()}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Printf("%s running on http://localhost:%s [%s]", cfg.App.Name, cfg.App.Port, cfg.App.Env)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	return a.Container.Shutdown()
}

// Environment returns the APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
