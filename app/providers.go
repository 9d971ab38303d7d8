package app

import (
	"github.com/km-arc/go-chaindi/config"
	"github.com/km-arc/go-chaindi/container"
)

// ConfigProvider binds the typed configuration as the "config" singleton.
type ConfigProvider struct {
	container.BaseProvider
	EnvFiles []string
}

func (p *ConfigProvider) Register(c *container.Container) error {
	files := p.EnvFiles
	return c.Define("config").
		Chain(container.Construct(func() *config.Config { return config.Load(files...) })).
		Apply()
}

// RoutingProvider binds the HTTP router as the "router" singleton.
type RoutingProvider struct {
	container.BaseProvider
}

func (p *RoutingProvider) Register(c *container.Container) error {
	return c.Define("router").
		Chain(container.Construct(NewRouter)).
		Apply()
}
