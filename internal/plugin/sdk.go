package plugin

import (
	"context"

	"advert/internal/config"
	"advert/internal/eventbus"
	"advert/internal/host"
	"advert/pkg/logx"
)

// Plugin is a unit the host loads at startup and unloads at shutdown.
type Plugin interface {
	Name() string
	// Load binds configuration and starts the plugin's work. A failed Load is
	// followed by Unload, so Unload must cope with partial state.
	Load(ctx context.Context, deps Deps) error
	// Unload releases everything Load acquired. It must be safe to call
	// without a prior Load and more than once.
	Unload(ctx context.Context) error
}

// ConfigurablePlugin is implemented by plugins that react to config reloads.
type ConfigurablePlugin interface {
	OnConfigChange(ctx context.Context, cfg *config.Config) error
}

// Deps are the host capabilities handed to a plugin on Load.
type Deps struct {
	Logger    logx.Logger
	Config    *config.ConfigManager
	Scheduler host.Scheduler
	Chat      host.Chat
	Bus       eventbus.Bus
}

// Publish sends an event on the bus, if there is one.
func (d Deps) Publish(typ string, data any) {
	if d.Bus == nil {
		return
	}
	d.Bus.Publish(eventbus.Event{Type: typ, Data: data})
}
