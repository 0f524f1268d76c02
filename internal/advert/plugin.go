package advert

import (
	"context"
	"errors"
	"sync"

	"advert/internal/config"
	"advert/internal/plugin"
	"advert/pkg/logx"
)

const Name = "advert"

// Plugin wires a Scheduler to the host capabilities.
type Plugin struct {
	mu       sync.Mutex
	log      logx.Logger
	sched    *Scheduler
	settings config.Main
}

var (
	_ plugin.Plugin             = (*Plugin)(nil)
	_ plugin.ConfigurablePlugin = (*Plugin)(nil)
)

func New() *Plugin { return &Plugin{log: logx.Nop()} }

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Load(ctx context.Context, deps plugin.Deps) error {
	if deps.Config == nil {
		return errors.New("config manager not available")
	}
	cfg := deps.Config.Get()
	if cfg == nil {
		return errors.New("config not loaded")
	}
	if deps.Scheduler == nil {
		return errors.New("scheduler not available")
	}
	if deps.Chat == nil {
		return errors.New("chat not available")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sched != nil {
		p.sched.Stop()
	}
	if !deps.Logger.IsZero() {
		p.log = deps.Logger
	}
	p.settings = cfg.Main
	p.sched = NewScheduler(deps.Scheduler, deps.Chat, WithLogger(p.log), WithBus(deps.Bus))
	if err := p.sched.Start(cfg.Main); err != nil {
		return err
	}

	p.log.Info("advert loaded",
		logx.Int("ads", len(cfg.Main.Ads)),
		logx.Duration("interval", cfg.Main.Interval()))
	return nil
}

func (p *Plugin) Unload(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sched != nil {
		p.sched.Stop()
		p.sched = nil
	}
	p.log.Info("advert unloaded")
	return nil
}

// OnConfigChange restarts the rotation from the first ad when the Main
// section changed. It does nothing while the plugin is not loaded.
func (p *Plugin) OnConfigChange(_ context.Context, cfg *config.Config) error {
	if cfg == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sched == nil || cfg.Main.Equal(p.settings) {
		return nil
	}
	if err := p.sched.Start(cfg.Main); err != nil {
		return err
	}
	p.settings = cfg.Main
	p.log.Info("advert reloaded",
		logx.Int("ads", len(cfg.Main.Ads)),
		logx.Duration("interval", cfg.Main.Interval()))
	return nil
}

// Scheduler exposes the running scheduler; nil while not loaded.
func (p *Plugin) Scheduler() *Scheduler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sched
}
