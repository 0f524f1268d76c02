package plugin

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"advert/internal/config"
	"advert/internal/eventbus"
	"advert/pkg/logx"
)

var ErrDuplicatePlugin = errors.New("plugin already registered")

// Manager loads registered plugins in registration order and unloads them in
// reverse.
type Manager struct {
	mu     sync.Mutex
	log    logx.Logger
	deps   Deps
	order  []string
	reg    map[string]Plugin
	loaded map[string]bool
}

func NewManager(log logx.Logger, deps Deps) *Manager {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Manager{
		log:    log,
		deps:   deps,
		reg:    map[string]Plugin{},
		loaded: map[string]bool{},
	}
}

func (pm *Manager) Register(p ...Plugin) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for _, pl := range p {
		if pl == nil {
			continue
		}
		name := pl.Name()
		if _, ok := pm.reg[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePlugin, name)
		}
		pm.reg[name] = pl
		pm.order = append(pm.order, name)
	}
	return nil
}

func (pm *Manager) depsFor(name string) Deps {
	d := pm.deps
	log := d.Logger
	if log.IsZero() {
		log = pm.log
	}
	d.Logger = log.With(logx.String("plugin", name))
	return d
}

func (pm *Manager) emit(typ string, data eventbus.PluginEvent) {
	pm.deps.Publish(typ, data)
}

// LoadAll loads every registered plugin that is not loaded yet. A plugin
// whose Load fails is unloaded again; the others keep running. All failures
// are returned joined.
func (pm *Manager) LoadAll(ctx context.Context) error {
	pm.mu.Lock()
	names := append([]string(nil), pm.order...)
	pm.mu.Unlock()

	var errs []error
	for _, name := range names {
		pm.mu.Lock()
		p, done := pm.reg[name], pm.loaded[name]
		pm.mu.Unlock()
		if done {
			continue
		}

		start := time.Now()
		err := pm.safeCall("plugin.load."+name, func() error { return p.Load(ctx, pm.depsFor(name)) })
		took := time.Since(start)
		if err != nil {
			pm.log.Error("plugin load failed", logx.String("plugin", name), logx.Duration("took", took), logx.Err(err))
			if uerr := pm.safeCall("plugin.unload."+name, func() error { return p.Unload(ctx) }); uerr != nil {
				pm.log.Warn("plugin cleanup after failed load", logx.String("plugin", name), logx.Err(uerr))
			}
			pm.emit(eventbus.TypePluginFailed, eventbus.PluginEvent{Plugin: name, Took: took, Err: err.Error()})
			errs = append(errs, fmt.Errorf("plugin %s: %w", name, err))
			continue
		}

		pm.mu.Lock()
		pm.loaded[name] = true
		pm.mu.Unlock()
		pm.log.Debug("plugin loaded", logx.String("plugin", name), logx.Duration("took", took))
		pm.emit(eventbus.TypePluginLoaded, eventbus.PluginEvent{Plugin: name, Took: took})
	}
	return errors.Join(errs...)
}

// UnloadAll unloads loaded plugins in reverse registration order. Unload
// errors are logged; the plugin is considered unloaded regardless.
func (pm *Manager) UnloadAll(ctx context.Context) {
	pm.mu.Lock()
	names := make([]string, 0, len(pm.loaded))
	for i := len(pm.order) - 1; i >= 0; i-- {
		if pm.loaded[pm.order[i]] {
			names = append(names, pm.order[i])
		}
	}
	pm.mu.Unlock()

	for _, name := range names {
		pm.mu.Lock()
		p := pm.reg[name]
		delete(pm.loaded, name)
		pm.mu.Unlock()

		start := time.Now()
		err := pm.safeCall("plugin.unload."+name, func() error { return p.Unload(ctx) })
		ev := eventbus.PluginEvent{Plugin: name, Took: time.Since(start)}
		if err != nil {
			pm.log.Warn("plugin unload failed", logx.String("plugin", name), logx.Err(err))
			ev.Err = err.Error()
		}
		pm.emit(eventbus.TypePluginUnloaded, ev)
	}
}

// Apply forwards a reloaded config to every loaded ConfigurablePlugin.
func (pm *Manager) Apply(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return nil
	}
	pm.mu.Lock()
	targets := make(map[string]ConfigurablePlugin)
	names := make([]string, 0, len(pm.order))
	for _, name := range pm.order {
		if !pm.loaded[name] {
			continue
		}
		if cp, ok := pm.reg[name].(ConfigurablePlugin); ok {
			targets[name] = cp
			names = append(names, name)
		}
	}
	pm.mu.Unlock()

	var errs []error
	for _, name := range names {
		cp := targets[name]
		if err := pm.safeCall("plugin.config."+name, func() error { return cp.OnConfigChange(ctx, cfg) }); err != nil {
			pm.log.Error("plugin rejected config", logx.String("plugin", name), logx.Err(err))
			errs = append(errs, fmt.Errorf("plugin %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Loaded returns the names of loaded plugins in load order.
func (pm *Manager) Loaded() []string {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	out := make([]string, 0, len(pm.loaded))
	for _, name := range pm.order {
		if pm.loaded[name] {
			out = append(out, name)
		}
	}
	return out
}

func (pm *Manager) safeCall(label string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pm.log.Error("panic in plugin call",
				logx.String("call", label),
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("panic in %s: %v", label, r)
		}
	}()
	return fn()
}
