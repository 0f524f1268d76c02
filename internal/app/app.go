package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"advert/internal/broadcast"
	"advert/internal/config"
	"advert/internal/eventbus"
	"advert/internal/host"
	"advert/internal/plugin"
	"advert/internal/runtime/supervisor"
	"advert/pkg/logx"
)

const (
	watchBackoffMin = 250 * time.Millisecond
	watchBackoffMax = 5 * time.Second
)

type App struct {
	cfgPath string

	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	timers *host.Timers
	chat   *chatRef
	pm     *plugin.Manager
}

// NewApp loads the config file and builds every host service. A config that
// cannot be parsed is fatal (*config.ParseError).
func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	root := log
	log = log.With(logx.String("comp", "app"))

	chatCfg, err := mapChatConfig(cfg)
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("chat config: %w", err)
	}
	sink, err := broadcast.Open(chatCfg, root.With(logx.String("comp", "chat")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	chat := newChatRef(sink)

	bus := eventbus.New()
	timers := host.NewTimers(root.With(logx.String("comp", "timers")))

	pm := plugin.NewManager(root.With(logx.String("comp", "plugins")), plugin.Deps{
		Logger:    root,
		Config:    cfgm,
		Scheduler: timers,
		Chat:      chat,
		Bus:       bus,
	})

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		timers:  timers,
		chat:    chat,
		pm:      pm,
	}, nil
}

func (a *App) Plugins() *plugin.Manager { return a.pm }

func (a *App) Bus() eventbus.Bus { return a.bus }

// Done is closed when the app supervisor context is cancelled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true))

	// Reject reloads the host could not apply, before they are committed.
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		cc, err := mapChatConfig(cfg)
		if err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(cc.Driver)) {
		case "", "console", "redis":
		default:
			return fmt.Errorf("Chat.Driver: %w: %q", broadcast.ErrUnknownDriver, cc.Driver)
		}
		return nil
	})

	a.timers.Start()

	if err := a.pm.LoadAll(a.sup.Context()); err != nil {
		return err
	}

	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				// Ads are sent frequently; keep this at debug.
				a.log.Debug("event", logx.String("type", e.Type), logx.Any("data", e.Data))
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.apply", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		last := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case next, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(c, last, next)
				last = next
			}
		}
	})

	a.sup.GoRestart("config.watch", watchBackoffMin, watchBackoffMax, a.cfgm.Watch)

	a.log.Info("app started", logx.String("config", a.cfgPath), logx.Strs("plugins", a.pm.Loaded()))
	return nil
}

func (a *App) applyConfig(ctx context.Context, prev, next *config.Config) {
	sections, attrs := config.SummarizeConfigChange(prev, next)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}

	if slices.Contains(sections, "logging") {
		a.logs.Apply(mapLogConfig(next))
	}
	if slices.Contains(sections, "chat") {
		a.reopenChat(next)
	}
	if err := a.pm.Apply(ctx, next); err != nil {
		a.log.Warn("some plugins rejected the new config", logx.Err(err))
	}

	a.bus.Publish(eventbus.Event{Type: eventbus.TypeConfigApplied, Data: sections})
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config applied", fields...)
}

func (a *App) reopenChat(cfg *config.Config) {
	cc, err := mapChatConfig(cfg)
	if err != nil {
		a.log.Warn("invalid chat config; keeping previous sink", logx.Err(err))
		return
	}
	sink, err := broadcast.Open(cc, a.log.With(logx.String("comp", "chat")))
	if err != nil {
		a.log.Warn("chat sink not reopened; keeping previous", logx.Err(err))
		return
	}
	if old := a.chat.swap(sink); old != nil {
		a.sup.Go0("chat.retire", func(c context.Context) {
			if err := retire(c, old, sinkRetireGrace); err != nil {
				a.log.Warn("closing previous chat sink", logx.Err(err))
			}
		})
	}
	a.log.Info("chat sink reopened", logx.String("driver", cc.Driver))
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.Strs("goroutines", a.sup.Running()))

	// Background loops start unwinding immediately.
	a.sup.Cancel()

	var errs []error
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Err(stepCtx.Err()),
				logx.Duration("elapsed", time.Since(start)))
		}
	}

	// Plugins first: they cancel their timers.
	step("plugins", 4*time.Second, func(c context.Context) error { a.pm.UnloadAll(c); return nil })
	step("timers", 2*time.Second, a.timers.Stop)
	step("chat", 1*time.Second, func(context.Context) error { return a.chat.Close() })
	step("supervisor", 2*time.Second, func(c context.Context) error {
		err := a.sup.Stop(c)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if n := a.sup.Panics(); n > 0 {
		a.log.Warn("recovered goroutine panics during run", logx.Uint64("panics", n))
	}
	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return errors.Join(errs...)
}
