package plugin

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"advert/internal/config"
	"advert/internal/eventbus"
	"advert/pkg/logx"
)

type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, s)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

type fakePlugin struct {
	name    string
	j       *journal
	loadErr error
	panics  bool
	cfgSeen *config.Config
}

func (p *fakePlugin) Name() string { return p.name }

func (p *fakePlugin) Load(_ context.Context, deps Deps) error {
	p.j.add("load:" + p.name)
	if deps.Logger.IsZero() {
		return errors.New("missing logger")
	}
	if p.panics {
		panic("load exploded")
	}
	return p.loadErr
}

func (p *fakePlugin) Unload(context.Context) error {
	p.j.add("unload:" + p.name)
	return nil
}

type configurable struct {
	fakePlugin
}

func (p *configurable) OnConfigChange(_ context.Context, cfg *config.Config) error {
	p.cfgSeen = cfg
	p.j.add("config:" + p.name)
	return nil
}

func TestManagerLoadUnloadOrder(t *testing.T) {
	t.Parallel()
	j := &journal{}
	pm := NewManager(logx.Nop(), Deps{})
	if err := pm.Register(&fakePlugin{name: "a", j: j}, &fakePlugin{name: "b", j: j}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := pm.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if got := pm.Loaded(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Loaded = %v", got)
	}
	// Loading again is a no-op for loaded plugins.
	if err := pm.LoadAll(context.Background()); err != nil {
		t.Fatalf("second LoadAll: %v", err)
	}

	pm.UnloadAll(context.Background())
	pm.UnloadAll(context.Background())

	want := []string{"load:a", "load:b", "unload:b", "unload:a"}
	if got := j.list(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	if len(pm.Loaded()) != 0 {
		t.Fatalf("Loaded after UnloadAll = %v", pm.Loaded())
	}
}

func TestManagerLoadFailureUnloadsAndJoins(t *testing.T) {
	t.Parallel()
	j := &journal{}
	boom := errors.New("boom")
	bus := eventbus.New()
	failed, unsub := bus.Subscribe(4, eventbus.TypePluginFailed)
	defer unsub()

	pm := NewManager(logx.Nop(), Deps{Bus: bus})
	_ = pm.Register(
		&fakePlugin{name: "bad", j: j, loadErr: boom},
		&fakePlugin{name: "good", j: j},
		&fakePlugin{name: "panicky", j: j, panics: true},
	)

	err := pm.LoadAll(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("LoadAll error = %v, want boom", err)
	}
	if got := pm.Loaded(); !reflect.DeepEqual(got, []string{"good"}) {
		t.Fatalf("Loaded = %v", got)
	}
	want := []string{"load:bad", "unload:bad", "load:good", "load:panicky", "unload:panicky"}
	if got := j.list(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	if e := <-failed; e.Data.(eventbus.PluginEvent).Plugin != "bad" {
		t.Fatalf("failed event = %+v", e)
	}
}

func TestManagerRejectsDuplicate(t *testing.T) {
	t.Parallel()
	pm := NewManager(logx.Nop(), Deps{})
	j := &journal{}
	err := pm.Register(&fakePlugin{name: "x", j: j}, &fakePlugin{name: "x", j: j})
	if !errors.Is(err, ErrDuplicatePlugin) {
		t.Fatalf("Register error = %v", err)
	}
}

func TestManagerApplyForwardsToLoaded(t *testing.T) {
	t.Parallel()
	j := &journal{}
	cp := &configurable{fakePlugin{name: "cfg", j: j}}
	pm := NewManager(logx.Nop(), Deps{})
	_ = pm.Register(cp, &fakePlugin{name: "plain", j: j})

	cfg := config.Default()
	// Not loaded yet: nothing forwarded.
	if err := pm.Apply(context.Background(), &cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cp.cfgSeen != nil {
		t.Fatal("config forwarded to an unloaded plugin")
	}

	if err := pm.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if err := pm.Apply(context.Background(), &cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cp.cfgSeen != &cfg {
		t.Fatal("config not forwarded")
	}
}
