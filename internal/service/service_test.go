package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/cyborg/app"
)

type noCfg struct{}
type noDeps struct{}

func TestProgram_StartStop(t *testing.T) {
	started := make(chan struct{})
	p := NewProgram(app.Hooks[noCfg, noDeps]{Name: "test"})
	p.run = func(ctx context.Context, _ app.Hooks[noCfg, noDeps]) error {
		close(started)
		<-ctx.Done()
		return nil
	}

	if err := p.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(nil); err == nil {
		t.Error("second Start should fail")
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("app did not start")
	}

	if err := p.Stop(nil); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := p.Stop(nil); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestProgram_StopReturnsRunError(t *testing.T) {
	p := NewProgram(app.Hooks[noCfg, noDeps]{Name: "test"})
	want := errors.New("server shutdown: boom")
	p.run = func(ctx context.Context, _ app.Hooks[noCfg, noDeps]) error {
		<-ctx.Done()
		return want
	}
	if err := p.Start(nil); err != nil {
		t.Fatal(err)
	}
	if err := p.Stop(nil); !errors.Is(err, want) {
		t.Errorf("Stop = %v, want %v", err, want)
	}
}

func TestExecute_UnknownAction(t *testing.T) {
	cfg, err := Config("cyborg-test", "CYBORG test", "test", nil)
	if err != nil {
		t.Fatal(err)
	}
	err = Execute(NewProgram(app.Hooks[noCfg, noDeps]{}), cfg, "explode")
	if err == nil || !strings.Contains(err.Error(), "unknown action") {
		t.Fatalf("err = %v", err)
	}
}

func TestActions(t *testing.T) {
	for _, a := range []string{"run", "install", "uninstall", "start", "stop", "restart"} {
		found := false
		for _, got := range Actions {
			if got == a {
				found = true
			}
		}
		if !found {
			t.Errorf("Actions missing %q", a)
		}
	}
}
