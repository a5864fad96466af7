// internal/service/service.go
// Package service runs the app under the host service manager (systemd,
// launchd or the Windows SCM) via github.com/kardianos/service.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/dalemusser/cyborg/app"
	"github.com/kardianos/service"
)

// stopTimeout bounds how long Stop waits for the app to shut down.
const stopTimeout = 30 * time.Second

// Actions accepted by Control, plus "run".
var Actions = append([]string{"run"}, service.ControlAction[:]...)

// Program adapts app.Run to service.Interface.
type Program[C any, D any] struct {
	Hooks app.Hooks[C, D]

	// run is app.Run unless replaced in tests.
	run func(ctx context.Context, hooks app.Hooks[C, D]) error

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
}

// NewProgram wraps hooks.
func NewProgram[C any, D any](hooks app.Hooks[C, D]) *Program[C, D] {
	return &Program[C, D]{Hooks: hooks, run: app.Run[C, D]}
}

// Start launches the app in the background; the service manager requires
// Start to return promptly.
func (p *Program[C, D]) Start(s service.Service) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return errors.New("service: already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)

	go func() {
		err := p.run(ctx, p.Hooks)
		p.done <- err
		if err != nil && s != nil {
			if lg, lerr := s.Logger(nil); lerr == nil {
				_ = lg.Error(err)
			}
			// The manager observes the exit and applies its restart policy.
			if !service.Interactive() {
				os.Exit(1)
			}
		}
	}()
	return nil
}

// Stop cancels the app and waits for the graceful shutdown to finish.
func (p *Program[C, D]) Stop(service.Service) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case err := <-done:
		return err
	case <-time.After(stopTimeout):
		return fmt.Errorf("service: shutdown did not finish within %s", stopTimeout)
	}
}

// Config describes the installed service. args are passed to the binary
// when the manager starts it.
func Config(name, displayName, description string, args []string) (*service.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("service: working directory: %w", err)
	}
	return &service.Config{
		Name:             name,
		DisplayName:      displayName,
		Description:      description,
		Arguments:        args,
		WorkingDirectory: wd,
	}, nil
}

// Execute performs action ("run", "install", "uninstall", "start", "stop",
// "restart") for prog described by cfg.
func Execute[C any, D any](prog *Program[C, D], cfg *service.Config, action string) error {
	if !slices.Contains(Actions, action) {
		return fmt.Errorf("service: unknown action %q (valid: %v)", action, Actions)
	}

	svc, err := service.New(prog, cfg)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if action == "run" {
		return svc.Run()
	}
	if err := service.Control(svc, action); err != nil {
		return fmt.Errorf("service %s: %w", action, err)
	}
	return nil
}
