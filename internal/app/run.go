package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/bufcompose/internal/config"
	"github.com/vk/bufcompose/internal/ctxlog"
	"github.com/vk/bufcompose/internal/registry"
	"github.com/vk/bufcompose/internal/remote"
	"github.com/vk/bufcompose/internal/report"
	"github.com/vk/bufcompose/internal/server"
)

// Run executes the main application logic based on the loaded configuration.
// It renders a report of the composed systems, pushes the contributors to a
// remote server, or serves the registry until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	defer a.Close()

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	switch {
	case a.config.Push != "":
		return a.push(ctx)
	case a.config.Listen != "":
		if err := a.render(); err != nil {
			return err
		}
		srv := server.New(a.registry, server.WithLogger(a.logger))
		a.logger.Info("🚀 Serving contributors...", "listen", a.config.Listen)
		if err := srv.Serve(ctx, a.config.Listen); err != nil {
			return err
		}
		a.logger.Info("🏁 Server stopped.")
		return a.render()
	default:
		return a.render()
	}
}

func (a *App) render() error {
	if err := report.Render(a.outW, a.config.format(), a.Report()); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// Report builds the report of every system in creation order.
func (a *App) Report() []report.System {
	var systems []report.System
	for _, name := range a.registry.Names() {
		snap, ok := a.registry.Snapshot(name)
		if !ok {
			continue
		}
		sys := report.FromSnapshot(snap)
		for _, adapter := range a.adapters {
			bound, ok := adapter.Bound()
			if !ok || bound != name {
				continue
			}
			c := report.Contributor{ID: adapter.ID(), Output: adapter.Output()}
			if adapter.EmitCount() > 0 {
				offset := snap.Offset(adapter.ID())
				c.Offset = &offset
			}
			sys.Contributors = append(sys.Contributors, c)
		}
		systems = append(systems, sys)
	}
	return systems
}

const pushTimeout = 10 * time.Second

// push sends every configured contributor to the remote server and renders
// what the server composed for them.
func (a *App) push(ctx context.Context) error {
	var sessions []*remote.Session
	defer func() {
		for _, s := range sessions {
			s.Close()
		}
	}()

	for _, c := range a.model.Contributors {
		dialCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		session, err := remote.Dial(dialCtx, a.config.Push, remote.Contribution{
			System:    systemOf(c),
			Structure: c.Structure,
			Defines:   c.Defines,
			EmitCount: c.EmitCount,
		}, remote.Options{})
		cancel()
		if err != nil {
			return fmt.Errorf("failed to push contributor '%s': %w", c.ID, err)
		}
		sessions = append(sessions, session)
	}
	a.logger.Info("Contributors pushed.", "url", a.config.Push, "count", len(sessions))

	var systems []report.System
	index := map[string]int{}
	for i, s := range sessions {
		composed := s.Composed()
		pos, ok := index[composed.System]
		if !ok {
			pos = len(systems)
			index[composed.System] = pos
			systems = append(systems, report.System{Name: composed.System})
		}
		sys := &systems[pos]
		sys.Stride = composed.Stride
		sys.ElementCount = composed.ElementCount
		sys.Contributors = append(sys.Contributors, report.Contributor{
			ID:     a.model.Contributors[i].ID,
			Output: composed.Output,
		})
	}
	if err := report.Render(a.outW, a.config.format(), systems); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// systemOf returns the target system of c, defaulting to the default system.
func systemOf(c *config.Contributor) string {
	if c.System == "" {
		return registry.DefaultSystem
	}
	return c.System
}
