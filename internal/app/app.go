package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/vk/bufcompose/internal/config"
	"github.com/vk/bufcompose/internal/contributor"
	"github.com/vk/bufcompose/internal/ctxlog"
	"github.com/vk/bufcompose/internal/packing"
	"github.com/vk/bufcompose/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	model      *config.Model
	registry   *registry.Registry
	names      *registry.NameList
	adapters   []*contributor.Adapter
	httpServer *http.Server
}

// NewApp is the constructor for the main application. The report is written
// to outW and logs to logW. A configuration that cannot be loaded is a fatal
// startup error and panics.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model := &config.Model{}
	if cfg.ConfigPath != "" {
		loaded, err := loader.Load(ctx, cfg.ConfigPath)
		if err != nil {
			panic(fmt.Errorf("failed to load configuration: %w", err))
		}
		model = loaded
	}
	logger.Debug("Configuration loaded.", "systems", len(model.Systems), "contributors", len(model.Contributors))

	names := &registry.NameList{}
	reg := registry.New(
		registry.WithLogger(logger),
		registry.WithPacking(packing.WithOrder(cfg.order())),
		registry.WithNameSink(names),
	)

	a := &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   cfg,
		model:    model,
		registry: reg,
		names:    names,
	}
	a.compose()
	return a
}

// compose registers the systems of the model and binds one adapter per
// contributor.
func (a *App) compose() {
	for _, s := range a.model.Systems {
		for _, member := range s.Members {
			a.registry.Add(s.Name, member)
		}
	}

	for _, c := range a.model.Contributors {
		if a.config.Push != "" {
			continue
		}
		system := systemOf(c)
		if !slices.Contains(a.registry.Names(), system) {
			a.logger.Warn("Contributor targets an unknown system; its contributions are ignored.", "contributor", c.ID, "system", system, "source", c.Source)
		}

		adapter := contributor.New(a.registry, c.ID, contributor.WithLogger(a.logger))
		adapter.SetSystem(system)
		adapter.SetDeclarations(c.Structure)
		adapter.SetDefines(c.Defines)
		adapter.SetEmitCount(c.EmitCount)
		a.adapters = append(a.adapters, adapter)
	}

	for _, adapter := range a.adapters {
		adapter.Evaluate()
	}
	if len(a.model.Contributors) == 0 {
		a.logger.Warn("No contributors configured.")
	}
	a.logger.Info("Contributors composed.", "systems", a.names.Names(), "contributors", len(a.adapters))
}

// Close withdraws every local contributor.
func (a *App) Close() {
	for _, adapter := range a.adapters {
		adapter.Close()
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Adapter returns the adapter of a local contributor.
func (a *App) Adapter(id string) (*contributor.Adapter, bool) {
	for _, adapter := range a.adapters {
		if adapter.ID() == id {
			return adapter, true
		}
	}
	return nil, false
}
