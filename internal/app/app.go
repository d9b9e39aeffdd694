package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/wheelforge/wheelforge/internal/config"
	"github.com/wheelforge/wheelforge/internal/ctxlog"
	"github.com/wheelforge/wheelforge/internal/registry"
	"github.com/wheelforge/wheelforge/internal/secrets"
	"github.com/wheelforge/wheelforge/internal/shellexec"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model
	secrets  *secrets.Store
	masker   *secrets.Masker
	runner   shellexec.Runner
	config   *Config
}

// NewApp is the constructor for the main application. It loads the pipeline,
// resolves secrets, registers runner modules, and validates the registry
// against the loaded pipeline. A nil runner selects the real OS runner;
// tests inject a fake. Critical startup errors panic; the CLI recovers and
// exits cleanly.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, runner shellexec.Runner, modules ...registry.Module) *App {
	bootLogger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), bootLogger)

	model, err := loader.Load(ctx, appConfig.PipelinePath)
	if err != nil {
		panic(fmt.Errorf("failed to load pipeline: %w", err))
	}
	bootLogger.Debug("Pipeline configuration loaded into unified model.")

	store, err := secrets.Resolve(model.Secrets)
	if err != nil {
		if !appConfig.DryRun {
			panic(fmt.Errorf("failed to resolve secrets: %w", err))
		}
		// A dry run never uses secret values; plan with an empty store.
		bootLogger.Warn("Continuing dry run without secrets.", "error", err)
		store = secrets.Empty()
	}
	masker := secrets.NewMasker(store)

	// Rebuild the logger behind the masking writer now that secret values
	// are known. Everything logged from here on is scrubbed.
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat,
		&secrets.MaskingWriter{W: outW, Masker: masker})
	logger.Debug("Masked logger configured.", "secrets", len(store.Names()))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules()
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All runner modules registered.", "count", len(modules))

	if err := reg.Validate(ctx, model); err != nil {
		// A mismatch between pipeline and registered runners is a startup
		// error, not a run failure.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	if runner == nil {
		runner = shellexec.NewOSRunner(masker)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    model,
		secrets:  store,
		masker:   masker,
		runner:   runner,
		config:   appConfig,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded pipeline model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
