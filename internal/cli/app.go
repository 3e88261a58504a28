package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/harun/flowmind/internal/config"
	"github.com/harun/flowmind/internal/logger"
	"github.com/harun/flowmind/pkg/atomlib"
	"github.com/harun/flowmind/pkg/atoms"
	"github.com/harun/flowmind/pkg/capability"
	"github.com/harun/flowmind/pkg/executor"
	"github.com/harun/flowmind/pkg/planner"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *atoms.Registry
	caps     *capability.Registry
	executor *executor.Executor
	planner  *planner.Planner
}

// newApp loads config and wires the pipeline components.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logCfg := logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: true,
		Pretty:  cfg.Logging.Pretty,
	}
	if logLevel != "" {
		logCfg.Level = logLevel
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zl := log.GetZerolog()

	registry, err := loadRegistry(cfg, zl)
	if err != nil {
		log.Close()
		return nil, err
	}

	caps := capability.NewRegistry()
	if err := atomlib.Register(caps, zl); err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to register built-in capabilities: %w", err)
	}

	return &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		caps:     caps,
		executor: executor.New(caps, zl),
		planner:  planner.New(newProvider(cfg, zl), zl),
	}, nil
}

func (a *app) close() {
	a.log.Close()
}

// loadRegistry reads the atom catalog directory, falling back to the
// built-in definitions when the directory yields nothing.
func loadRegistry(cfg *config.Config, zl zerolog.Logger) (*atoms.Registry, error) {
	loader := atoms.NewLoader(cfg.AtomsDir, zl)
	registry, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load atom catalog: %w", err)
	}
	if registry.Len() == 0 {
		zl.Info().Str("dir", cfg.AtomsDir).Msg("Atom catalog empty, using built-in atoms")
		registry = atoms.NewRegistry(atomlib.Definitions())
	}
	return registry, nil
}

// newProvider builds the configured planning provider, or nil for the
// fallback planner.
func newProvider(cfg *config.Config, zl zerolog.Logger) planner.Provider {
	switch cfg.Planner.Provider {
	case "openai":
		return planner.NewOpenAIProvider(cfg.Planner.APIKey, cfg.Planner.Model, cfg.Planner.BaseURL)
	case "anthropic":
		return planner.NewAnthropicProvider(cfg.Planner.APIKey, cfg.Planner.Model)
	default:
		zl.Debug().Msg("No planner provider configured")
		return nil
	}
}

// readPlanFile loads a plan document from a JSON file, or stdin when the
// path is "-".
func readPlanFile(path string) (map[string]any, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}
	return doc, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
