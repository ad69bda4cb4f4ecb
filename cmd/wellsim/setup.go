package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/san-kum/wellsim/internal/config"
	"github.com/san-kum/wellsim/internal/experiment"
	"github.com/san-kum/wellsim/internal/logging"
)

// loadConfig reads the deck named by args or the --preset flag and
// applies the solver flags the user set.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case preset != "" && len(args) > 0:
		return nil, errors.New("give either a deck file or --preset, not both")
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	case len(args) == 1:
		var err error
		if cfg, err = config.Load(args[0]); err != nil {
			return nil, fmt.Errorf("failed to load deck: %w", err)
		}
	default:
		return nil, errors.New("no deck: pass a file or --preset")
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Solver.Dt = dt
	}
	if flags.Changed("workers") {
		cfg.Solver.Workers = workers
	}
	if flags.Changed("relax") {
		cfg.Solver.Relax = relax
	}
	if flags.Changed("max-iter") {
		cfg.Solver.MaxIterations = maxIter
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	color := !noColor && isatty.IsTerminal(os.Stderr.Fd())
	return logging.New(os.Stderr, level, color), nil
}

// setup builds a ready experiment from the command line.
func setup(ctx context.Context, cmd *cobra.Command, args []string) (*experiment.Experiment, *slog.Logger, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	deck, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	exp := experiment.New(deck, logger)
	if err := exp.Setup(ctx); err != nil {
		return nil, nil, err
	}
	return exp, logger, nil
}
