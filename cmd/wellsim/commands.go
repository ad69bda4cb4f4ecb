package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/wellsim/internal/assembly"
	"github.com/san-kum/wellsim/internal/config"
	"github.com/san-kum/wellsim/internal/experiment"
	"github.com/san-kum/wellsim/internal/report"
	"github.com/san-kum/wellsim/internal/tui"
)

// solve runs the deck of the command. A spent iteration budget is
// reported with the result rather than as a failure.
func solve(cmd *cobra.Command, args []string) (*experiment.Experiment, *experiment.Result, error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	exp, logger, err := setup(ctx, cmd, args)
	if err != nil {
		return nil, nil, err
	}
	res, err := exp.Run(ctx)
	if err != nil && !errors.Is(err, assembly.ErrNotConverged) {
		return nil, nil, err
	}
	if err != nil {
		logger.Warn("wells did not converge", "iterations", len(res.History))
	}
	return exp, res, nil
}

func runDeck(cmd *cobra.Command, args []string) error {
	exp, res, err := solve(cmd, args)
	if err != nil {
		return err
	}
	d := exp.Deck()
	fmt.Printf("%s %s\n", report.Title.Render(d.Name), report.Subtle.Render(report.PhaseHeader(d.Usage)))
	fmt.Printf("completed in %v\n\n", res.Elapsed)

	if err := report.Iterations(os.Stdout, res.History); err != nil {
		return err
	}
	fmt.Println()
	if err := report.Wells(os.Stdout, exp.Models(), exp.State()); err != nil {
		return err
	}
	if len(res.Econ) > 0 {
		fmt.Println()
		if err := report.Econ(os.Stdout, res.Econ); err != nil {
			return err
		}
	}
	fmt.Println()
	fmt.Println(report.Summary(res.History, convergenceError(res)))
	return nil
}

func checkDeck(cmd *cobra.Command, args []string) error {
	_, res, err := solve(cmd, args)
	if err != nil {
		return err
	}
	if len(res.Econ) == 0 {
		fmt.Println("no wells with economic limits")
		return nil
	}
	if err := report.Econ(os.Stdout, res.Econ); err != nil {
		return err
	}
	violated := 0
	for _, r := range res.Econ {
		if r.Violated() {
			violated++
		}
	}
	if violated > 0 {
		return fmt.Errorf("%d well(s) violate economic limits", violated)
	}
	return nil
}

func plotDeck(cmd *cobra.Command, args []string) error {
	_, res, err := solve(cmd, args)
	if err != nil {
		return err
	}
	fmt.Println(report.ResidualPlot(res.History, plotWidth, plotRows))
	fmt.Println()
	fmt.Println(report.Summary(res.History, convergenceError(res)))
	return nil
}

func watchDeck(cmd *cobra.Command, args []string) error {
	exp, _, err := setup(cmd.Context(), cmd, args)
	if err != nil {
		return err
	}
	final, err := tui.Run(cmd.Context(), exp)
	if err != nil {
		return err
	}
	if n := len(final.History()); n > 0 {
		fmt.Println(report.Summary(final.History(), final.Err()))
	}
	return nil
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("presets:")
		for _, p := range config.ListPresets() {
			fmt.Printf("  %s\n", p)
		}
		return nil
	}
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func convergenceError(res *experiment.Result) error {
	if res.Converged() {
		return nil
	}
	return assembly.ErrNotConverged
}
