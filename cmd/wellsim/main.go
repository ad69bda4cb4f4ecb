package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	preset    string
	dt        float64
	workers   int
	relax     bool
	maxIter   int
	logLevel  string
	noColor   bool
	plotWidth int
	plotRows  int
)

// main registers the wellsim commands and exits with status 1 when a
// command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "wellsim",
		Short:         "well equation solver for a fixed reservoir state",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	runCmd := &cobra.Command{
		Use:   "run [deck]",
		Short: "solve the wells of a deck",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDeck,
	}
	checkCmd := &cobra.Command{
		Use:   "check [deck]",
		Short: "solve a deck and check the economic ratio limits",
		Args:  cobra.MaximumNArgs(1),
		RunE:  checkDeck,
	}
	watchCmd := &cobra.Command{
		Use:   "watch [deck]",
		Short: "step the newton iterations interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchDeck,
	}
	plotCmd := &cobra.Command{
		Use:   "plot [deck]",
		Short: "plot the residual history of a solve",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotDeck,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 60, "plot width")
	plotCmd.Flags().IntVar(&plotRows, "height", 12, "plot height")

	for _, c := range []*cobra.Command{runCmd, checkCmd, watchCmd, plotCmd} {
		c.Flags().StringVar(&preset, "preset", "", "use a preset deck instead of a file")
		c.Flags().Float64Var(&dt, "dt", 0, "timestep in seconds")
		c.Flags().IntVar(&workers, "workers", 0, "assembly workers (0 = one per cpu)")
		c.Flags().BoolVar(&relax, "relax", false, "use the relaxed tolerance for stopped wells")
		c.Flags().IntVar(&maxIter, "max-iter", 0, "newton iteration budget")
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	rootCmd.AddCommand(runCmd, checkCmd, watchCmd, plotCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
