package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rovefs/internal/app"
	"rovefs/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rovefs:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile  string
		dual     bool
		hidden   bool
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "rovefs [path]",
		Short: "A keyboard-driven terminal file manager",
		Long: `Rovefs is a terminal file manager with tabs, dual panes, a foldable
directory tree and background workers for copying and previews.

With no arguments it reopens the tabs of the previous session. Pass a
path to start a fresh session there instead.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ov := config.Overrides{LogLevel: logLevel}
			if len(args) > 0 {
				ov.StartPath = args[0]
			}
			if cmd.Flags().Changed("dual") {
				ov.Dual = &dual
			}
			if cmd.Flags().Changed("hidden") {
				ov.Hidden = &hidden
			}
			return app.Run(ov, cfgFile)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/rovefs/config.yaml)")
	cmd.Flags().BoolVar(&dual, "dual", false, "start with both panes open")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "show hidden files")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log verbosity: debug, info, warn or error")

	cmd.AddCommand(newLastdirCmd())
	return cmd
}

// newLastdirCmd prints the directory the previous session exited from,
// so a shell wrapper can cd there:
//
//	rove() { rovefs "$@"; cd "$(rovefs lastdir)"; }
func newLastdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lastdir",
		Short: "Print the directory the last session exited from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ReadLastDir()
			if err != nil {
				return fmt.Errorf("no recorded directory: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
