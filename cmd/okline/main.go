package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var version = "dev"

// cli carries the process-wide logger into every command.
type cli struct {
	logger   *slog.Logger
	logLevel *slog.LevelVar
}

func main() {
	logLevel := &slog.LevelVar{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	viper.SetEnvPrefix("OKLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	c := &cli{logger: logger, logLevel: logLevel}

	rootCmd := &cobra.Command{
		Use:   "okline",
		Short: "Timelines of dependent tasks",
		Long: `okline keeps timelines of tasks linked by dependencies. Nodes unlock
when everything before them is done or skipped, recurrence timelines rotate
through a list of tasks on a daily, weekly or monthly cadence, and a group of
timelines can be laid out and browsed in the terminal.

Run without a command in a terminal to open the viewer.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if viper.GetBool(FlagVerbose) {
				logLevel.Set(slog.LevelDebug)
				logger.Debug("verbose logging enabled")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return cmd.Help()
			}
			return c.runView(cmd, "", "")
		},
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .okline/config.yaml)")
	rootCmd.PersistentFlags().String(FlagDataFile, "", "Data file path (default: .okline/root-data.json)")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Log file path")

	// Bind all flags to viper
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "okline %s\n", version)
		},
	}

	// Register all commands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(c.groupCmd())
	rootCmd.AddCommand(c.timelineCmd())
	rootCmd.AddCommand(c.nodeCmd())
	rootCmd.AddCommand(c.statusCmd())
	rootCmd.AddCommand(c.instancesCmd())
	rootCmd.AddCommand(c.layoutCmd())
	rootCmd.AddCommand(c.syncCmd())
	rootCmd.AddCommand(c.memoCmd())
	rootCmd.AddCommand(c.viewCmd())
	rootCmd.AddCommand(initCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
