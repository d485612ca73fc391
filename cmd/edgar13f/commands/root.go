package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"edgar13f/lib/osutil"
	"edgar13f/lib/telemetry"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
	dumpHttp   *string
	outputDir  *string

	providers telemetry.Telemetry
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "edgar13f.json5", "The config file, a .local variant next to it overrides it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output.")
	dumpHttp = rootCmd.PersistentFlags().String("dump-http", "", "Write every HTTP exchange into this directory (may start with <dev_state>).")
	outputDir = rootCmd.PersistentFlags().String("output", "", "The directory reports are written to, overrides output_dir.")
}

var rootCmd = &cobra.Command{
	Use:   "edgar13f",
	Short: "edgar13f crawls SEC EDGAR for 13F-HR filings and writes them out as TSV.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initSlog(*verbose)

		t, err := telemetry.SetupFromEnv(cmd.Context(), "edgar13f")
		if err != nil {
			osutil.Fatal("setup telemetry", err)
		}
		providers = t
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := providers.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

func initSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig() Config {
	config, err := LoadConfig(*configPath)
	if err != nil {
		osutil.Fatal("failed to read config", err)
	}
	if *outputDir != "" {
		config.OutputDir = *outputDir
	}
	return config
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
