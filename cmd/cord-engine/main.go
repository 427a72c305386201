// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cord-engine CLI.
package main

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cord-engine/internal/observability"
	"github.com/pdiddy/cord-engine/internal/secrets"
	"github.com/pdiddy/cord-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state prepared by the root command before any subcommand
// runs.
var (
	cfg           types.Config
	log           zerolog.Logger
	metrics       *observability.Metrics
	loadedSecrets secrets.Secrets
	runID         string
)

// rootCmd is the base command for the cord-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "cord-engine",
	Short: "Build, enrich and search a corpus of COVID-19 research papers",
	Long: `cord-engine turns the CORD-19 metadata catalog and parsed full texts into an
enriched, searchable corpus of COVID-19 papers.

The pipeline stages are subcommands: filter selects COVID-relevant papers and
resolves their full text, enrich adds topics, summaries, keywords, drug
mentions and the clinical flag, and publish writes the result to a search
index. search queries the local index; run executes every stage in order.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Metrics.Textfile == "" || metrics == nil {
			return nil
		}
		return metrics.WriteTextfile(cfg.Metrics.Textfile)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./cord-engine.yaml or ~/.config/cord-engine/cord-engine.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of credential files")
	rootCmd.PersistentFlags().String("data-dir", "", "base directory for catalog inputs and corpus outputs")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")

	viper.BindPFlag("catalog.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig seeds viper with the default configuration so that every key
// is known to the environment lookup, then merges the config file.
func initConfig() {
	defaults, err := yaml.Marshal(types.DefaultConfig())
	if err == nil {
		viper.SetConfigType("yaml")
		viper.ReadConfig(bytes.NewReader(defaults))
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cord-engine")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cord-engine"))
		}
	}

	viper.SetEnvPrefix("CORD_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.MergeInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setup builds the configuration, logger, metrics and secrets shared by
// every subcommand.
func setup(cmd *cobra.Command, args []string) error {
	cfg = types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID = uuid.NewString()
	log = observability.WithRun(observability.NewLogger(cfg.Logging), runID)
	metrics = observability.NewMetrics(cfg.Metrics.Namespace)

	dir, _ := cmd.Flags().GetString("secrets-dir")
	s, err := secrets.Load(dir, log)
	if err != nil {
		return err
	}
	loadedSecrets = s
	if len(s) > 0 {
		log.Debug().Strs("keys", slices.Sorted(maps.Keys(s))).Msg("loaded secrets")
	}
	return nil
}

// dataPath resolves a file name against the catalog data directory.
// Absolute paths are returned unchanged.
func dataPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(cfg.Catalog.DataDir, name)
}

// commandContext returns the command context carrying the run logger.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return observability.IntoContext(ctx, log)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
