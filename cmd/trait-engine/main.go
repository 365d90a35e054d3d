// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trait-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sctrait/trait-engine/internal/store"
	"github.com/sctrait/trait-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the trait-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "trait-engine",
	Short: "Species-gene-trait association mining over annotated literature",
	Long: `trait-engine mines species-gene-trait associations from annotated
scientific text. An upstream annotator supplies entity mentions; the CLI
classifies co-occurrences, aggregates them into scored associations,
propagates them across orthology links, and exports GAF annotation files.

Each pipeline stage is a subcommand: import, mine, transfer, export,
and stats. Stages communicate through a local SQLite database, so each
one can be rerun independently.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./trait-engine.yaml or ~/.config/trait-engine/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "data", "base directory for the SQLite index (contains index/)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trait-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trait-engine"))
		}
	}

	viper.SetEnvPrefix("TRAIT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger. Verbose runs log at debug level.
func newLogger() (*zap.Logger, error) {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// openStore opens the SQLite index under the configured data directory.
func openStore() (*store.Store, error) {
	dataDir, _ := rootCmd.PersistentFlags().GetString("data-dir")
	if v := viper.GetString("data_dir"); dataDir == "data" && v != "" {
		dataDir = v
	}
	return store.New(types.StoreConfig{DataDir: dataDir})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
