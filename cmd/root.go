package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/winevalue-cli/internal/config"
	"github.com/KaramelBytes/winevalue-cli/internal/dataset"
	"github.com/KaramelBytes/winevalue-cli/internal/describe"
	"github.com/KaramelBytes/winevalue-cli/internal/factor"
	"github.com/KaramelBytes/winevalue-cli/internal/logger"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	dataPath string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "winevalue",
	Short: "WineValue CLI: find wines that rate above their price",
	Long: `WineValue fits a points-versus-price model over a wine review dataset and ranks
countries, regions, varieties, wineries and description words by how far their
wines rate above or below what their price predicts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.winevalue/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "review dataset (overrides data_path)")
}

func loadConfig() {
	logger.Init(os.Stderr)
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c

	if rootCmd.PersistentFlags().Changed("data") && dataPath != "" {
		cfg.DataPath = dataPath
	}
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
}

// settings returns the loaded configuration, or defaults when loading failed.
func settings() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	return &cfgpkg.Global{
		DataPath:        "winemag-data-130k-v2.csv",
		TopN:            5,
		FilterAllBelow:  factor.DefaultAllValuesBelow,
		FilterMinCount:  factor.DefaultMinCount,
		FilterMaxValues: factor.DefaultMaxValues,
		VocabSize:       describe.DefaultVocabSize,
		LogLevel:        "warn",
	}
}

// datasetPath picks the positional file argument over --data and data_path.
func datasetPath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	if dataPath != "" {
		return dataPath
	}
	return settings().DataPath
}

// loadReviews reads path and drops rows missing any required field.
func loadReviews(ctx context.Context, path string) (*dataset.Dataset, error) {
	log := logger.Named("cmd")
	raw, err := dataset.LoadFile(path)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.Clean(raw)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "dataset loaded",
		logger.String("path", path),
		logger.Int("rows", raw.Len()),
		logger.Int("kept", ds.Len()))
	return ds, nil
}
