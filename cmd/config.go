package cmd

import (
	"fmt"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/winevalue-cli/internal/config"
	"github.com/KaramelBytes/winevalue-cli/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set WineValue configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "data_path: %s\n", cfg.DataPath)
		fmt.Fprintf(out, "top_n: %d\n", cfg.TopN)
		fmt.Fprintf(out, "filter_all_below: %d\n", cfg.FilterAllBelow)
		fmt.Fprintf(out, "filter_min_count: %d\n", cfg.FilterMinCount)
		fmt.Fprintf(out, "filter_max_values: %d\n", cfg.FilterMaxValues)
		fmt.Fprintf(out, "vocab_size: %d\n", cfg.VocabSize)
		if cfg.ChartDir != "" {
			fmt.Fprintf(out, "chart_dir: %s\n", cfg.ChartDir)
		}
		fmt.Fprintf(out, "show_chart: %t\n", cfg.ShowChart)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		next := *cfg
		var err error
		switch key {
		case "data_path":
			next.DataPath = val
		case "top_n":
			next.TopN, err = cast.ToIntE(val)
		case "filter_all_below":
			next.FilterAllBelow, err = cast.ToIntE(val)
		case "filter_min_count":
			next.FilterMinCount, err = cast.ToIntE(val)
		case "filter_max_values":
			next.FilterMaxValues, err = cast.ToIntE(val)
		case "vocab_size":
			next.VocabSize, err = cast.ToIntE(val)
		case "chart_dir":
			next.ChartDir = val
		case "show_chart":
			next.ShowChart, err = cast.ToBoolE(val)
		case "log_level":
			if err = logger.SetLevelString(val); err == nil {
				next.LogLevel = val
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		cfg = &next
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
