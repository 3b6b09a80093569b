package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/winevalue-cli/internal/analysis"
	"github.com/KaramelBytes/winevalue-cli/internal/dataset"
	"github.com/KaramelBytes/winevalue-cli/internal/factor"
	"github.com/KaramelBytes/winevalue-cli/internal/utils"
)

var (
	anaOutputPath string
	anaSampleRows int
	anaGroupBy    []string
	anaCorr       bool
	anaOutliers   bool
	anaOutlierThr float64
	anaRaw        bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Profile a review dataset as Markdown",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := datasetPath(args)
		opt := analysis.DefaultOptions()
		opt.SampleRows = anaSampleRows
		for _, g := range anaGroupBy {
			f, ok := factor.Parse(strings.TrimSpace(g))
			if !ok || f.IsText() {
				return fmt.Errorf("unsupported --group-by: %s", g)
			}
			opt.GroupBy = append(opt.GroupBy, f)
		}
		opt.Correlations = anaCorr
		opt.Outliers = anaOutliers
		if anaOutlierThr > 0 {
			opt.OutlierThreshold = anaOutlierThr
		}

		var (
			ds  *dataset.Dataset
			err error
		)
		if anaRaw {
			ds, err = dataset.LoadFile(path)
		} else {
			ds, err = loadReviews(cmd.Context(), path)
		}
		if err != nil {
			return err
		}
		rep, err := analysis.Analyze(filepath.Base(path), ds, opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()

		out := cmd.OutOrStdout()
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(out, md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown)")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include")
	analyzeCmd.Flags().StringSliceVar(&anaGroupBy, "group-by", nil, "comma-separated factors to group by (repeatable)")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	analyzeCmd.Flags().BoolVar(&anaOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	analyzeCmd.Flags().Float64Var(&anaOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	analyzeCmd.Flags().BoolVar(&anaRaw, "raw", false, "profile the file before rows with missing fields are dropped")
}
