package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/winevalue-cli/internal/describe"
	"github.com/KaramelBytes/winevalue-cli/internal/factor"
	"github.com/KaramelBytes/winevalue-cli/internal/logger"
	"github.com/KaramelBytes/winevalue-cli/internal/ranking"
	"github.com/KaramelBytes/winevalue-cli/internal/report"
	"github.com/KaramelBytes/winevalue-cli/internal/value"
)

var (
	rankTop      int
	rankJSONPath string
	rankChart    bool
)

var rankCmd = &cobra.Command{
	Use:   "rank <factor> [file]",
	Short: "Rank one factor by value without prompting",
	Long: `Rank scores every review, keeps the most common values of the factor and
prints the values that rate furthest above and below their price.

Factors: ` + factorList(),
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, ok := factor.Parse(strings.TrimSpace(args[0]))
		if !ok {
			return fmt.Errorf("unknown factor %q (use one of: %s)", args[0], factorList())
		}
		c := settings()
		ds, err := loadReviews(ctx, datasetPath(args[1:]))
		if err != nil {
			return err
		}

		filtered, err := factor.Filter(ds, f, c.Policy())
		if err != nil {
			return err
		}
		scored, model, err := value.Compute(filtered)
		if err != nil {
			return fmt.Errorf("value model: %w", err)
		}
		log := logger.Named("rank")
		log.Debug(ctx, "value model fitted", logger.Int("rows", model.N), logger.Float64("slope", model.Slope))

		var r *ranking.Ranking
		if f.IsText() {
			_, res, err := describe.Fit(scored, c.DescribeOptions())
			if err != nil {
				return fmt.Errorf("description model: %w", err)
			}
			r = ranking.FromCoefficients(string(f), res.Coefficients)
		} else {
			r, err = ranking.ByFactor(scored, f.Column())
			if err != nil {
				return err
			}
			r.Label = string(f)
		}

		out := cmd.OutOrStdout()
		top := c.TopN
		if rankTop > 0 {
			top = rankTop
		}
		report.WriteSplit(out, string(f), r.Split(), top)

		now := time.Now()
		if !f.IsText() && (rankChart || c.ShowChart || c.ChartDir != "") {
			chart := report.BarChart(r, 0)
			if rankChart || c.ShowChart {
				fmt.Fprintln(out)
				fmt.Fprint(out, chart)
			}
			if c.ChartDir != "" {
				path, err := report.SaveChart(c.ChartDir, string(f), chart, now)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Wrote chart to %s\n", path)
			}
		}
		if rankJSONPath != "" {
			if err := report.WriteJSON(rankJSONPath, r, scored.Len(), now); err != nil {
				return fmt.Errorf("write json: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote ranking to %s\n", rankJSONPath)
		}
		return nil
	},
}

func factorList() string {
	names := make([]string, len(factor.All))
	for i, f := range factor.All {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().IntVar(&rankTop, "top", 0, "entries per side (default top_n)")
	rankCmd.Flags().StringVar(&rankJSONPath, "json", "", "optional path to write the full ranking as JSON")
	rankCmd.Flags().BoolVar(&rankChart, "chart", false, "print a bar chart for categorical factors")
}
