package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/winevalue-cli/internal/logger"
	"github.com/KaramelBytes/winevalue-cli/internal/session"
)

const welcome = "Welcome!\nThis program helps you find a good wine for the price!"

var exploreCmd = &cobra.Command{
	Use:   "explore [file]",
	Short: "Interactively drill into the factors behind good value",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		c := settings()
		ds, err := loadReviews(ctx, datasetPath(args))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, welcome)

		s := session.New(session.SessionContext{
			Dataset: ds,
			Options: session.Options{
				Policy:    c.Policy(),
				Describe:  c.DescribeOptions(),
				TopN:      c.TopN,
				ChartDir:  c.ChartDir,
				ShowChart: c.ShowChart,
			},
			Out: out,
			Log: logger.Get(),
		}, session.NewLinePrompter(cmd.InOrStdin(), out))

		res, err := s.Run(ctx)
		if err != nil {
			// Closing stdin ends the session like answering no.
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}
		logger.Named("cmd").Debug(ctx, "explore finished",
			logger.String("session_id", s.ID()),
			logger.String("state", res.State.String()),
			logger.Int("rows", res.Rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exploreCmd)
}
