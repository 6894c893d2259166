package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"leadscore/internal/export"
	"leadscore/internal/lead"
)

func newProcessCmd(configPath *string) *cobra.Command {
	var (
		input    string
		output   string
		minScore int
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Build, score and export leads for a file of companies",
		Long:  "Reads a JSON or YAML list of companies, builds a lead for each and writes the leads sorted by score to CSV or JSON (by extension).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("min-score") {
				a.cfg.Filters.MinScore = minScore
			}

			companies, err := readCompanies(input)
			if err != nil {
				return err
			}
			scorer, err := a.scorer()
			if err != nil {
				return err
			}
			agg := a.aggregator(scorer)

			a.log.WithField("companies", len(companies)).Info("🚀 processing companies")
			leads, stats, err := lead.NewPipeline(agg, a.cfg.Filters.MinScore, a.log).Run(cmd.Context(), companies)
			if err != nil {
				a.log.WithError(err).Warn("⚠️  interrupted, exporting partial results")
			}

			if output != "" {
				if werr := export.WriteFile(output, leads); werr != nil {
					return werr
				}
			} else if werr := export.WriteCSV(cmd.OutOrStdout(), leads); werr != nil {
				return werr
			}

			fmt.Fprint(cmd.ErrOrStderr(), renderSummary(stats, output))
			return err
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "companies file (.json, .yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "leads file (.csv, .json); CSV to stdout when empty")
	cmd.Flags().IntVar(&minScore, "min-score", 0, "drop leads scoring below this (overrides filters.min_score)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
