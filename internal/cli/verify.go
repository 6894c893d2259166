package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"leadscore/internal/verify"
)

func newVerifyCmd(configPath *string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "verify <email>...",
		Short: "Score email addresses with syntax, DNS and SMTP checks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			scorer, err := a.scorer()
			if err != nil {
				return err
			}

			results := make([]verify.Result, 0, len(args))
			for _, email := range args {
				results = append(results, scorer.Verify(cmd.Context(), email))
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderResults(results))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	return cmd
}
