package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"leadscore/internal/lead"
	"leadscore/internal/verify"
)

func newCandidatesCmd(configPath *string) *cobra.Command {
	var (
		name string
		rank bool
	)

	cmd := &cobra.Command{
		Use:   "candidates <domain>",
		Short: "List guessed mailbox addresses for a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			domain, err := verify.SanitizeDomain(args[0])
			if err != nil {
				return err
			}

			tables := a.cfg.LeadTables()
			emails := lead.NewCandidateGenerator(tables).Generate(domain, name)
			out := cmd.OutOrStdout()
			if !rank {
				for _, e := range emails {
					fmt.Fprintln(out, e)
				}
				return nil
			}
			for _, r := range lead.NewRanker(tables).Rank(emails).Ranked {
				fmt.Fprintf(out, "%3d  %s\n", r.Score, r.Email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "company name for free-mail guesses")
	cmd.Flags().BoolVar(&rank, "rank", false, "order by decision-maker score")
	return cmd
}
