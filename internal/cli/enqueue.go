package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"leadscore/internal/queue"
)

func newEnqueueCmd(configPath *string) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Push a file of companies onto the worker queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			companies, err := readCompanies(input)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := a.redis(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			q := queue.New(client, a.cfg.Redis.QueueConfig())
			for _, c := range companies {
				if err := q.Enqueue(ctx, queue.NewJob(c)); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📬 queued %d companies on %s\n", len(companies), a.cfg.Redis.Queue)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "companies file (.json, .yaml)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
