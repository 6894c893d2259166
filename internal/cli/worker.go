package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"leadscore/internal/queue"
	"leadscore/internal/store"
	"leadscore/internal/worker"
)

func newWorkerCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume company jobs from Redis and store leads in PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub, flush := a.sentry()
			defer flush()

			client, err := a.redis(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			db, err := store.Open(ctx, a.cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(ctx); err != nil {
				return err
			}
			a.log.Info("✅ connected to PostgreSQL")

			scorer, err := a.scorer()
			if err != nil {
				return err
			}
			agg := a.aggregator(scorer)

			opts := []worker.Option{worker.WithLogger(a.log)}
			if hub != nil {
				opts = append(opts, worker.WithReporter(hub))
			}
			w := worker.New(queue.New(client, a.cfg.Redis.QueueConfig()), agg, db, worker.Config{
				Concurrency: a.cfg.Worker.Concurrency,
				PollTimeout: time.Duration(a.cfg.Worker.PollTimeoutSeconds) * time.Second,
				RetrySweep:  a.cfg.Worker.RetrySweep,
			}, opts...)

			a.log.WithField("queue", a.cfg.Redis.Queue).Info("📬 listening for companies")
			return w.Run(ctx)
		},
	}
}
