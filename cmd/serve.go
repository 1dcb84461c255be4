package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/go-errors/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redhatinsights/es-index-lifecycle/controllers/metrics"
	"github.com/redhatinsights/es-index-lifecycle/controllers/scheduler"
	"github.com/redhatinsights/xjoin-go-lib/pkg/utils"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var extraPrefixes []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the retention sweep on a schedule and serve /metrics and /healthz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, err := a.prefix()
			if err != nil {
				return err
			}
			prefixes := append([]string{prefix}, extraPrefixes...)

			ctx, cancel := utils.DefaultContext()
			err = a.es.Ping(ctx)
			cancel()
			if err != nil {
				log.Warn("Search cluster is not reachable yet", "error", err.Error())
			}

			metrics.Init(prometheus.DefaultRegisterer)
			sweeps := scheduler.NewScheduler(a.manager, prefixes, a.config.CleanupOptions())
			if err = sweeps.Start(a.config.Parameters.CleanupSchedule.String()); err != nil {
				return err
			}
			defer func() {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer stopCancel()
				if stopErr := sweeps.Stop(stopCtx); stopErr != nil {
					log.Warn("Retention sweep did not finish before shutdown", "error", stopErr.Error())
				}
			}()

			server := &http.Server{
				Addr:              a.config.Parameters.MetricsAddress.String(),
				Handler:           metrics.NewRouter(prometheus.DefaultGatherer, a.es.Ping),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				log.Info("Serving metrics", "address", server.Addr)
				serverErr <- server.ListenAndServe()
			}()

			select {
			case err = <-serverErr:
				return errors.Wrap(err, 0)
			case <-cmd.Context().Done():
				log.Info("Shutting down")
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringSliceVar(&extraPrefixes, "also-sweep", nil, "further prefixes swept on the same schedule")
	return cmd
}
