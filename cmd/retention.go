package cmd

import (
	"time"

	"github.com/redhatinsights/es-index-lifecycle/controllers/index"
	"github.com/spf13/cobra"
)

func newOlderThanCmd(a *app) *cobra.Command {
	var cutoff string

	cmd := &cobra.Command{
		Use:   "older-than",
		Short: "List the indices of a prefix created before a cutoff, newest first",
		Long: `List the indices of a prefix created before a cutoff, newest first.
The cutoff defaults to the retention cutoff, midnight UTC --days-to-keep days ago.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, err := a.prefix()
			if err != nil {
				return err
			}

			cutoffMillis := index.RetentionCutoff(time.Now(), a.config.Parameters.DaysToKeep.Int())
			if cutoff != "" {
				at, err := time.Parse(time.RFC3339, cutoff)
				if err != nil {
					return err
				}
				cutoffMillis = at.UnixNano() / int64(time.Millisecond)
			}

			indices, err := a.manager.GetIndicesOlderThan(cmd.Context(), prefix, cutoffMillis)
			if err != nil {
				return err
			}
			return printJSON(cmd, indices)
		},
	}

	cmd.Flags().StringVar(&cutoff, "cutoff", "", "RFC 3339 timestamp, e.g. 2024-01-05T00:00:00Z")
	return cmd
}

func newCleanupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete the indices of a prefix older than the retention window unless the alias uses them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, err := a.prefix()
			if err != nil {
				return err
			}
			return a.manager.CleanupOldIndices(cmd.Context(), prefix, a.config.CleanupOptions())
		},
	}
}
