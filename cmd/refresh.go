package cmd

import (
	"github.com/redhatinsights/es-index-lifecycle/controllers/database"
	"github.com/redhatinsights/es-index-lifecycle/controllers/pipeline"
	"github.com/spf13/cobra"
)

func newRefreshCmd(a *app) *cobra.Command {
	var mappingFile string
	var settingsFile string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the index behind the prefix alias from the document database",
		Long: `Rebuild the index behind the prefix alias from the document database.

A new timestamped index is created and filled with the rows of ESLM_DOCUMENTQUERY, which must
select an id and a json document column. The index is then optimized, the alias is moved to it
and old indices are swept. The new index is deleted if indexing fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, err := a.prefix()
			if err != nil {
				return err
			}
			mapping, err := readJSONFile(mappingFile)
			if err != nil {
				return err
			}
			settings, err := readJSONFile(settingsFile)
			if err != nil {
				return err
			}

			params := a.config.Parameters
			db := database.NewDatabase(database.DBParams{
				URL:   params.DatabaseURL.String(),
				Query: params.DocumentQuery.String(),
			})
			if err = db.Connect(cmd.Context()); err != nil {
				return err
			}
			defer db.Close()

			refresher := pipeline.NewRefresher(a.manager, db, pipeline.Options{
				Prefix:        prefix,
				DocumentType:  params.DocumentType.String(),
				Mapping:       mapping,
				Settings:      settings,
				BatchSize:     params.BulkBatchSize.Int(),
				MaxErrorRatio: params.MaxErrorRatio.Float(),
				Cleanup:       a.config.CleanupOptions(),
			})
			result, err := refresher.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&mappingFile, "mapping-file", "", `json file holding {"mappings": {...}}`)
	cmd.Flags().StringVar(&settingsFile, "settings-file", "", `json file holding {"settings": {...}}`)
	return cmd
}
