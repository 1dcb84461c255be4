package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCreateCmd(a *app) *cobra.Command {
	var mappingFile string
	var settingsFile string
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an index, named <prefix>_<UTC timestamp> unless --name is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mapping, err := readJSONFile(mappingFile)
			if err != nil {
				return err
			}
			settings, err := readJSONFile(settingsFile)
			if err != nil {
				return err
			}

			if name != "" {
				err = a.manager.CreateIndex(cmd.Context(), name, mapping, settings)
			} else {
				var prefix string
				if prefix, err = a.prefix(); err != nil {
					return err
				}
				name, err = a.manager.CreateTimestampedIndex(cmd.Context(), prefix, mapping, settings)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}

	cmd.Flags().StringVar(&mappingFile, "mapping-file", "", `json file holding {"mappings": {...}}`)
	cmd.Flags().StringVar(&settingsFile, "settings-file", "", `json file holding {"settings": {...}}`)
	cmd.Flags().StringVar(&name, "name", "", "exact index name")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.manager.DeleteIndex(cmd.Context(), args[0])
		},
	}
}

func newOptimizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize <index>",
		Short: "Force merge an index to one segment, best effort",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.manager.OptimizeIndex(cmd.Context(), args[0])
			return nil
		},
	}
}
