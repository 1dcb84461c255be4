package cmd

import (
	"github.com/redhatinsights/es-index-lifecycle/controllers/index"
	"github.com/spf13/cobra"
)

func newAliasCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Read and move aliases",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <alias>",
		Short: "List the indices behind an alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := a.manager.GetIndicesForAlias(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, indices)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <alias> <index>",
		Short: "Point an alias at one index and nothing else",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.manager.SetAliasToSingleIndex(cmd.Context(), args[0], args[1])
		},
	})

	var add []string
	var remove []string
	update := &cobra.Command{
		Use:   "update <alias>",
		Short: "Add and remove indices of an alias in one request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.manager.UpdateAlias(cmd.Context(), args[0], index.AliasUpdate{Add: add, Remove: remove})
		},
	}
	update.Flags().StringSliceVar(&add, "add", nil, "indices to bind to the alias")
	update.Flags().StringSliceVar(&remove, "remove", nil, "indices to unbind from the alias")
	cmd.AddCommand(update)

	return cmd
}
