package cli

import (
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tags in the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFromCmd(cmd)
			if err != nil {
				return err
			}
			defer reg.Close()

			ids, err := reg.List(cmd.Context())
			if err != nil {
				return err
			}
			return printTags(printerFromCmd(cmd), ids)
		},
	}
}
