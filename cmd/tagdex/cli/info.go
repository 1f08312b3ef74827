package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show registry identity and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFromCmd(cmd)
			if err != nil {
				return err
			}
			defer reg.Close()

			regID, err := reg.RegistryID(cmd.Context())
			if err != nil {
				return err
			}
			ids, err := reg.List(cmd.Context())
			if err != nil {
				return err
			}

			backend, _ := cmd.Flags().GetString("backend")
			path, _ := cmd.Flags().GetString("store")

			p := printerFromCmd(cmd)
			if p.format == "json" {
				return p.json(map[string]any{
					"registry_id": regID,
					"backend":     backend,
					"store":       path,
					"tags":        len(ids),
				})
			}
			p.kv([][2]string{
				{"Registry ID", regID},
				{"Backend", backend},
				{"Store", path},
				{"Tags", strconv.Itoa(len(ids))},
			})
			return nil
		},
	}
}
