package cli

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"tagdex/internal/tag"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve NAME...",
		Short: "Resolve tag names to ids, creating missing tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFromCmd(cmd)
			if err != nil {
				return err
			}
			defer reg.Close()

			logger, err := loggerFromCmd(cmd)
			if err != nil {
				return err
			}
			maxRetries, _ := cmd.Flags().GetInt("max-retries")

			names := make([]tag.Name, len(args))
			for i, a := range args {
				names[i] = tag.Name(a)
			}

			resolver := tag.New(reg, tag.Config{
				MaxRetries: &maxRetries,
				Logger:     logger,
			})
			ids, err := resolver.ResolveAll(cmd.Context(), names)
			if err != nil {
				return err
			}

			return printTags(printerFromCmd(cmd), ids)
		},
	}

	cmd.Flags().Int("max-retries", tag.DefaultMaxRetries, "create retry budget per tag")

	return cmd
}

// printTags renders a name → id mapping sorted by name.
func printTags(p *printer, ids map[tag.Name]tag.ID) error {
	if p.format == "json" {
		out := make(map[string]int64, len(ids))
		for name, id := range ids {
			out[string(name)] = int64(id)
		}
		return p.json(out)
	}

	names := make([]tag.Name, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{string(name), strconv.FormatInt(int64(ids[name]), 10)}
	}
	p.table([]string{"NAME", "ID"}, rows)
	return nil
}
