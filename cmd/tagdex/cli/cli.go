// Package cli implements the tagdex command tree for inspecting and
// resolving tags against a registry. The CLI opens the backing store
// directly; there is no server in between.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tagdex/internal/logging"
	"tagdex/internal/tag"
	tagfile "tagdex/internal/tag/file"
	tagsqlite "tagdex/internal/tag/sqlite"
)

// NewRootCommand returns the tagdex root command with all subcommands
// wired in.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tagdex",
		Short:         "Manage a tag-id registry",
		Long:          "Resolve tag names to compact integer ids against a sqlite or file backed registry.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("store", "tags.db", "path to the registry store")
	cmd.PersistentFlags().String("backend", "sqlite", "registry backend: sqlite or file")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringP("output", "o", "table", "output format: table or json")

	cmd.AddCommand(
		newResolveCmd(),
		newListCmd(),
		newInfoCmd(),
	)

	return cmd
}

// registryFromCmd opens the registry selected by the persistent flags.
// The caller owns the returned registry and must close it.
func registryFromCmd(cmd *cobra.Command) (tag.Registry, error) {
	path, _ := cmd.Flags().GetString("store")
	backend, _ := cmd.Flags().GetString("backend")

	switch backend {
	case "sqlite":
		return tagsqlite.NewStore(path)
	case "file":
		return tagfile.NewStore(path), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want sqlite or file)", backend)
	}
}

// loggerFromCmd builds the base logger from the log-level flag.
func loggerFromCmd(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.New(os.Stderr, level)
}

func printerFromCmd(cmd *cobra.Command) *printer {
	format, _ := cmd.Flags().GetString("output")
	return &printer{format: format, w: cmd.OutOrStdout()}
}
