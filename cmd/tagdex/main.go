// Command tagdex manages a tag-id registry: it resolves tag names to
// compact integer ids against a sqlite or file backed store.
//
// Logging:
//   - Base logger is created from the --log-level flag
//   - Logger is passed to components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"tagdex/cmd/tagdex/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "tagdex:", err)
		os.Exit(1)
	}
}
