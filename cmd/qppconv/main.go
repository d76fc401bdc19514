// qppconv converts QRDA Category III documents into QPP submission JSON.
//
// Usage:
//
//	qppconv convert <file.xml>... [--scope NAME]... [--parallel N] [--output-dir DIR] [--db PATH]
//	qppconv validate <file.xml>... [--scope NAME]...
//	qppconv scopes
//	qppconv templates
//	qppconv test <scenarios-dir> [--update] [--filter GLOB]
//	qppconv history [show <id> | messages] --db PATH
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/qppconv/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qppconv: %v\n", err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
