// Command keyledger bootstraps an offline PKI and identity hierarchy from
// a passphrase and keeps its audit ledger.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/keyledger/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
