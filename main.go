// main is the entry point for the aimetrics CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ncolesummers/ai-code-metrics/cmd"
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/internal/iocache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd.SetRootContext(ctx)

	err := cmd.Execute()
	stop()
	iocache.CloseStores()
	if err != nil {
		contract.LogFatal("Error", err)
	}
}
