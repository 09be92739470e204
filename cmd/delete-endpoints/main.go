// Command delete-endpoints removes every endpoint registered to CLEARPASS_IDENTITY.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/netaccessctl/go-clearpass-client/internal/jobenv"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "delete-endpoints: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	job, err := jobenv.Start(ctx)
	if err != nil {
		return err
	}

	identity, err := job.Identity()
	if err != nil {
		return err
	}

	macs, err := job.Client.ListEndpoints(ctx, identity)
	if err != nil {
		return err
	}
	job.Log.Info("Found endpoints", zap.String("identity", identity), zap.Strings("mac_addresses", macs))

	result, err := job.Client.DeleteEndpoints(ctx, macs)
	job.Report("delete_endpoints", result)
	return err
}
