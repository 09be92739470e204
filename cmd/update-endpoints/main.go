// Command update-endpoints sets attributes on every endpoint registered to
// CLEARPASS_IDENTITY. Attributes are read from CLEARPASS_ATTRIBUTES as a JSON
// object, e.g. {"social_department":"New Department","social_jobTitle":"New Title"}.
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
		fmt.Fprintf(os.Stderr, "update-endpoints: %v\n", err)
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

	attrs := job.Env.GetStringMapString("attributes")
	if len(attrs) == 0 {
		return fmt.Errorf("CLEARPASS_ATTRIBUTES is not set or is not a JSON object")
	}

	macs, err := job.Client.ListEndpoints(ctx, identity)
	if err != nil {
		return err
	}
	job.Log.Info("Updating endpoints", zap.String("identity", identity), zap.Int("count", len(macs)), zap.Any("attributes", attrs))

	result, err := job.Client.UpdateEndpoints(ctx, macs, attrs)
	job.Report("update_endpoints", result)
	return err
}
