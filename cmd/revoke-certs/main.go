// Command revoke-certs revokes every certificate issued to CLEARPASS_IDENTITY by
// the CA numbered CLEARPASS_CA_ID. Revocation is confirmed unless
// CLEARPASS_CONFIRM_REVOKE is set to false.
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
		fmt.Fprintf(os.Stderr, "revoke-certs: %v\n", err)
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

	if !job.Env.IsSet("ca_id") {
		return fmt.Errorf("CLEARPASS_CA_ID is not set")
	}
	caID := job.Env.GetInt64("ca_id")
	confirm := job.Env.GetBool("confirm_revoke")

	ids, err := job.Client.ListCertificateIDs(ctx, identity)
	if err != nil {
		return err
	}
	job.Log.Info("Revoking certificates",
		zap.String("identity", identity),
		zap.Int64s("certificate_ids", ids),
		zap.Int64("ca_id", caID),
		zap.Bool("confirm_revoke", confirm),
	)

	result, err := job.Client.RevokeCertificates(ctx, ids, caID, confirm)
	job.Report("revoke_certificates", result)
	return err
}
