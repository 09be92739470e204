// Package jobenv sets up the example programs: client configuration and job
// parameters both come from CLEARPASS_* environment variables.
package jobenv

import (
	"context"
	"fmt"

	"github.com/netaccessctl/go-clearpass-client/clearpass"
	"github.com/netaccessctl/go-clearpass-client/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Job bundles the authenticated client with the environment it was built from.
type Job struct {
	Client *clearpass.Client
	Env    *viper.Viper
	Log    logger.Logger
}

// Start loads the configuration from the environment and authenticates.
func Start(ctx context.Context) (*Job, error) {
	config, err := clearpass.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	logLevel := logger.ParseLogLevelFromString(config.LogLevel)
	log := logger.BuildLogger(logLevel, config.LogOutputFormat, config.LogConsoleSeparator)
	log.SetLevel(logLevel)
	config.Logger = log

	client, err := clearpass.BuildClient(ctx, *config)
	if err != nil {
		return nil, err
	}

	return &Job{Client: client, Env: newJobViper(), Log: log}, nil
}

// newJobViper adds the job parameter defaults to the client configuration keys.
// Revocation is confirmed unless CLEARPASS_CONFIRM_REVOKE says otherwise.
func newJobViper() *viper.Viper {
	v := clearpass.NewViper()
	v.SetDefault("confirm_revoke", true)
	return v
}

// Identity returns the user the job acts on, read from CLEARPASS_IDENTITY.
func (j *Job) Identity() (string, error) {
	identity := j.Env.GetString("identity")
	if identity == "" {
		return "", fmt.Errorf("%s_IDENTITY is not set", clearpass.EnvPrefix)
	}
	return identity, nil
}

// Report logs the outcome of a batch operation.
func (j *Job) Report(operation string, result *clearpass.BatchResult) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.Int("total", result.Total),
		zap.Int("dispatched", result.Dispatched),
		zap.Int("failed", len(result.Failures)),
	}
	for _, f := range result.Failures {
		j.Log.Warn("Item failed", zap.String("id", f.ID), zap.Int("status_code", f.StatusCode), zap.Error(f.Err))
	}
	j.Log.Info("Batch finished", fields...)
}
