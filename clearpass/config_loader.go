// clearpass/config_loader.go
// Description: loads client configuration from a JSON or YAML file or from CLEARPASS_* environment variables.
package clearpass

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key when read from the environment,
// e.g. host is read from CLEARPASS_HOST and batch.strict from CLEARPASS_BATCH_STRICT.
const EnvPrefix = "CLEARPASS"

var supportedConfigExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// LoadConfigFromFile loads client configuration settings from a JSON or YAML file.
// Environment variables take precedence over values in the file.
func LoadConfigFromFile(path string) (*ClientConfig, error) {
	absPath, err := validateFilePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}

	v := NewViper()
	v.SetConfigFile(absPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return unmarshalConfig(v)
}

// LoadConfigFromEnv loads client configuration settings from environment variables.
// Unset variables fall back to the Default* constants.
func LoadConfigFromEnv() (*ClientConfig, error) {
	return unmarshalConfig(NewViper())
}

// NewViper returns a viper instance that knows every configuration key, its default,
// and how to find it in the environment. The example programs use it to read their
// own job parameters alongside the client settings.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a default are still registered so Unmarshal picks them up from the environment.
	v.SetDefault("host", "")
	v.SetDefault("grant_type", DefaultGrantType)
	v.SetDefault("client_id", "")
	v.SetDefault("client_secret", "")
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("insecure_skip_verify", DefaultInsecureSkipVerify)
	v.SetDefault("log_level", DefaultLogLevelString)
	v.SetDefault("log_output_format", DefaultLogOutputFormatString)
	v.SetDefault("log_console_separator", DefaultLogConsoleSeparator)
	v.SetDefault("hide_sensitive_data", DefaultHideSensitiveData)
	v.SetDefault("custom_timeout", DefaultCustomTimeout)
	v.SetDefault("follow_redirects", DefaultFollowRedirects)
	v.SetDefault("max_redirects", DefaultMaxRedirects)
	v.SetDefault("proxy_url", "")
	v.SetDefault("proxy_username", "")
	v.SetDefault("proxy_password", "")
	v.SetDefault("batch.strict", false)
	v.SetDefault("batch.stop_on_failure", false)
	v.SetDefault("batch.max_concurrent_requests", DefaultMaxConcurrentRequests)

	return v
}

func unmarshalConfig(v *viper.Viper) (*ClientConfig, error) {
	var config ClientConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("could not decode configuration: %w", err)
	}

	SetDefaultValuesClientConfig(&config)

	return &config, nil
}

func validateFilePath(path string) (string, error) {
	cleanPath := filepath.Clean(path)

	absPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		return "", fmt.Errorf("unable to resolve the configuration file %s: %w", path, err)
	}

	if !supportedConfigExtensions[strings.ToLower(filepath.Ext(absPath))] {
		return "", fmt.Errorf("invalid file extension for configuration file: %s, expected .json or .yaml", path)
	}

	return absPath, nil
}
