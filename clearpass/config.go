// clearpass/config.go
// Description: client configuration, default values and validation.
package clearpass

import (
	"errors"
	"fmt"
	"time"

	"github.com/netaccessctl/go-clearpass-client/concurrency"
	"github.com/netaccessctl/go-clearpass-client/logger"
)

const (
	DefaultGrantType             = "password"
	DefaultLogLevelString        = "LogLevelInfo"
	DefaultLogOutputFormatString = logger.LogOutputPretty
	DefaultLogConsoleSeparator   = "	"
	DefaultHideSensitiveData     = true
	DefaultInsecureSkipVerify    = false
	DefaultCustomTimeout         = 10 * time.Second
	DefaultFollowRedirects       = false
	DefaultMaxRedirects          = 5
	DefaultMaxConcurrentRequests = 1
)

// ClientConfig holds everything BuildClient needs. Credentials are read once during
// authentication and are not kept in a form that can be changed afterwards.
type ClientConfig struct {
	// Credentials
	Host         string `mapstructure:"host" json:"host"` // hostname, or a URL when the scheme is not https
	GrantType    string `mapstructure:"grant_type" json:"grant_type"`
	ClientID     string `mapstructure:"client_id" json:"client_id"`
	ClientSecret string `mapstructure:"client_secret" json:"client_secret"`
	Username     string `mapstructure:"username" json:"username"`
	Password     string `mapstructure:"password" json:"password"`

	// TLS
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" json:"insecure_skip_verify"`

	// Log
	LogLevel            string `mapstructure:"log_level" json:"log_level"`
	LogOutputFormat     string `mapstructure:"log_output_format" json:"log_output_format"` // "json" or "pretty"
	LogConsoleSeparator string `mapstructure:"log_console_separator" json:"log_console_separator"`
	HideSensitiveData   bool   `mapstructure:"hide_sensitive_data" json:"hide_sensitive_data"`

	// Transport
	CustomTimeout   time.Duration `mapstructure:"custom_timeout" json:"custom_timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects" json:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects" json:"max_redirects"`
	ProxyURL        string        `mapstructure:"proxy_url" json:"proxy_url"`
	ProxyUsername   string        `mapstructure:"proxy_username" json:"proxy_username"`
	ProxyPassword   string        `mapstructure:"proxy_password" json:"proxy_password"`

	Batch BatchPolicy `mapstructure:"batch" json:"batch"`

	// Logger overrides the logger built from the Log settings above.
	Logger logger.Logger `mapstructure:"-" json:"-"`
}

// SetDefaultValuesClientConfig fills in zero valued fields with their defaults.
// Booleans are left as supplied; their zero value is the default except for
// HideSensitiveData, which the loaders default to true.
func SetDefaultValuesClientConfig(config *ClientConfig) {
	setDefaultString(&config.GrantType, DefaultGrantType)
	setDefaultString(&config.LogLevel, DefaultLogLevelString)
	setDefaultString(&config.LogOutputFormat, DefaultLogOutputFormatString)
	setDefaultString(&config.LogConsoleSeparator, DefaultLogConsoleSeparator)
	setDefaultDuration(&config.CustomTimeout, DefaultCustomTimeout)
	setDefaultInt(&config.MaxRedirects, DefaultMaxRedirects, 1)
	setDefaultInt(&config.Batch.MaxConcurrentRequests, DefaultMaxConcurrentRequests, 1)
}

func validateClientConfig(config ClientConfig) error {
	if config.Host == "" {
		return errors.New("host is required")
	}

	if config.ClientID == "" {
		return errors.New("client id is required")
	}

	if config.GrantType == DefaultGrantType && (config.Username == "" || config.Password == "") {
		return errors.New("username and password are required for the password grant")
	}

	switch config.LogOutputFormat {
	case logger.LogOutputJSON, logger.LogOutputPretty:
	default:
		return fmt.Errorf("unsupported log output format %q", config.LogOutputFormat)
	}

	if config.CustomTimeout < 0 {
		return errors.New("timeout cannot be less than 0 seconds")
	}

	if config.FollowRedirects && config.MaxRedirects < 1 {
		return errors.New("max redirects cannot be less than 1")
	}

	if config.Batch.MaxConcurrentRequests < concurrency.MinConcurrency || config.Batch.MaxConcurrentRequests > concurrency.MaxConcurrency {
		return fmt.Errorf("maximum concurrent requests must be between %d and %d", concurrency.MinConcurrency, concurrency.MaxConcurrency)
	}

	return nil
}

func setDefaultString(field *string, defaultValue string) {
	if *field == "" {
		*field = defaultValue
	}
}

func setDefaultInt(field *int, defaultValue, minValue int) {
	if *field < minValue {
		*field = defaultValue
	}
}

func setDefaultDuration(field *time.Duration, defaultValue time.Duration) {
	if *field == 0 {
		*field = defaultValue
	}
}
