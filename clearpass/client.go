// clearpass/client.go
/* Package clearpass is a client for the ClearPass REST API. A Client authenticates once
with an OAuth password grant when it is built, then looks up a user's endpoints and
certificates and deletes, updates or revokes them one request per item. */
package clearpass

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"

	"github.com/netaccessctl/go-clearpass-client/concurrency"
	"github.com/netaccessctl/go-clearpass-client/logger"
	"github.com/netaccessctl/go-clearpass-client/proxy"
	"github.com/netaccessctl/go-clearpass-client/redirecthandler"
	"go.uber.org/zap"
)

// Client is an authenticated ClearPass API client. It is safe for concurrent use;
// the session is read-only once BuildClient returns.
type Client struct {
	baseURL           string
	http              *http.Client
	session           Session
	policy            BatchPolicy
	hideSensitiveData bool

	Logger      logger.Logger
	Concurrency *concurrency.ConcurrencyHandler
}

// BuildClient validates config, prepares the HTTP transport and authenticates.
// On an AuthenticationError no client is returned.
func BuildClient(ctx context.Context, config ClientConfig) (*Client, error) {
	SetDefaultValuesClientConfig(&config)

	if err := validateClientConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := config.Logger
	if log == nil {
		parsedLogLevel := logger.ParseLogLevelFromString(config.LogLevel)
		log = logger.BuildLogger(parsedLogLevel, config.LogOutputFormat, config.LogConsoleSeparator)
		log.SetLevel(parsedLogLevel)
	}

	httpClient, err := buildHTTPClient(config, log)
	if err != nil {
		return nil, err
	}

	client := &Client{
		baseURL:           normalizeHost(config.Host),
		http:              httpClient,
		policy:            config.Batch,
		hideSensitiveData: config.HideSensitiveData,
		Logger:            log,
		Concurrency:       concurrency.NewConcurrencyHandler(config.Batch.MaxConcurrentRequests, log, nil),
	}

	session, err := client.authenticate(ctx, config)
	if err != nil {
		return nil, err
	}
	client.session = session

	log.Debug("ClearPass client initialized",
		zap.String("BaseURL", client.baseURL),
		zap.Bool("InsecureSkipVerify", config.InsecureSkipVerify),
		zap.Duration("Timeout", config.CustomTimeout),
		zap.Bool("FollowRedirects", config.FollowRedirects),
		zap.Bool("StrictBatch", config.Batch.Strict),
		zap.Bool("StopOnFailure", config.Batch.StopOnFailure),
		zap.Int("MaxConcurrentRequests", config.Batch.MaxConcurrentRequests),
	)

	return client, nil
}

func buildHTTPClient(config ClientConfig, log logger.Logger) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: config.InsecureSkipVerify, // #nosec G402 -- opt-in for appliances with self-signed certificates
	}
	if config.InsecureSkipVerify {
		log.Warn("TLS certificate verification is disabled")
	}

	if err := proxy.ConfigureTransport(transport, config.ProxyURL, config.ProxyUsername, config.ProxyPassword, log); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	httpClient := &http.Client{
		Timeout:   config.CustomTimeout,
		Transport: transport,
	}

	if err := redirecthandler.SetupRedirectHandler(httpClient, config.FollowRedirects, config.MaxRedirects, log); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return httpClient, nil
}

// normalizeHost turns a bare ClearPass hostname into an https base URL. Hosts that
// already carry a scheme are kept as given.
func normalizeHost(host string) string {
	host = strings.TrimRight(host, "/")
	if strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

// Session returns a copy of the session obtained at construction.
func (c *Client) Session() Session {
	return c.session
}

// BatchPolicy returns the policy applied to DeleteEndpoints, UpdateEndpoints and RevokeCertificates.
func (c *Client) BatchPolicy() BatchPolicy {
	return c.policy
}

// WithBatchPolicy returns a client sharing this client's session and transport
// but applying policy to batch operations.
func (c *Client) WithBatchPolicy(policy BatchPolicy) *Client {
	if policy.MaxConcurrentRequests < concurrency.MinConcurrency {
		policy.MaxConcurrentRequests = DefaultMaxConcurrentRequests
	}
	clone := *c
	clone.policy = policy
	clone.Concurrency = concurrency.NewConcurrencyHandler(policy.MaxConcurrentRequests, c.Logger, nil)
	return &clone
}
