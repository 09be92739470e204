// proxy.go

package proxy

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/netaccessctl/go-clearpass-client/logger"
	"go.uber.org/zap"
)

// ConfigureTransport points the transport at an outbound HTTP proxy.
// Credentials, when both are set, are embedded in the proxy URL so net/http sends
// Proxy-Authorization on plain requests and on CONNECT.
func ConfigureTransport(transport *http.Transport, proxyURL, proxyUsername, proxyPassword string, log logger.Logger) error {
	if proxyURL == "" {
		return nil // No proxy configuration provided, nothing to do
	}

	parsedProxyURL, err := url.Parse(proxyURL)
	if err != nil {
		log.Error("Failed to parse proxy URL", zap.Error(err))
		return fmt.Errorf("invalid proxy URL: %w", err)
	}
	if parsedProxyURL.Scheme == "" || parsedProxyURL.Host == "" {
		return log.Error("Proxy URL must include scheme and host", zap.String("ProxyURL", proxyURL))
	}

	if proxyUsername != "" && proxyPassword != "" {
		parsedProxyURL.User = url.UserPassword(proxyUsername, proxyPassword)
	}

	transport.Proxy = http.ProxyURL(parsedProxyURL)

	log.Info("Proxy configured", zap.String("ProxyHost", parsedProxyURL.Host))
	return nil
}
