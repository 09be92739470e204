// clearpass/headers.go
package clearpass

import (
	"net/http"

	"github.com/netaccessctl/go-clearpass-client/headers/redact"
	"github.com/netaccessctl/go-clearpass-client/logger"
	"github.com/netaccessctl/go-clearpass-client/version"
	"go.uber.org/zap"
)

// SetAuthorizationHeader attaches the session's bearer token to req.
func (c *Client) SetAuthorizationHeader(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.session.AccessToken)
}

// setRequestHeaders sets the headers every authenticated API request carries.
func (c *Client) setRequestHeaders(req *http.Request, hasBody bool) {
	c.SetAuthorizationHeader(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.GetUserAgentHeader())
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

// LogHeaders prints the request headers at debug level, redacting credentials
// when HideSensitiveData is set.
func (c *Client) LogHeaders(req *http.Request) {
	if c.Logger.GetLogLevel() > logger.LogLevelDebug {
		return
	}

	redactedHeaders := make(map[string]string, len(req.Header))
	for name, values := range req.Header {
		if len(values) == 0 {
			continue
		}
		redactedHeaders[name] = redact.RedactSensitiveHeaderData(c.hideSensitiveData, name, values[0])
	}

	c.Logger.Debug("HTTP Request Headers", zap.Any("Headers", redactedHeaders))
}
