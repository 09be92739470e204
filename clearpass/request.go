// clearpass/request.go
package clearpass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/netaccessctl/go-clearpass-client/concurrency"
	"github.com/netaccessctl/go-clearpass-client/response"
	"go.uber.org/zap"
)

// doRequest sends one authenticated API request. body, when not nil, is sent as JSON;
// out, when not nil, receives the decoded body of a 2xx response.
//
// It returns the response status code. A non-2xx response yields a *response.APIError;
// a request that got no response yields a status code of 0 and the transport error.
func (c *Client) doRequest(ctx context.Context, event, method, path string, body, out any) (int, error) {
	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, c.Logger.Error("Failed to create request", zap.String("method", method), zap.String("url", endpoint), zap.Error(err))
	}

	c.setRequestHeaders(req, body != nil)
	c.LogHeaders(req)

	if requestID, ok := concurrency.RequestIDFromContext(ctx); ok {
		c.Logger.Debug("Sending batch item request", zap.String("RequestID", requestID.String()), zap.String("method", method), zap.String("url", endpoint))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.Logger.LogError(event, method, endpoint, 0, err)
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.Logger.LogRequestEnd(event, method, endpoint, resp.StatusCode, time.Since(start))

	if response.IsRedirectStatusCode(resp.StatusCode) {
		c.Logger.Warn("Redirect response not followed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("location", resp.Header.Get("Location")),
		)
	}

	if !response.IsSuccessStatusCode(resp.StatusCode) {
		apiErr := response.HandleAPIErrorResponse(resp, c.Logger)
		c.Logger.LogError(event, method, endpoint, resp.StatusCode, apiErr)
		return resp.StatusCode, apiErr
	}

	if err := response.HandleAPISuccessResponse(resp, out, c.Logger); err != nil {
		return resp.StatusCode, err
	}
	return resp.StatusCode, nil
}
