// response/success.go
/* Responsible for handling successful API responses. It reads the response body, logs the raw response
and unmarshals JSON content into the caller supplied value. */
package response

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/netaccessctl/go-clearpass-client/logger"
	"go.uber.org/zap"
)

// HandleAPISuccessResponse decodes a successful JSON response into out.
// A nil out, a 204 or an empty body are all accepted without decoding.
func HandleAPISuccessResponse(resp *http.Response, out any, log logger.Logger) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return log.Error("Failed to read response body", zap.Error(err))
	}

	log.Debug("Raw HTTP Response", zap.Int("status_code", resp.StatusCode), zap.Int("body_length", len(bodyBytes)))

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bodyBytes) == 0 {
		return nil
	}

	mimeType, _ := ParseContentTypeHeader(resp.Header.Get("Content-Type"))
	if mimeType != "" && mimeType != "application/json" && mimeType != "application/hal+json" {
		log.Warn("Unexpected content type on successful response, attempting JSON decode", zap.String("content_type", mimeType))
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		log.Warn("JSON Unmarshal error", zap.Error(err))
		return fmt.Errorf("failed to decode response body: %w", err)
	}

	return nil
}
