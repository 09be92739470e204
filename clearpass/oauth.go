// clearpass/oauth.go
package clearpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/netaccessctl/go-clearpass-client/headers/redact"
	"github.com/netaccessctl/go-clearpass-client/response"
	"github.com/netaccessctl/go-clearpass-client/version"
	"go.uber.org/zap"
)

const oauthTokenPath = "/api/oauth"

// OAuthResponse represents the response structure when obtaining an OAuth access token.
type OAuthResponse struct {
	AccessToken  string `json:"access_token"`            // AccessToken is the token that can be used in subsequent requests for authentication.
	ExpiresIn    int64  `json:"expires_in"`              // ExpiresIn specifies the duration in seconds after which the access token expires.
	TokenType    string `json:"token_type"`              // TokenType indicates the type of token, typically "Bearer".
	Scope        string `json:"scope,omitempty"`         // Scope lists the privileges granted to the token, if the server reports them.
	RefreshToken string `json:"refresh_token,omitempty"` // RefreshToken is returned by ClearPass but not used by this client.
}

// authenticate performs the password grant against {host}/api/oauth and returns the
// resulting session. Anything but 200 with a non-empty access_token is an AuthenticationError.
func (c *Client) authenticate(ctx context.Context, config ClientConfig) (Session, error) {
	data := url.Values{}
	data.Set("grant_type", config.GrantType)
	data.Set("client_id", config.ClientID)
	data.Set("client_secret", config.ClientSecret)
	data.Set("username", config.Username)
	data.Set("password", config.Password)

	endpoint := c.baseURL + oauthTokenPath

	c.Logger.Debug("Attempting to obtain OAuth token",
		zap.String("ClientID", config.ClientID),
		zap.String("GrantType", config.GrantType),
		zap.String("Username", config.Username),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		c.Logger.Error("Failed to create request for OAuth token", zap.Error(err))
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.GetUserAgentHeader())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.Logger.LogError("oauth_token", http.MethodPost, endpoint, 0, err)
		return Session{}, fmt.Errorf("clearpass: token request failed: %w", err)
	}
	defer resp.Body.Close()

	c.Logger.LogRequestEnd("oauth_token", http.MethodPost, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		apiErr := response.HandleAPIErrorResponse(resp, c.Logger)
		c.Logger.LogError("oauth_token", http.MethodPost, endpoint, resp.StatusCode, apiErr)
		return Session{}, &AuthenticationError{StatusCode: resp.StatusCode, APIError: apiErr}
	}

	oauthResp := &OAuthResponse{}
	if err := json.NewDecoder(resp.Body).Decode(oauthResp); err != nil {
		c.Logger.Error("Failed to decode OAuth response", zap.Error(err))
		return Session{}, &AuthenticationError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode OAuth response: %w", err)}
	}

	if oauthResp.AccessToken == "" {
		c.Logger.Error("Empty access token received")
		return Session{}, &AuthenticationError{StatusCode: resp.StatusCode, Err: errEmptyAccessToken}
	}

	session := Session{
		AccessToken: oauthResp.AccessToken,
		TokenType:   oauthResp.TokenType,
		ExpiresIn:   time.Duration(oauthResp.ExpiresIn) * time.Second,
		CreatedAt:   start,
	}

	redactedAccessToken := redact.RedactSensitiveHeaderData(c.hideSensitiveData, "AccessToken", session.AccessToken)
	c.Logger.Info("OAuth token obtained successfully",
		zap.String("AccessToken", redactedAccessToken),
		zap.Duration("ExpiresIn", session.ExpiresIn),
		zap.Time("ExpirationTime", session.ExpiresAt()),
	)

	return session, nil
}
