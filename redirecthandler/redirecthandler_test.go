package redirecthandler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/netaccessctl/go-clearpass-client/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRequest(t *testing.T, method, rawURL string) *http.Request {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return &http.Request{Method: method, URL: u, Header: http.Header{}}
}

// TestRedirectHandler_CheckRedirect covers loop detection, the redirect limit,
// mutation requests and cross-host header stripping.
func TestRedirectHandler_CheckRedirect(t *testing.T) {
	tests := []struct {
		name        string
		via         []string
		viaMethod   string
		next        string
		maxRedirect int
		wantErr     any
		wantAuth    bool
	}{
		{
			name:        "same host redirect is followed",
			via:         []string{"https://cp.example.com/api/endpoint"},
			viaMethod:   http.MethodGet,
			next:        "https://cp.example.com/api/endpoint/",
			maxRedirect: 5,
			wantAuth:    true,
		},
		{
			name:        "cross host redirect strips authorization",
			via:         []string{"https://cp.example.com/api/endpoint"},
			viaMethod:   http.MethodGet,
			next:        "https://other.example.com/api/endpoint",
			maxRedirect: 5,
			wantAuth:    false,
		},
		{
			name:        "loop detected",
			via:         []string{"https://cp.example.com/a", "https://cp.example.com/b"},
			viaMethod:   http.MethodGet,
			next:        "https://cp.example.com/a",
			maxRedirect: 5,
			wantErr:     &RedirectLoopError{},
			wantAuth:    true,
		},
		{
			name:        "maximum reached",
			via:         []string{"https://cp.example.com/a", "https://cp.example.com/b"},
			viaMethod:   http.MethodGet,
			next:        "https://cp.example.com/c",
			maxRedirect: 2,
			wantErr:     &MaxRedirectsError{},
			wantAuth:    true,
		},
		{
			name:        "revoke POST never follows",
			via:         []string{"https://cp.example.com/api/certificate/7/revoke"},
			viaMethod:   http.MethodPost,
			next:        "https://cp.example.com/login",
			maxRedirect: 5,
			wantErr:     http.ErrUseLastResponse,
			wantAuth:    true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewRedirectHandler(logger.NewNopLogger(), tc.maxRedirect)

			var via []*http.Request
			for _, u := range tc.via {
				via = append(via, mustRequest(t, tc.viaMethod, u))
			}
			req := mustRequest(t, http.MethodGet, tc.next)
			req.Header.Set("Authorization", "Bearer token")

			err := handler.checkRedirect(req, via)

			switch want := tc.wantErr.(type) {
			case nil:
				assert.NoError(t, err)
			case *RedirectLoopError:
				var loopErr *RedirectLoopError
				assert.ErrorAs(t, err, &loopErr)
			case *MaxRedirectsError:
				var maxErr *MaxRedirectsError
				assert.ErrorAs(t, err, &maxErr)
			case error:
				assert.ErrorIs(t, err, want)
			}
			assert.Equal(t, tc.wantAuth, req.Header.Get("Authorization") != "")
		})
	}
}

func TestSetupRedirectHandler_Disabled(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer redirector.Close()

	client := &http.Client{}
	require.NoError(t, SetupRedirectHandler(client, false, 0, logger.NewNopLogger()))

	resp, err := client.Get(redirector.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestSetupRedirectHandler_Enabled(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer redirector.Close()

	client := &http.Client{}
	require.NoError(t, SetupRedirectHandler(client, true, 3, logger.NewNopLogger()))

	resp, err := client.Get(redirector.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSetupRedirectHandler_InvalidMax(t *testing.T) {
	err := SetupRedirectHandler(&http.Client{}, true, 0, logger.NewNopLogger())
	assert.Error(t, err)
}
