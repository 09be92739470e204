package proxy

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/netaccessctl/go-clearpass-client/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureTransport(t *testing.T) {
	target, err := url.Parse("https://clearpass.example.com/api/endpoint")
	require.NoError(t, err)

	tests := []struct {
		name     string
		proxyURL string
		user     string
		pass     string
		wantErr  bool
		wantNil  bool
		wantHost string
		wantUser string
	}{
		{name: "no proxy", wantNil: true},
		{name: "plain proxy", proxyURL: "http://proxy.local:3128", wantHost: "proxy.local:3128"},
		{name: "authenticated proxy", proxyURL: "http://proxy.local:3128", user: "svc", pass: "pw", wantHost: "proxy.local:3128", wantUser: "svc"},
		{name: "missing scheme", proxyURL: "proxy.local", wantErr: true},
		{name: "unparseable", proxyURL: "http://[::1", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transport := &http.Transport{}
			err := ConfigureTransport(transport, tc.proxyURL, tc.user, tc.pass, logger.NewNopLogger())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tc.wantNil {
				assert.Nil(t, transport.Proxy)
				return
			}
			require.NotNil(t, transport.Proxy)
			got, err := transport.Proxy(&http.Request{URL: target})
			require.NoError(t, err)
			assert.Equal(t, tc.wantHost, got.Host)
			if tc.wantUser != "" {
				require.NotNil(t, got.User)
				assert.Equal(t, tc.wantUser, got.User.Username())
			} else {
				assert.Nil(t, got.User)
			}
		})
	}
}
