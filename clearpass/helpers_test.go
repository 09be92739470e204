package clearpass

import (
	"context"
	"testing"

	"github.com/netaccessctl/go-clearpass-client/clearpasstest"
	"github.com/netaccessctl/go-clearpass-client/logger"
	"github.com/stretchr/testify/require"
)

func testConfig(host string) ClientConfig {
	return ClientConfig{
		Host:         host,
		GrantType:    "password",
		ClientID:     clearpasstest.DefaultClientID,
		ClientSecret: "s3cret",
		Username:     clearpasstest.DefaultUsername,
		Password:     clearpasstest.DefaultPassword,
		Logger:       logger.NewNopLogger(),
	}
}

func newTestClient(t *testing.T, srv *clearpasstest.Server, policy BatchPolicy) *Client {
	t.Helper()
	config := testConfig(srv.URL)
	config.Batch = policy
	client, err := BuildClient(context.Background(), config)
	require.NoError(t, err)
	return client
}
