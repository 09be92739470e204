package clearpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/netaccessctl/go-clearpass-client/clearpasstest"
	"github.com/netaccessctl/go-clearpass-client/mocklogger"
	"github.com/netaccessctl/go-clearpass-client/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedEndpoints(srv *clearpasstest.Server, n int) []string {
	macs := make([]string, n)
	for i := range macs {
		macs[i] = fmt.Sprintf("aa:00:00:00:00:%02x", i)
		srv.AddEndpoint("alice@example.com", macs[i], nil)
	}
	return macs
}

func TestBatch_StrictAggregatesFailures(t *testing.T) {
	srv := clearpasstest.NewServer()
	defer srv.Close()
	macs := seedEndpoints(srv, 4)
	srv.FailRequest(http.MethodDelete, "/api/endpoint/mac-address/"+macs[1], http.StatusNotFound)
	srv.FailRequest(http.MethodDelete, "/api/endpoint/mac-address/"+macs[3], http.StatusInternalServerError)

	client := newTestClient(t, srv, BatchPolicy{Strict: true})

	result, err := client.DeleteEndpoints(context.Background(), macs)
	require.Error(t, err)

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "delete_endpoints", partial.Operation)
	assert.Equal(t, 4, partial.Total)
	assert.Equal(t, []string{macs[1], macs[3]}, partial.FailedIDs())
	assert.Equal(t, http.StatusNotFound, partial.Failures[0].StatusCode)
	assert.Equal(t, http.StatusInternalServerError, partial.Failures[1].StatusCode)

	var apiErr *response.APIError
	assert.ErrorAs(t, err, &apiErr)

	// Strict does not stop dispatch on its own.
	assert.Equal(t, 4, result.Dispatched)
	assert.Len(t, srv.RequestsFor(http.MethodDelete), 4)
}

func TestBatch_StopOnFailure(t *testing.T) {
	srv := clearpasstest.NewServer()
	defer srv.Close()
	macs := seedEndpoints(srv, 5)
	srv.FailRequest(http.MethodDelete, "/api/endpoint/mac-address/"+macs[1], http.StatusForbidden)

	client := newTestClient(t, srv, BatchPolicy{Strict: true, StopOnFailure: true})

	result, err := client.DeleteEndpoints(context.Background(), macs)

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{macs[1]}, partial.FailedIDs())
	assert.Equal(t, 2, result.Dispatched)
	assert.Equal(t, 5, result.Total)

	deletes := srv.RequestsFor(http.MethodDelete)
	require.Len(t, deletes, 2)
	assert.Equal(t, "/api/endpoint/mac-address/"+macs[0], deletes[0].Path)
	assert.Equal(t, "/api/endpoint/mac-address/"+macs[1], deletes[1].Path)
}

func TestBatch_StopOnFailureWithoutStrict(t *testing.T) {
	srv := clearpasstest.NewServer()
	defer srv.Close()
	macs := seedEndpoints(srv, 3)
	srv.FailRequest(http.MethodDelete, "/api/endpoint/mac-address/"+macs[0], http.StatusForbidden)

	client := newTestClient(t, srv, BatchPolicy{StopOnFailure: true})

	result, err := client.DeleteEndpoints(context.Background(), macs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dispatched)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, macs[0], result.Failures[0].ID)
}

func TestBatch_BoundedConcurrency(t *testing.T) {
	srv := clearpasstest.NewServer()
	defer srv.Close()
	macs := seedEndpoints(srv, 20)
	failing := map[int]bool{3: true, 11: true, 17: true}
	for i := range failing {
		srv.FailRequest(http.MethodPatch, "/api/endpoint/mac-address/"+macs[i], http.StatusBadGateway)
	}

	client := newTestClient(t, srv, BatchPolicy{Strict: true, MaxConcurrentRequests: 4})

	result, err := client.UpdateEndpoints(context.Background(), macs, map[string]string{"social_department": "Ops"})

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{macs[3], macs[11], macs[17]}, partial.FailedIDs())
	assert.Equal(t, 20, result.Dispatched)
	assert.Len(t, srv.RequestsFor(http.MethodPatch), 20)
	assert.Equal(t, int64(20), client.Concurrency.Metrics.TotalRequests)

	for i, mac := range macs {
		endpoint, ok := srv.Endpoint(mac)
		require.True(t, ok)
		if failing[i] {
			assert.NotContains(t, endpoint.Attributes, "social_department")
		} else {
			assert.Equal(t, "Ops", endpoint.Attributes["social_department"])
		}
	}
}

// flakyServer answers the token route and 204 for every DELETE except those whose
// path ends in "/broken", where it drops the connection without a response.
func flakyServer(t *testing.T, deletes *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/oauth" {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok"})
			return
		}
		atomic.AddInt32(deletes, 1)
		if strings.HasSuffix(r.URL.Path, "/broken") {
			if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
				conn.Close()
			}
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestBatch_TransportFailureSkippedByDefault(t *testing.T) {
	var deletes int32
	srv := flakyServer(t, &deletes)
	defer srv.Close()

	client, err := BuildClient(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)

	result, err := client.DeleteEndpoints(context.Background(), []string{"ok1", "broken", "ok2"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Dispatched)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "broken", result.Failures[0].ID)
	assert.Zero(t, result.Failures[0].StatusCode)
	assert.Error(t, result.Failures[0].Err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&deletes), int32(3))
}

func TestBatch_TransportFailureStrict(t *testing.T) {
	var deletes int32
	srv := flakyServer(t, &deletes)
	defer srv.Close()

	config := testConfig(srv.URL)
	config.Batch = BatchPolicy{Strict: true}
	client, err := BuildClient(context.Background(), config)
	require.NoError(t, err)

	_, err = client.DeleteEndpoints(context.Background(), []string{"ok1", "broken"})

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{"broken"}, partial.FailedIDs())
	assert.Zero(t, partial.Failures[0].StatusCode)
}

func TestBatch_CanceledContext(t *testing.T) {
	srv := clearpasstest.NewServer()
	defer srv.Close()
	macs := seedEndpoints(srv, 3)

	client := newTestClient(t, srv, BatchPolicy{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := client.DeleteEndpoints(ctx, macs)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Dispatched)
	assert.Empty(t, srv.RequestsFor(http.MethodDelete))
}

func TestBatch_TransportFailureIsLogged(t *testing.T) {
	var deletes int32
	srv := flakyServer(t, &deletes)
	defer srv.Close()

	mockLog := mocklogger.NewMockLogger()
	mockLog.On("Debug", mock.Anything, mock.Anything).Maybe()
	mockLog.On("Info", mock.Anything, mock.Anything).Maybe()
	mockLog.On("LogRequestEnd", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	mockLog.On("LogError", "delete_endpoint", http.MethodDelete, srv.URL+"/api/endpoint/mac-address/broken", 0, mock.Anything).Once()
	mockLog.On("Warn", "Batch item not delivered, skipping", mock.Anything).Once()

	config := testConfig(srv.URL)
	config.Logger = mockLog
	client, err := BuildClient(context.Background(), config)
	require.NoError(t, err)

	_, err = client.DeleteEndpoints(context.Background(), []string{"broken"})
	require.NoError(t, err)

	mockLog.AssertExpectations(t)
}
