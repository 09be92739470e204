// clearpass/batch.go
package clearpass

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/netaccessctl/go-clearpass-client/concurrency"
	"github.com/netaccessctl/go-clearpass-client/response"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchPolicy decides how DeleteEndpoints, UpdateEndpoints and RevokeCertificates treat
// per-item failures. The zero value dispatches every item one after another and never
// reports per-item failures as an error.
type BatchPolicy struct {
	// Strict makes a batch return a *PartialFailureError when any item failed.
	Strict bool `mapstructure:"strict" json:"strict"`
	// StopOnFailure stops dispatching further items after the first failure.
	// Items already in flight are allowed to finish.
	StopOnFailure bool `mapstructure:"stop_on_failure" json:"stop_on_failure"`
	// MaxConcurrentRequests bounds how many items are in flight at once. 1 keeps
	// dispatch sequential and in input order.
	MaxConcurrentRequests int `mapstructure:"max_concurrent_requests" json:"max_concurrent_requests"`
}

// BatchResult describes what a batch operation did. It is returned even when the
// operation also returns an error.
type BatchResult struct {
	Total      int
	Dispatched int
	Failures   []ItemFailure // in input order
}

// Succeeded returns the number of dispatched items that did not fail.
func (r *BatchResult) Succeeded() int {
	return r.Dispatched - len(r.Failures)
}

// itemFunc performs the request for one item and returns its status code.
type itemFunc func(ctx context.Context, id string) (int, error)

// runBatch dispatches fn once per id under the client's BatchPolicy. Permits are
// acquired before each goroutine starts, so with a single permit requests go out
// strictly in input order.
func (c *Client) runBatch(ctx context.Context, operation string, ids []string, fn itemFunc) (*BatchResult, error) {
	log := c.Logger.With(zap.String("operation", operation))

	outcomes := make([]*ItemFailure, len(ids))
	dispatched := make([]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)

	// stopped is set by a failing item under StopOnFailure before it gives its permit
	// back, so the next acquirer always sees it.
	var stopped atomic.Bool

	for i, id := range ids {
		if stopped.Load() || gctx.Err() != nil {
			break
		}

		_, requestID, err := c.Concurrency.AcquireConcurrencyPermit(gctx)
		if err != nil {
			break
		}
		if stopped.Load() || gctx.Err() != nil {
			c.Concurrency.ReleaseConcurrencyPermit(requestID)
			break
		}

		// In-flight requests run on the caller's context so StopOnFailure does not abort them.
		itemCtx := context.WithValue(ctx, concurrency.RequestIDKey{}, requestID)

		dispatched[i] = true
		g.Go(func() error {
			defer c.Concurrency.ReleaseConcurrencyPermit(requestID)

			statusCode, err := fn(itemCtx, id)
			if err == nil {
				log.Debug("Batch item succeeded", zap.String("id", id), zap.Int("status_code", statusCode))
				return nil
			}

			outcomes[i] = &ItemFailure{ID: id, StatusCode: statusCode, Err: err}

			var apiErr *response.APIError
			if errors.As(err, &apiErr) {
				log.Info("Batch item rejected", zap.String("id", id), zap.Int("status_code", statusCode))
			} else {
				log.Warn("Batch item not delivered, skipping", zap.String("id", id), zap.Error(err))
			}

			if c.policy.StopOnFailure {
				stopped.Store(true)
				return outcomes[i]
			}
			return nil
		})
	}

	// The first StopOnFailure error is already recorded in outcomes.
	_ = g.Wait()

	result := &BatchResult{Total: len(ids)}
	for i := range ids {
		if dispatched[i] {
			result.Dispatched++
		}
		if outcomes[i] != nil {
			result.Failures = append(result.Failures, *outcomes[i])
		}
	}

	log.Info("Batch complete",
		zap.Int("total", result.Total),
		zap.Int("dispatched", result.Dispatched),
		zap.Int("failed", len(result.Failures)),
	)

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if c.policy.Strict && len(result.Failures) > 0 {
		return result, newPartialFailureError(operation, result.Total, result.Failures)
	}

	return result, nil
}
