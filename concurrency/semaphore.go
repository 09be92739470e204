// concurrency/semaphore.go
/* Package concurrency bounds the number of requests in flight at once. Permits are
handed out from a buffered channel and each permit is tagged with a request ID. */
package concurrency

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AcquireConcurrencyPermit blocks until a permit is available or ctx is done.
// On success the returned context carries the permit's request ID under RequestIDKey.
//
// Example:
//
//	ctx, requestID, err := handler.AcquireConcurrencyPermit(ctx)
//	if err != nil {
//	    return err
//	}
//	defer handler.ReleaseConcurrencyPermit(requestID)
func (ch *ConcurrencyHandler) AcquireConcurrencyPermit(ctx context.Context) (context.Context, uuid.UUID, error) {
	start := time.Now()
	requestID := uuid.New()

	select {
	case ch.sem <- struct{}{}:
		waited := time.Since(start)

		ch.Metrics.Lock()
		ch.Metrics.TotalRequests++
		ch.Metrics.PermitWaitTime += waited
		ch.Metrics.Unlock()

		ch.logger.Debug("Acquired concurrency permit",
			zap.String("RequestID", requestID.String()),
			zap.Duration("AcquisitionTime", waited),
			zap.Int("UtilizedPermits", len(ch.sem)),
			zap.Int("AvailablePermits", cap(ch.sem)-len(ch.sem)),
		)

		return context.WithValue(ctx, RequestIDKey{}, requestID), requestID, nil

	case <-ctx.Done():
		ch.logger.Warn("Failed to acquire concurrency permit", zap.Error(ctx.Err()))
		return ctx, requestID, ctx.Err()
	}
}

// ReleaseConcurrencyPermit returns a permit to the pool.
func (ch *ConcurrencyHandler) ReleaseConcurrencyPermit(requestID uuid.UUID) {
	<-ch.sem

	ch.logger.Debug("Released concurrency permit",
		zap.String("RequestID", requestID.String()),
		zap.Int("UtilizedPermits", len(ch.sem)),
		zap.Int("AvailablePermits", cap(ch.sem)-len(ch.sem)),
	)
}

// RequestIDFromContext returns the request ID stored by AcquireConcurrencyPermit, if any.
func RequestIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(RequestIDKey{}).(uuid.UUID)
	return id, ok
}
