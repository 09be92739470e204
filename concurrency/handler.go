// concurrency/handler.go
package concurrency

import (
	"sync"
	"time"

	"github.com/netaccessctl/go-clearpass-client/logger"
)

// ConcurrencyHandler controls the number of concurrent HTTP requests.
type ConcurrencyHandler struct {
	sem     chan struct{}
	logger  logger.Logger
	Metrics *ConcurrencyMetrics
}

// ConcurrencyMetrics captures counters about permits handed out by a ConcurrencyHandler.
type ConcurrencyMetrics struct {
	TotalRequests  int64
	PermitWaitTime time.Duration
	sync.Mutex
}

// NewConcurrencyHandler initializes a new ConcurrencyHandler with the given concurrency limit.
// The limit is clamped to [MinConcurrency, MaxConcurrency].
func NewConcurrencyHandler(limit int, log logger.Logger, metrics *ConcurrencyMetrics) *ConcurrencyHandler {
	if limit < MinConcurrency {
		limit = MinConcurrency
	}
	if limit > MaxConcurrency {
		limit = MaxConcurrency
	}
	if metrics == nil {
		metrics = &ConcurrencyMetrics{}
	}
	return &ConcurrencyHandler{
		sem:     make(chan struct{}, limit),
		logger:  log,
		Metrics: metrics,
	}
}

// Limit returns the number of permits the handler was built with.
func (ch *ConcurrencyHandler) Limit() int {
	return cap(ch.sem)
}

// RequestIDKey is the context key under which the permit's request ID is stored.
type RequestIDKey struct{}
