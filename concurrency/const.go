// concurrency/const.go
package concurrency

const (
	// MaxConcurrency caps the number of in-flight requests a single client will issue.
	MaxConcurrency = 10

	// MinConcurrency is the sequential setting, and the default.
	MinConcurrency = 1
)
