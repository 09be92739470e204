// clearpass/errors.go
package clearpass

import (
	"errors"
	"fmt"

	"github.com/netaccessctl/go-clearpass-client/response"
	"go.uber.org/multierr"
)

var errEmptyAccessToken = errors.New("token response did not contain an access_token")

// AuthenticationError is returned by BuildClient when the token endpoint rejects the
// password grant. No client is returned alongside it.
type AuthenticationError struct {
	StatusCode int
	APIError   *response.APIError // parsed error body, nil when the server answered 200
	Err        error              // set when a 200 response was unusable
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("clearpass: authentication failed with status code %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("clearpass: authentication failed with status code %d", e.StatusCode)
}

func (e *AuthenticationError) Unwrap() error {
	if e.APIError != nil {
		return e.APIError
	}
	return e.Err
}

// LookupError is returned when a filtered list request does not answer 200.
type LookupError struct {
	Resource   string // "endpoint" or "certificate"
	Identity   string
	StatusCode int
	APIError   *response.APIError
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("clearpass: %s lookup for %q failed with status code %d", e.Resource, e.Identity, e.StatusCode)
}

func (e *LookupError) Unwrap() error {
	if e.APIError != nil {
		return e.APIError
	}
	return nil
}

// InvalidArgumentError reports a caller supplied value the client refuses to send.
type InvalidArgumentError struct {
	Argument string
	Value    string
	Reason   string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("clearpass: invalid %s %q: %s", e.Argument, e.Value, e.Reason)
}

// ItemFailure records one mutation that did not succeed. StatusCode is 0 when the
// request never got a response.
type ItemFailure struct {
	ID         string
	StatusCode int
	Err        error
}

func (f ItemFailure) Error() string {
	if f.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", f.ID, f.Err)
	}
	return fmt.Sprintf("%s: status code %d", f.ID, f.StatusCode)
}

func (f ItemFailure) Unwrap() error {
	return f.Err
}

// PartialFailureError is returned by batch operations under a strict BatchPolicy when
// at least one item failed. Failures are listed in input order.
type PartialFailureError struct {
	Operation string
	Total     int
	Failures  []ItemFailure
	errs      error
}

func newPartialFailureError(operation string, total int, failures []ItemFailure) *PartialFailureError {
	var combined error
	for _, f := range failures {
		combined = multierr.Append(combined, f)
	}
	return &PartialFailureError{
		Operation: operation,
		Total:     total,
		Failures:  failures,
		errs:      combined,
	}
}

// Error lists every failed item with its cause, e.g.
// "clearpass: delete_endpoints failed for 2 of 3 items: aa: status code 404; bb: connection reset".
func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("clearpass: %s failed for %d of %d items: %v",
		e.Operation, len(e.Failures), e.Total, e.errs)
}

// Unwrap exposes every ItemFailure to errors.Is and errors.As.
func (e *PartialFailureError) Unwrap() []error {
	return multierr.Errors(e.errs)
}

// FailedIDs returns the identifiers of the failed items.
func (e *PartialFailureError) FailedIDs() []string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.ID)
	}
	return ids
}
