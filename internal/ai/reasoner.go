// Package ai is the boundary to the hosted reasoning service: it builds the
// prompts, invokes a backend, and turns the untrusted free-text reply into a
// validated per-section article selection.
package ai

import (
	"context"
	"errors"
)

// Reasoner is a single synchronous call to a reasoning backend. The reply is
// free text expected to contain a JSON object; callers must treat it as
// untrusted and run it through ParseSelection.
type Reasoner interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Sentinel errors for routing failures. Both route the orchestrator to the
// fallback categorizer; they are kept distinct for logging only.
var (
	// ErrQuotaExceeded marks rate-limit and quota-exhausted responses. The
	// response body is never interpreted in this case.
	ErrQuotaExceeded = errors.New("reasoning service quota exceeded")

	// ErrUnavailable marks transport failures and non-2xx statuses.
	ErrUnavailable = errors.New("reasoning service unavailable")
)
