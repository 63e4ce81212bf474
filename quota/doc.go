// Package quota implements a local fixed-window admission gate for bounding
// the number of operation units a client issues against a shared cluster.
//
// A Gate is created with a unit budget and a window duration. Every
// operation calls Admit with its cost before dispatching; once the budget is
// exhausted the gate rejects further admissions until the window elapses.
// Rejections fail fast rather than blocking, leaving the retry decision to
// the caller.
//
// The window transition is evaluated lazily on each Admit call against the
// gate's clock, so no background goroutine or timer is involved. All state
// is guarded by a single mutex, making Admit linearizable across concurrent
// callers.
//
// # Usage
//
//	gate, err := quota.New(1000, time.Minute)
//	if err != nil {
//	    // handle error
//	}
//
//	if res := gate.Admit(1); !res.Allowed {
//	    return fmt.Errorf("%w: retry after %s", quota.ErrQuotaExceeded, res.RetryAfter())
//	}
//
// Penalize extends throttling when the cluster itself signals back-pressure,
// keeping local admission aligned with server-side rate limiting.
package quota
