// Package ratelimit enforces a cooldown between accepted submissions from
// the same client.
//
// A Limiter answers one question: may this client submit now? If yes, the
// limiter records the attempt and starts a new cooldown. If no, nothing is
// recorded, so being denied never extends the wait.
//
// Two stores are provided: Memory for a single process and Redis for
// deployments running several replicas.
package ratelimit

import (
	"context"
	"time"
)

// DefaultCooldown is the minimum time between accepted submissions.
const DefaultCooldown = 5 * time.Minute

// UnknownClient is the identifier used when a request carries no client
// address headers. All such requests share one bucket.
const UnknownClient = "unknown"

// Limiter decides whether a client may perform a rate-limited action.
//
// Allow returns (true, nil) and records the attempt when the client is
// outside its cooldown, and (false, nil) without recording anything when it
// is inside. A non-nil error means the store could not be consulted.
type Limiter interface {
	Allow(ctx context.Context, clientID string) (bool, error)
}
