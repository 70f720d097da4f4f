// Package service holds the directory's workflows: submitting, reviewing,
// rating and listing tools.
//
// Services depend on the narrow repository interfaces, never on a concrete
// backend, and return apperror values that the HTTP layer maps to status
// codes. Each storage call runs under its own timeout so a stalled backend
// cannot hold a request forever.
package service

import (
	"context"
	"time"
)

// DefaultStoreTimeout bounds a single storage call when none is configured.
const DefaultStoreTimeout = 5 * time.Second

// storeTimeout carries the per-call deadline shared by every service.
type storeTimeout time.Duration

func newStoreTimeout(d time.Duration) storeTimeout {
	if d <= 0 {
		d = DefaultStoreTimeout
	}
	return storeTimeout(d)
}

func (t storeTimeout) with(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(t))
}
