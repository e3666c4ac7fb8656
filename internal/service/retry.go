package service

import (
	"context"
	"log"
	"time"

	"swamptok/internal/model"
)

const retryDelay = 50 * time.Millisecond

// retryOnce runs op and retries it a single time on transient failure.
// Domain errors are final outcomes and never retried; every mutation passed
// here must be idempotent, so a duplicate run after an ambiguous failure
// converges to the same state.
func retryOnce(ctx context.Context, name string, op func() error) error {
	err := op()
	if err == nil || model.IsDomainError(err) {
		return err
	}

	log.Printf("[Service] %s retrying after error: err=%v", name, err)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(retryDelay):
	}

	return op()
}
