package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAcquireSucceedsWithinBurst(t *testing.T) {
	l := New(5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.NoError(t, l.Acquire(ctx))
	}
}

func TestAcquireBlocksPastBurstUntilRefill(t *testing.T) {
	l := New(2)
	ctx := context.Background()

	assert.NoError(t, l.Acquire(ctx))
	assert.NoError(t, l.Acquire(ctx))

	start := time.Now()
	assert.NoError(t, l.Acquire(ctx))
	assert.Greater(t, time.Since(start), time.Duration(0))
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	l := New(1)
	ctx, cancel := context.WithCancel(context.Background())

	assert.NoError(t, l.Acquire(ctx)) // first token is free from the initial burst
	cancel()
	assert.Error(t, l.Acquire(ctx)) // second call must wait, and ctx is already done
}
