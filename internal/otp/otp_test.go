package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyConsumesTicket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rm := NewRetentionMap(ctx, time.Minute)
	o := rm.Add()
	require.NotEmpty(t, o.Key)

	assert.True(t, rm.VerifyOTP(o.Key))
	assert.False(t, rm.VerifyOTP(o.Key))
	assert.False(t, rm.VerifyOTP("unknown"))
}

func TestExpiredTicketRejected(t *testing.T) {
	rm := newRetentionMap(time.Minute)
	base := time.Now()
	rm.now = func() time.Time { return base }
	o := rm.Add()

	rm.now = func() time.Time { return base.Add(2 * time.Minute) }
	assert.False(t, rm.VerifyOTP(o.Key))

	rm.Add()
	rm.sweep()
	assert.Equal(t, 1, rm.Len())
}

func TestRetentionSweeps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rm := NewRetentionMap(ctx, 10*time.Millisecond)
	rm.Add()
	rm.Add()

	assert.Eventually(t, func() bool { return rm.Len() == 0 }, 2*time.Second, 50*time.Millisecond)
}
