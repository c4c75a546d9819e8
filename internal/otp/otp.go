// Package otp issues single-use tickets for websocket connections.
package otp

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const retentionTick = 400 * time.Millisecond

type OTP struct {
	Key     string    `json:"otp"`
	Created time.Time `json:"created"`
}

// RetentionMap holds tickets until they are used or older than maxAge.
type RetentionMap struct {
	mu     sync.Mutex
	otps   map[string]OTP
	maxAge time.Duration
	now    func() time.Time
}

// NewRetentionMap starts a retention goroutine that lives until ctx is done.
func NewRetentionMap(ctx context.Context, maxAge time.Duration) *RetentionMap {
	rm := newRetentionMap(maxAge)
	go rm.Retention(ctx)
	return rm
}

func newRetentionMap(maxAge time.Duration) *RetentionMap {
	return &RetentionMap{
		otps:   make(map[string]OTP),
		maxAge: maxAge,
		now:    time.Now,
	}
}

func (rm *RetentionMap) Add() OTP {
	o := OTP{
		Key:     uuid.NewString(),
		Created: rm.now(),
	}

	rm.mu.Lock()
	rm.otps[o.Key] = o
	rm.mu.Unlock()
	return o
}

// VerifyOTP consumes the ticket. Expired tickets fail even before the
// retention loop has swept them.
func (rm *RetentionMap) VerifyOTP(key string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	o, ok := rm.otps[key]
	if !ok {
		return false
	}
	delete(rm.otps, key)
	return !rm.expired(o)
}

func (rm *RetentionMap) Len() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.otps)
}

func (rm *RetentionMap) Retention(ctx context.Context) {
	ticker := time.NewTicker(retentionTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rm.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (rm *RetentionMap) sweep() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for key, o := range rm.otps {
		if rm.expired(o) {
			delete(rm.otps, key)
		}
	}
}

func (rm *RetentionMap) expired(o OTP) bool {
	return o.Created.Add(rm.maxAge).Before(rm.now())
}
