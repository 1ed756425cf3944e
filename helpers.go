package shmq

import (
	"context"
	"time"
)

// newTicker returns a ticker at d, falling back to the default poll
// quantum if d is non-positive (a zero-value Config would otherwise panic
// time.NewTicker).
func newTicker(d time.Duration) *time.Ticker {
	if d <= 0 {
		d = DefaultConfig().PollQuantum
	}
	return time.NewTicker(d)
}

// contextWithStop adapts a stop channel (closed once, never sent on) into
// a context that's Done() when the channel closes, so code already
// structured around context cancellation (transport.Queue's Send/Recv) can
// also be unblocked by Close().
func contextWithStop(stop <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
