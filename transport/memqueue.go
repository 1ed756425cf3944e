package transport

import (
	"context"

	"github.com/aistore-io/shmq/cmn/cos"
)

// MemQueue is an in-process Queue backed by a buffered Go channel. Used by
// the transport tests, where the cross-process survivability a FIFO
// provides isn't needed.
type MemQueue struct {
	ch     chan []byte
	closed chan struct{}
}

// NewMemQueue returns a Queue with room for capacity in-flight messages.
func NewMemQueue(capacity int) *MemQueue {
	return &MemQueue{ch: make(chan []byte, capacity), closed: make(chan struct{})}
}

func (q *MemQueue) Send(ctx context.Context, b []byte) error {
	cp := append([]byte(nil), b...)
	select {
	case q.ch <- cp:
		return nil
	case <-q.closed:
		return cos.ErrBrokenChannel
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemQueue) Recv(ctx context.Context) ([]byte, error) {
	select {
	case b, ok := <-q.ch:
		if !ok {
			return nil, cos.ErrBrokenChannel
		}
		return b, nil
	case <-q.closed:
		select {
		case b := <-q.ch:
			return b, nil
		default:
			return nil, cos.ErrBrokenChannel
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemQueue) Close() error {
	select {
	case <-q.closed:
	default:
		close(q.closed)
	}
	return nil
}
