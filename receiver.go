package shmq

import (
	"context"

	"github.com/aistore-io/shmq/cmn/atomic"
	"github.com/aistore-io/shmq/cmn/cos"
	"github.com/aistore-io/shmq/cmn/nlog"
	"github.com/aistore-io/shmq/codec"
	"github.com/aistore-io/shmq/hk"
	"github.com/aistore-io/shmq/memsys"
	"github.com/aistore-io/shmq/transport"
)

// Receiver is the read end of a channel: it receives a Descriptor, maps
// the segment it names, decodes the buffers it holds, and - only once
// decoding succeeds - acknowledges the segment back to the Sender so it
// can be reclaimed. A failed decode is never acked (spec §4.4's
// no-ack-on-failed-decode rule): the segment is left for the Sender's own
// teardown path rather than silently freed out from under a value the
// caller never got to see.
type Receiver struct {
	dataQ transport.Queue
	ackQ  transport.Queue

	state atomic.Int32
	dereg func()
}

func newReceiver(dataQ, ackQ transport.Queue) *Receiver {
	r := &Receiver{dataQ: dataQ, ackQ: ackQ}
	r.state.Store(stInit)
	r.dereg = hk.OnSignal("shmq-receiver-"+cos.GenID(), func() { _ = r.Close() })
	return r
}

// Get receives the next Descriptor, maps its segment, decodes it, acks it,
// and returns the decoded Value, blocking until one is available or ctx is
// done.
func (r *Receiver) Get(ctx context.Context) (codec.Value, error) {
	if r.state.Load() != stInit {
		return nil, cos.ErrBrokenChannel
	}
	desc, err := transport.RecvDescriptor(ctx, r.dataQ)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cos.ErrTimeout
		}
		return nil, err
	}
	return r.consume(ctx, desc)
}

// GetNowait is Get's non-blocking counterpart: it returns cos.ErrEmpty
// immediately instead of waiting for the next Descriptor.
func (r *Receiver) GetNowait() (codec.Value, error) {
	if r.state.Load() != stInit {
		return nil, cos.ErrBrokenChannel
	}
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	desc, err := transport.RecvDescriptor(ctx, r.dataQ)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cos.ErrEmpty
		}
		return nil, err
	}
	return r.consume(context.Background(), desc)
}

func (r *Receiver) consume(ctx context.Context, desc transport.Descriptor) (codec.Value, error) {
	h, err := memsys.Open(desc.Name, desc.TotalSize)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	buffers, err := desc.Buffers(h.Bytes())
	if err != nil {
		return nil, err // no ack: receiver never saw a usable value
	}
	v, err := codec.Decode(buffers)
	if err != nil {
		return nil, err // no ack: decode failed, segment left for Sender to reclaim
	}
	if ackErr := transport.SendAck(ctx, r.ackQ, desc.Name); ackErr != nil {
		// the value already decoded successfully; an ack failure is the
		// Sender's reclamation problem, not a reason to fail the caller's Get.
		nlog.Warningf("shmq: ack for segment %s failed: %v", desc.Name, ackErr)
	}
	return v, nil
}

// Close closes both queues. Safe to call more than once.
func (r *Receiver) Close() error {
	if !r.state.CAS(stInit, stClosed) {
		return nil
	}
	if r.dereg != nil {
		r.dereg()
	}
	var errs cos.Errs
	if err := r.dataQ.Close(); err != nil {
		errs.Add(err)
	}
	if err := r.ackQ.Close(); err != nil {
		errs.Add(err)
	}
	if cnt, err := errs.JoinErr(); cnt > 0 {
		return err
	}
	return nil
}

