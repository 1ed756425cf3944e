package shmq

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/aistore-io/shmq/cmn/atomic"
	"github.com/aistore-io/shmq/cmn/cos"
	"github.com/aistore-io/shmq/cmn/debug"
	"github.com/aistore-io/shmq/cmn/nlog"
	"github.com/aistore-io/shmq/codec"
	"github.com/aistore-io/shmq/hk"
	"github.com/aistore-io/shmq/memsys"
	"github.com/aistore-io/shmq/transport"
)

const (
	stUninit = iota
	stInit
	stClosed
)

// Sender is the write end of a channel: it encodes a value, writes it into
// a fresh shared-memory segment, and hands the receiver a Descriptor over
// the data queue. A capacity semaphore bounds the number of segments in
// flight; a background drainer goroutine - grounded on the teacher's
// transport.Stream send-queue/send-completion-queue pair (workCh/cmplCh,
// sendLoop/cmplLoop) - reclaims segments as the receiver acks them.
type Sender struct {
	dataQ transport.Queue
	ackQ  transport.Queue

	cfg      Config
	capacity int64
	sem      *semaphore.Weighted // nil means unbounded (capacity <= 0)

	mu      sync.Mutex // guards open only; never held across channel I/O
	open    map[string]*memsys.Handle
	errs    cos.Errs
	state   atomic.Int32
	inFlight atomic.Int64

	drainerStop chan struct{}
	drainerDone chan struct{}

	dereg func() // hk.OnSignal deregistration

	// fifoPaths are the data/ack named-pipe paths this Sender created via
	// CreatePair; it alone unlinks them on Close (spec §3's ownership rule,
	// applied to the control channel too).
	fifoPaths [2]string
}

func newSender(cfg Config, capacity int, dataQ, ackQ transport.Queue) *Sender {
	s := &Sender{
		dataQ:       dataQ,
		ackQ:        ackQ,
		cfg:         cfg,
		capacity:    int64(capacity),
		open:        make(map[string]*memsys.Handle),
		drainerStop: make(chan struct{}),
		drainerDone: make(chan struct{}),
	}
	if capacity > 0 {
		s.sem = semaphore.NewWeighted(int64(capacity))
	}
	s.state.Store(stInit)
	s.dereg = hk.OnSignal("shmq-sender-"+cfg.SegmentPrefix+"-"+cos.GenID(), func() { _ = s.Close() })
	go s.drainAcks()
	return s
}

// Put encodes v, maps a new segment for it, and sends its Descriptor to
// the receiver, blocking until a capacity slot is free or ctx is done. If
// the Sender was created with capacity <= 0 (unbounded), it never blocks
// on capacity.
func (s *Sender) Put(ctx context.Context, v codec.Value) error {
	if s.state.Load() != stInit {
		return cos.ErrBrokenChannel
	}
	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			if ctx.Err() != nil {
				return cos.ErrTimeout
			}
			return err
		}
	}
	s.inFlight.Add(1)
	if err := s.put(ctx, v); err != nil {
		if s.sem != nil {
			s.sem.Release(1)
		}
		s.inFlight.Add(-1)
		return err
	}
	return nil
}

// PutNowait is Put's non-blocking counterpart: it returns cos.ErrFull
// immediately instead of waiting for capacity. An unbounded Sender
// (capacity <= 0) never returns cos.ErrFull.
func (s *Sender) PutNowait(v codec.Value) error {
	if s.state.Load() != stInit {
		return cos.ErrBrokenChannel
	}
	if s.sem != nil && !s.sem.TryAcquire(1) {
		return cos.ErrFull
	}
	s.inFlight.Add(1)
	if err := s.put(context.Background(), v); err != nil {
		if s.sem != nil {
			s.sem.Release(1)
		}
		s.inFlight.Add(-1)
		return err
	}
	return nil
}

// put does the actual encode/map/send; the caller has already reserved a
// capacity slot.
func (s *Sender) put(ctx context.Context, v codec.Value) error {
	buffers, err := codec.Encode(v)
	if err != nil {
		return err
	}
	name := cos.GenSegmentName(s.cfg.SegmentPrefix)
	desc := transport.NewDescriptor(name, buffers)

	h, err := memsys.Create(name, desc.TotalSize)
	if err != nil {
		s.escalate(err)
		return err
	}
	payload := make([]byte, 0, desc.TotalSize)
	for _, b := range buffers {
		payload = append(payload, b...)
	}
	if err := h.Write(payload); err != nil {
		_ = h.Close()
		_ = h.Unlink()
		s.escalate(err)
		return err
	}

	s.mu.Lock()
	s.open[name] = h
	s.mu.Unlock()

	if err := transport.SendDescriptor(ctx, s.dataQ, desc); err != nil {
		s.mu.Lock()
		delete(s.open, name)
		s.mu.Unlock()
		_ = h.Close()
		_ = h.Unlink()
		if ctx.Err() != nil {
			return cos.ErrTimeout
		}
		s.escalate(err)
		return err
	}
	return nil
}

// HasSpace reports whether Put/PutNowait would not have to wait for
// capacity right now. Backed by an atomic in-flight counter rather than
// acquiring-then-releasing the semaphore to "peek" it, which would briefly
// hold a slot a concurrent Put could need. The answer is observational
// only: the counter is updated just after a slot is acquired and just
// before it is released, and an ack or another Put can change it before
// the caller acts on it. An unbounded Sender (nil sem) always has space.
func (s *Sender) HasSpace() bool {
	if s.state.Load() != stInit {
		return false
	}
	return s.sem == nil || s.inFlight.Load() < s.capacity
}

// OpenCount returns the number of segments currently mapped and awaiting
// ack - a diagnostic the original implementation always tracked and
// exposed (see DESIGN.md).
func (s *Sender) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

// WaitForAllAck blocks until every segment sent so far has been
// acknowledged, or ctx is done.
func (s *Sender) WaitForAllAck(ctx context.Context) error {
	ticker := newTicker(s.cfg.PollQuantum)
	defer ticker.Stop()
	for {
		if s.inFlight.Load() == 0 {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return cos.ErrTimeout
		}
	}
}

// Close unlinks any segments still outstanding (a closing Sender no longer
// trusts the receiver to ack them), stops the drainer, and closes both
// queues. Safe to call more than once.
func (s *Sender) Close() error {
	if !s.state.CAS(stInit, stClosed) {
		if old := s.state.Load(); old == stClosed {
			return nil
		}
		s.state.Store(stClosed)
	}
	if s.dereg != nil {
		s.dereg()
	}
	close(s.drainerStop)
	<-s.drainerDone

	s.mu.Lock()
	for name, h := range s.open {
		if err := h.Close(); err != nil {
			s.errs.Add(err)
		}
		if err := h.Unlink(); err != nil {
			s.errs.Add(err)
		}
		delete(s.open, name)
	}
	s.mu.Unlock()

	if err := s.dataQ.Close(); err != nil {
		s.errs.Add(err)
	}
	if err := s.ackQ.Close(); err != nil {
		s.errs.Add(err)
	}
	for _, p := range s.fifoPaths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.errs.Add(err)
		}
	}
	if cnt, err := s.errs.JoinErr(); cnt > 0 {
		return err
	}
	return nil
}

// drainAcks is the ack-side analogue of the teacher's cmplLoop: it repurposes
// the send-completion-queue pattern to drain real acks - freeing the
// segment and the capacity slot it occupied - instead of firing a
// completion callback.
func (s *Sender) drainAcks() {
	defer close(s.drainerDone)
	ctx, cancel := contextWithStop(s.drainerStop)
	defer cancel()
	for {
		name, err := transport.RecvAck(ctx, s.ackQ)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			nlog.Errorf("shmq: ack drainer: %v, closing sender", err)
			// Close waits for drainerDone, which is closed when this returns.
			go func() { _ = s.Close() }()
			return
		}
		s.mu.Lock()
		h, ok := s.open[name]
		if ok {
			delete(s.open, name)
		}
		s.mu.Unlock()
		if !ok {
			debug.Assert(false) // ack for an unknown/already-reclaimed segment
			continue
		}
		if err := h.Close(); err != nil {
			s.errs.Add(err)
		}
		if err := h.Unlink(); err != nil {
			s.errs.Add(err)
		}
		s.inFlight.Add(-1)
		if s.sem != nil {
			s.sem.Release(1)
		}
	}
}

func (s *Sender) escalate(err error) {
	if s.state.Load() != stInit {
		return
	}
	s.errs.Add(err)
	nlog.Errorf("shmq: sender closing after put failure: %v", err)
	_ = s.Close()
}
