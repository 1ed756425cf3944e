package transport

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/aistore-io/shmq/cmn/cos"
)

// aLongTimeAgo is far enough in the past that setting it as a read/write
// deadline forces any in-flight syscall on the fd to return immediately,
// the same trick net/http's transport uses to cancel a blocked Read/Write
// on a connection it doesn't otherwise have a way to interrupt.
var aLongTimeAgo = time.Unix(1, 0)

// FIFOQueue is a Queue backed by a POSIX named pipe. Messages are framed
// with a 4-byte little-endian length prefix, since a FIFO is a byte stream
// with no message boundaries of its own.
//
// The pipe is opened O_RDWR rather than O_RDONLY/O_WRONLY on either side.
// Opening for read-only or write-only blocks until a peer opens the other
// end, which would otherwise force the two sides of CreatePair to
// coordinate open order; O_RDWR never blocks on open(2) for a FIFO. Only
// one side of a pair ever writes and the other ever reads, so this doesn't
// change the data-channel/ack-channel semantics, just the open call.
//
// A FIFO's fd is a special file, so the Go runtime integrates it with the
// network poller and honors SetReadDeadline/SetWriteDeadline the same way
// it would for a net.Conn. Send/Recv hold their mutex for the call's full
// duration and use a deadline, rather than a goroutine, to implement ctx
// cancellation: a second call racing in on the same fd after the first
// one's cancel would otherwise read or write a wrong, interleaved frame.
type FIFOQueue struct {
	path string
	f    *os.File

	writeMu sync.Mutex
	readMu  sync.Mutex
}

// NewFIFO creates (if not already present) and opens the named pipe at
// path.
func NewFIFO(path string) (*FIFOQueue, error) {
	if err := unix.Mkfifo(path, 0o600); err != nil && !os.IsExist(err) {
		return nil, cos.NewErrSegment("mkfifo", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR, os.ModeNamedPipe)
	if err != nil {
		return nil, cos.NewErrSegment("open-fifo", err)
	}
	return &FIFOQueue{path: path, f: f}, nil
}

// Path returns the filesystem path of the underlying named pipe, so it can
// be handed to a child process across fork/exec.
func (q *FIFOQueue) Path() string { return q.path }

func (q *FIFOQueue) Send(ctx context.Context, b []byte) error {
	frame := make([]byte, 4+len(b))
	binary.LittleEndian.PutUint32(frame, uint32(len(b)))
	copy(frame[4:], b)

	q.writeMu.Lock()
	defer q.writeMu.Unlock()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = q.f.SetWriteDeadline(aLongTimeAgo)
		case <-watchDone:
		}
	}()

	_, err := q.f.Write(frame)
	_ = q.f.SetWriteDeadline(time.Time{})

	if err != nil {
		if ctx.Err() != nil && os.IsTimeout(err) {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (q *FIFOQueue) Recv(ctx context.Context) ([]byte, error) {
	q.readMu.Lock()
	defer q.readMu.Unlock()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = q.f.SetReadDeadline(aLongTimeAgo)
		case <-watchDone:
		}
	}()

	b, err := q.recvFramed()
	_ = q.f.SetReadDeadline(time.Time{})

	if err != nil {
		if err == io.EOF {
			return nil, cos.ErrBrokenChannel
		}
		if ctx.Err() != nil && os.IsTimeout(err) {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return b, nil
}

// recvFramed reads one length-prefixed frame off the pipe. Called with
// readMu held and a deadline (possibly already expired) in effect.
func (q *FIFOQueue) recvFramed() ([]byte, error) {
	hdr := make([]byte, 4)
	if _, err := io.ReadFull(q.f, hdr); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(hdr)
	body := make([]byte, n)
	if _, err := io.ReadFull(q.f, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (q *FIFOQueue) Close() error {
	return q.f.Close()
}

// Unlink removes the named pipe's directory entry. Like a memsys segment,
// only the side that created the pair should call this.
func (q *FIFOQueue) Unlink() error {
	if err := os.Remove(q.path); err != nil && !os.IsNotExist(err) {
		return cos.NewErrSegment("unlink-fifo", err)
	}
	return nil
}
