// Package cos provides common low-level types and utilities shared across shmq packages.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"errors"
	"fmt"
	"os"
	"sync"
	ratomic "sync/atomic"

	goerrors "github.com/pkg/errors"

	"github.com/aistore-io/shmq/cmn/debug"
)

// channel error taxonomy (spec §7)
type (
	ErrUnsupportedType struct {
		what string
	}
	ErrMalformedData struct {
		reason string
	}
	ErrSegment struct {
		op  string
		err error
	}
	Errs struct {
		errs []error
		cnt  int64
		mu   sync.Mutex
	}
)

var (
	// ErrFull: non-blocking or timed put at capacity.
	ErrFull = errors.New("sender is at capacity")
	// ErrEmpty: non-blocking get with nothing available.
	ErrEmpty = errors.New("receiver has nothing available")
	// ErrTimeout: a timed blocking operation elapsed.
	ErrTimeout = errors.New("operation timed out")
	// ErrBrokenChannel: the local or peer endpoint is closed.
	ErrBrokenChannel = errors.New("channel is closed")
)

// ErrUnsupportedType

func NewErrUnsupportedType(format string, a ...any) *ErrUnsupportedType {
	return &ErrUnsupportedType{fmt.Sprintf(format, a...)}
}

func (e *ErrUnsupportedType) Error() string { return "unsupported value type: " + e.what }

func IsErrUnsupportedType(err error) bool {
	_, ok := err.(*ErrUnsupportedType)
	return ok
}

// ErrMalformedData

func NewErrMalformedData(format string, a ...any) *ErrMalformedData {
	return &ErrMalformedData{fmt.Sprintf(format, a...)}
}

func (e *ErrMalformedData) Error() string { return "malformed data: " + e.reason }

func IsErrMalformedData(err error) bool {
	_, ok := err.(*ErrMalformedData)
	return ok
}

// ErrSegment wraps an OS-level failure from the Segment Manager (create/map/unlink).

func NewErrSegment(op string, err error) *ErrSegment {
	return &ErrSegment{op: op, err: goerrors.Wrapf(err, "segment %s", op)}
}

func (e *ErrSegment) Error() string { return e.err.Error() }
func (e *ErrSegment) Unwrap() error { return e.err }

func IsErrSegment(err error) bool {
	_, ok := err.(*ErrSegment)
	return ok
}

// Errs: bounded multi-error aggregator, used by Close() to report best-effort
// cleanup failures without masking the original error.
// add Unwrap() if need be

const maxErrs = 4

func (e *Errs) Add(err error) {
	debug.Assert(err != nil)
	e.mu.Lock()
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			e.mu.Unlock()
			return
		}
	}
	if len(e.errs) < maxErrs {
		e.errs = append(e.errs, err)
		ratomic.StoreInt64(&e.cnt, int64(len(e.errs)))
	}
	e.mu.Unlock()
}

func (e *Errs) Cnt() int { return int(ratomic.LoadInt64(&e.cnt)) }

func (e *Errs) JoinErr() (cnt int, err error) {
	if cnt = e.Cnt(); cnt > 0 {
		e.mu.Lock()
		err = errors.Join(e.errs...) // up to maxErrs
		e.mu.Unlock()
	}
	return
}

// Errs is an error
func (e *Errs) Error() (s string) {
	var (
		err error
		cnt = e.Cnt()
	)
	if cnt == 0 {
		return
	}
	e.mu.Lock()
	if cnt = len(e.errs); cnt > 0 {
		err = e.errs[0]
	}
	e.mu.Unlock()
	if err == nil {
		return // unlikely
	}
	if cnt > 1 {
		err = fmt.Errorf("%v (and %d more error%s)", err, cnt-1, Plural(cnt-1))
	}
	s = err.Error()
	return
}

//
// Abnormal Termination
//

const fatalPrefix = "FATAL ERROR: "

func Exitf(f string, a ...any) {
	msg := fmt.Sprintf(fatalPrefix+f, a...)
	_exit(msg)
}

func _exit(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
