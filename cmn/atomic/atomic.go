// Package atomic provides small typed wrappers around sync/atomic, matching
// the call shape (Load/Store/Add/CAS) used throughout this codebase's
// concurrency-sensitive state: the Sender/Receiver lifecycle state, the
// Sender's in-flight counter, the housekeeper's started flag, and
// tie-breaking counters in cmn/cos.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package atomic

import "sync/atomic"

type Bool struct{ v int32 }

func (b *Bool) Load() bool { return atomic.LoadInt32(&b.v) != 0 }
func (b *Bool) Store(val bool) {
	if val {
		atomic.StoreInt32(&b.v, 1)
	} else {
		atomic.StoreInt32(&b.v, 0)
	}
}

// CAS atomically compares-and-swaps b from `from` to `to`, returning
// whether the swap happened.
func (b *Bool) CAS(from, to bool) bool {
	var o, n int32
	if from {
		o = 1
	}
	if to {
		n = 1
	}
	return atomic.CompareAndSwapInt32(&b.v, o, n)
}

type Int64 struct{ v int64 }

func (i *Int64) Load() int64       { return atomic.LoadInt64(&i.v) }
func (i *Int64) Store(val int64)   { atomic.StoreInt64(&i.v, val) }
func (i *Int64) Add(delta int64) int64 { return atomic.AddInt64(&i.v, delta) }
func (i *Int64) CAS(from, to int64) bool {
	return atomic.CompareAndSwapInt64(&i.v, from, to)
}

type Uint32 struct{ v uint32 }

func (u *Uint32) Load() uint32     { return atomic.LoadUint32(&u.v) }
func (u *Uint32) Store(val uint32) { atomic.StoreUint32(&u.v, val) }
func (u *Uint32) Add(delta uint32) uint32 { return atomic.AddUint32(&u.v, delta) }

type Int32 struct{ v int32 }

func (i *Int32) Load() int32       { return atomic.LoadInt32(&i.v) }
func (i *Int32) Store(val int32)   { atomic.StoreInt32(&i.v, val) }
func (i *Int32) Add(delta int32) int32 { return atomic.AddInt32(&i.v, delta) }
func (i *Int32) CAS(from, to int32) bool {
	return atomic.CompareAndSwapInt32(&i.v, from, to)
}
