// Package shmq is a bounded, zero-copy, point-to-point channel for moving
// codec.Value payloads between two processes over POSIX shared memory: the
// payload never leaves /dev/shm, only a small Descriptor crosses the
// control channel (spec §2: "large payloads are never copied into a
// serialization buffer of their own").
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package shmq

import "time"

// Config parameterizes CreatePair. The zero Config is not valid; use
// DefaultConfig as a starting point.
type Config struct {
	// FIFODir is the directory the data and ack named pipes are created
	// in. Must be on a filesystem both endpoints can reach by path (tmpfs
	// or local disk, never NFS).
	FIFODir string
	// SegmentPrefix namespaces segment and FIFO names so unrelated
	// channels in the same /dev/shm don't collide.
	SegmentPrefix string
	// PollQuantum is how often WaitForAllAck re-checks whether every
	// segment has been acked. No other operation polls on it.
	PollQuantum time.Duration
}

// DefaultConfig returns sane defaults: /dev/shm for both segments and
// FIFOs, a "shmq" namespace, and a 100ms poll quantum (spec §5).
func DefaultConfig() Config {
	return Config{
		FIFODir:       "/dev/shm",
		SegmentPrefix: "shmq",
		PollQuantum:   100 * time.Millisecond,
	}
}
