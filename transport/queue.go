// Package transport carries small control messages - segment descriptors
// on the data channel, segment names on the ack channel - between the two
// ends of a channel. It never carries payload bytes: those live in a
// memsys segment and are referenced, not copied, by the Descriptor a Queue
// moves across (spec §4: "the control channel carries only the small
// descriptor, never the payload").
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import "context"

// Queue moves whole, length-delimited messages from one side of a channel
// to the other. Implementations: an in-memory buffered-channel Queue for
// same-process tests, and a POSIX-FIFO-backed Queue for the
// cross-process case (fifo.go) - named pipes, unlike Go channels, survive a
// fork/exec by path, which is what lets a descriptor travel to a separate
// receiving process in the first place.
type Queue interface {
	// Send enqueues b, blocking until there is room or ctx is done.
	// Implementations copy b; the caller may reuse it immediately.
	Send(ctx context.Context, b []byte) error
	// Recv dequeues the next message, blocking until one is available or
	// ctx is done.
	Recv(ctx context.Context) ([]byte, error)
	// Close releases the queue's resources. Safe to call more than once.
	Close() error
}
