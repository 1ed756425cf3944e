// Package memsys manages the POSIX shared-memory segments a channel uses
// to move payloads between processes without a copy through a kernel pipe.
// A segment is a fixed-size, named region backed by a tmpfs file under
// /dev/shm, created and mapped read-write by the Sender and mapped
// read-only by the Receiver; ownership - and therefore the right to
// unlink - never changes hands (spec §3: "only the creator ever unlinks").
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package memsys

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/aistore-io/shmq/cmn/cos"
	"github.com/aistore-io/shmq/cmn/debug"
)

const shmDir = "/dev/shm"

// Handle is a mapped shared-memory segment. The zero Handle is not valid;
// obtain one from Create or Open.
type Handle struct {
	name   string
	size   int64
	data   []byte
	creator bool
}

// Name returns the segment's name, as passed to Create or Open.
func (h *Handle) Name() string { return h.name }

// Size returns the mapped length in bytes.
func (h *Handle) Size() int64 { return h.size }

// Bytes returns the mapped region. The slice is valid until Close.
func (h *Handle) Bytes() []byte { return h.data }

func segPath(name string) string { return filepath.Join(shmDir, name) }

// Create allocates a new segment of the given size and maps it read-write.
// The caller becomes the segment's creator and is the only side allowed to
// Unlink it.
func Create(name string, size int64) (*Handle, error) {
	if err := cos.CheckSegmentName(name); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, cos.NewErrMalformedData("segment size must be positive, got %d", size)
	}
	path := segPath(name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, cos.NewErrSegment("create", err)
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		os.Remove(path)
		return nil, cos.NewErrSegment("truncate", err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		os.Remove(path)
		return nil, cos.NewErrSegment("mmap", err)
	}
	return &Handle{name: name, size: size, data: data, creator: true}, nil
}

// Open maps an existing segment, created elsewhere (typically by a Sender
// in another process), read-only: only the Receiver opens a segment this
// way, and it never writes into it (spec §4.2, §5).
func Open(name string, size int64) (*Handle, error) {
	if err := cos.CheckSegmentName(name); err != nil {
		return nil, err
	}
	path := segPath(name)
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, cos.NewErrSegment("open", err)
	}
	defer f.Close()
	if size <= 0 {
		fi, err := f.Stat()
		if err != nil {
			return nil, cos.NewErrSegment("stat", err)
		}
		size = fi.Size()
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, cos.NewErrSegment("mmap", err)
	}
	return &Handle{name: name, size: size, data: data}, nil
}

// Write copies b into the mapped region starting at offset 0. The caller
// must ensure len(b) <= h.Size(); memsys does not frame or length-prefix
// the region itself, that is the descriptor's job (transport.Descriptor).
func (h *Handle) Write(b []byte) error {
	if int64(len(b)) > h.size {
		return cos.NewErrMalformedData("segment %s: write of %d bytes exceeds size %d", h.name, len(b), h.size)
	}
	copy(h.data, b)
	return nil
}

// Read returns a copy of the first n bytes of the mapped region.
func (h *Handle) Read(n int64) ([]byte, error) {
	if n < 0 || n > h.size {
		return nil, cos.NewErrMalformedData("segment %s: read of %d bytes exceeds size %d", h.name, n, h.size)
	}
	out := make([]byte, n)
	copy(out, h.data[:n])
	return out, nil
}

// Close unmaps the segment. It does not unlink the backing file; call
// Unlink for that, and only from the creator side.
func (h *Handle) Close() error {
	if h.data == nil {
		return nil
	}
	err := unix.Munmap(h.data)
	h.data = nil
	if err != nil {
		return cos.NewErrSegment("munmap", err)
	}
	return nil
}

// Unlink removes the segment's backing file. Only the creator should call
// this (spec §3's ownership rule); calling it from a non-creating handle
// is a programmer error caught by a debug-mode assertion, since a second
// unlink of a name that's since been recreated by someone else would
// silently destroy unrelated data.
func (h *Handle) Unlink() error {
	debug.Assert(h.creator)
	if err := os.Remove(segPath(h.name)); err != nil && !os.IsNotExist(err) {
		return cos.NewErrSegment("unlink", err)
	}
	return nil
}

// IsCreator reports whether this handle created the segment (as opposed to
// having opened one created elsewhere).
func (h *Handle) IsCreator() bool { return h.creator }
