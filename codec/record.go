// Package codec implements the wire encoding for values carried over a
// channel: a closed tagged-sum value tree (leaves and containers), encoded
// as a small self-describing header plus zero or more out-of-band data
// buffers so that large payloads (bytes, text, array data) are never copied
// into a serialization buffer of their own.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package codec

import (
	"sync"

	"github.com/aistore-io/shmq/cmn/cos"
)

// registry maps a record class tag to its declared field names, letting a
// receiver reconstruct a Record's field names even when the sender and the
// receiver are separate processes with independent registrations - as long
// as both sides register the same class tag before the first Get/Put that
// uses it. Records are still fully self-describing on the wire (Class and
// Fields travel in the header); the registry is a convenience for
// validating arity, not a requirement for decoding.
var (
	registryMu sync.RWMutex
	registry   = map[string][]string{}
)

// RegisterRecord declares the field names for a record class tag. Safe to
// call from both the sending and the receiving side; re-registering the
// same class with different fields panics, since that almost always
// indicates two unrelated record shapes colliding on one class tag.
func RegisterRecord(class string, fields []string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if existing, ok := registry[class]; ok {
		if !stringsEqual(existing, fields) {
			panic("codec: record class " + class + " already registered with different fields")
		}
		return
	}
	cp := make([]string, len(fields))
	copy(cp, fields)
	registry[class] = cp
}

// LookupRecord returns the registered field names for class, if any.
func LookupRecord(class string) (fields []string, ok bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[class]
	return f, ok
}

// NewRecord builds a Record from explicit field names, registering the
// class tag if it isn't already known.
func NewRecord(class string, fields []string, values []Value) (Record, error) {
	if class == "" {
		return Record{}, cos.NewErrMalformedData("record class tag must be non-empty")
	}
	if len(fields) != len(values) {
		return Record{}, cos.NewErrMalformedData("record %q: %d fields but %d values", class, len(fields), len(values))
	}
	RegisterRecord(class, fields)
	return Record{Class: class, Fields: fields, Items: values}, nil
}

// NewRegisteredRecord builds a Record using previously RegisterRecord-ed
// field names for class.
func NewRegisteredRecord(class string, values []Value) (Record, error) {
	fields, ok := LookupRecord(class)
	if !ok {
		return Record{}, cos.NewErrMalformedData("record class %q is not registered", class)
	}
	if len(fields) != len(values) {
		return Record{}, cos.NewErrMalformedData("record %q: %d fields but %d values", class, len(fields), len(values))
	}
	return Record{Class: class, Fields: fields, Items: values}, nil
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
