// Package codec implements the wire encoding for values carried over a
// channel: a closed tagged-sum value tree (leaves and containers), encoded
// as a small self-describing header plus zero or more out-of-band data
// buffers so that large payloads (bytes, text, array data) are never copied
// into a serialization buffer of their own.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package codec

import "math/big"

// Equal reports structural equality between two Values: Tuple/Record/Seq
// and Map are order-sensitive (mapping iteration order is preserved, per
// spec), Set alone is not. Intended for tests asserting a round-trip
// rather than for channel-hot-path use.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case Absent:
		_, ok := b.(Absent)
		return ok
	case Int:
		bv, ok := b.(Int)
		return ok && bigEqual(av.V, bv.V)
	case Float:
		bv, ok := b.(Float)
		return ok && av.V == bv.V
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.V == bv.V
	case Bytes:
		bv, ok := b.(Bytes)
		return ok && bytesEqual(av.V, bv.V)
	case Text:
		bv, ok := b.(Text)
		return ok && av.V == bv.V
	case Array:
		bv, ok := b.(Array)
		if !ok || av.DType != bv.DType || !int64sEqual(av.Shape, bv.Shape) {
			return false
		}
		return bytesEqual(av.Data, bv.Data)
	case DTypeValue:
		bv, ok := b.(DTypeValue)
		return ok && av.D == bv.D
	case Tuple:
		bv, ok := b.(Tuple)
		return ok && valuesEqual(av.Items, bv.Items)
	case Record:
		bv, ok := b.(Record)
		return ok && av.Class == bv.Class && stringsEqual(av.Fields, bv.Fields) && valuesEqual(av.Items, bv.Items)
	case Seq:
		bv, ok := b.(Seq)
		return ok && valuesEqual(av.Items, bv.Items)
	case Set:
		bv, ok := b.(Set)
		return ok && setsEqual(av.Items, bv.Items)
	case Map:
		bv, ok := b.(Map)
		return ok && mapsEqual(av, bv)
	default:
		return false
	}
}

func bigEqual(a, b *big.Int) bool {
	if a == nil {
		a = big.NewInt(0)
	}
	if b == nil {
		b = big.NewInt(0)
	}
	return a.Cmp(b) == 0
}

func bytesEqual(a, b []byte) bool {
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

func int64sEqual(a, b []int64) bool {
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

func valuesEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// setsEqual compares two element lists as multisets: every element of a
// has a distinct, unused match in b.
func setsEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, av := range a {
		found := false
		for j, bv := range b {
			if used[j] {
				continue
			}
			if Equal(av, bv) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// mapsEqual compares key and value lists index-wise: a mapping's insertion
// order is part of its value (spec §3, scenario S4), unlike a Set.
func mapsEqual(a, b Map) bool {
	if len(a.Keys) != len(b.Keys) {
		return false
	}
	for i := range a.Keys {
		if !Equal(a.Keys[i], b.Keys[i]) || !Equal(a.Values[i], b.Values[i]) {
			return false
		}
	}
	return true
}
