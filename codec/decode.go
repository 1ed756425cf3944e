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
	"encoding/binary"
	"math"

	"github.com/aistore-io/shmq/cmn/cos"
)

// Decode reconstructs a Value from the buffers produced by Encode:
// buffers[0] is the header, buffers[1:] are the out-of-band payloads it
// references. Decode walks the header tree iteratively, mirroring Encode.
func Decode(buffers [][]byte) (Value, error) {
	if len(buffers) == 0 {
		return nil, cos.NewErrMalformedData("no buffers")
	}
	var root node
	if err := json.Unmarshal(buffers[0], &root); err != nil {
		return nil, cos.NewErrMalformedData("unmarshal header: %v", err)
	}
	data := buffers[1:]

	var result Value
	type dtask struct {
		n   *node
		set func(Value)
	}
	stack := []dtask{{n: &root, set: func(v Value) { result = v }}}

	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch t.n.Tag {
		case TagAbsent:
			t.set(Absent{})

		case TagInt:
			b, err := payload(data, t.n)
			if err != nil {
				return nil, err
			}
			if len(b) == 0 {
				return nil, cos.NewErrMalformedData("int: empty payload")
			}
			t.set(Int{V: bigIntFromTwosComplement(b, t.n.Signed)})

		case TagFloat:
			b, err := payload(data, t.n)
			if err != nil {
				return nil, err
			}
			if len(b) != 8 {
				return nil, cos.NewErrMalformedData("float: want 8 bytes, got %d", len(b))
			}
			t.set(Float{V: math.Float64frombits(binary.LittleEndian.Uint64(b))})

		case TagBool:
			b, err := payload(data, t.n)
			if err != nil {
				return nil, err
			}
			if len(b) != 1 {
				return nil, cos.NewErrMalformedData("bool: want 1 byte, got %d", len(b))
			}
			t.set(Bool{V: b[0] != 0})

		case TagBytes:
			b, err := payload(data, t.n)
			if err != nil {
				return nil, err
			}
			cp := append([]byte(nil), b...)
			t.set(Bytes{V: cp})

		case TagText:
			b, err := payload(data, t.n)
			if err != nil {
				return nil, err
			}
			t.set(Text{V: string(b)})

		case TagArray:
			b, err := payload(data, t.n)
			if err != nil {
				return nil, err
			}
			a := Array{DType: t.n.DType, Shape: append([]int64(nil), t.n.Shape...), Data: append([]byte(nil), b...)}
			want := a.NumElems() * int64(a.DType.Size())
			if want != int64(len(b)) {
				return nil, cos.NewErrMalformedData("array: shape implies %d bytes, got %d", want, len(b))
			}
			t.set(a)

		case TagDType:
			b, err := payload(data, t.n)
			if err != nil {
				return nil, err
			}
			d, ok := DTypeFromString(string(b))
			if !ok {
				return nil, cos.NewErrMalformedData("unknown dtype %q", string(b))
			}
			t.set(DTypeValue{D: d})

		case TagTuple:
			items := make([]Value, len(t.n.Children))
			for i, c := range t.n.Children {
				i, c := i, c
				stack = append(stack, dtask{n: c, set: func(v Value) { items[i] = v }})
			}
			if t.n.Class == "" {
				t.set(Tuple{Items: items})
			} else {
				fields := t.n.Fields
				t.set(Record{Class: t.n.Class, Fields: fields, Items: items})
			}

		case TagSeq:
			items := make([]Value, len(t.n.Children))
			for i, c := range t.n.Children {
				i, c := i, c
				stack = append(stack, dtask{n: c, set: func(v Value) { items[i] = v }})
			}
			t.set(Seq{Items: items})

		case TagSet:
			items := make([]Value, len(t.n.Children))
			for i, c := range t.n.Children {
				i, c := i, c
				stack = append(stack, dtask{n: c, set: func(v Value) { items[i] = v }})
			}
			t.set(Set{Items: items})

		case TagMap:
			if len(t.n.Children) != len(t.n.Keys) {
				return nil, cos.NewErrMalformedData("map: %d values but %d keys", len(t.n.Children), len(t.n.Keys))
			}
			values := make([]Value, len(t.n.Children))
			keys := make([]Value, len(t.n.Keys))
			for i, c := range t.n.Children {
				i, c := i, c
				stack = append(stack, dtask{n: c, set: func(v Value) { values[i] = v }})
			}
			for i, k := range t.n.Keys {
				i, k := i, k
				stack = append(stack, dtask{n: k, set: func(v Value) { keys[i] = v }})
			}
			t.set(Map{Keys: keys, Values: values})

		default:
			return nil, cos.NewErrMalformedData("unknown tag %q", t.n.Tag)
		}
	}

	return result, nil
}

func payload(data [][]byte, n *node) ([]byte, error) {
	if n.BufIdx < 0 || n.BufIdx >= len(data) {
		return nil, cos.NewErrMalformedData("buffer index %d out of range (%d buffers)", n.BufIdx, len(data))
	}
	b := data[n.BufIdx]
	if len(b) != n.BufLen {
		return nil, cos.NewErrMalformedData("buffer %d: header says %d bytes, got %d", n.BufIdx, n.BufLen, len(b))
	}
	return b, nil
}
