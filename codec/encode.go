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
	"math/big"
	"reflect"

	jsoniter "github.com/json-iterator/go"

	"github.com/aistore-io/shmq/cmn/cos"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrCyclicValue reports a container that (directly or indirectly) contains
// itself; Encode walks the value tree iteratively but still must reject
// cycles, since an unbounded walk over a cyclic graph never terminates.
type ErrCyclicValue struct{ msg string }

func (e *ErrCyclicValue) Error() string { return "unsupported value type: " + e.msg }

// IsErrCyclicValue reports whether err is an ErrCyclicValue.
func IsErrCyclicValue(err error) bool {
	_, ok := err.(*ErrCyclicValue)
	return ok
}

func newErrCyclicValue() error {
	return &ErrCyclicValue{msg: "cyclic value graph"}
}

// ancestor is a cons-list of the backing-array identities of containers
// currently open on the path from the root to the task being processed;
// walked to detect a container that re-appears under itself.
type ancestor struct {
	ptr    uintptr
	parent *ancestor
}

func (a *ancestor) contains(ptr uintptr) bool {
	for n := a; n != nil; n = n.parent {
		if n.ptr == ptr {
			return true
		}
	}
	return false
}

// backingPtr returns the identity of a slice's backing array, used as the
// cycle-detection key. Returns 0, false for an empty slice (which can never
// itself be part of a cycle).
func backingPtr(s any) (uintptr, bool) {
	v := reflect.ValueOf(s)
	if v.Kind() != reflect.Slice || v.Len() == 0 {
		return 0, false
	}
	return v.Pointer(), true
}

// encoder accumulates out-of-band buffers as the header tree is built.
type encoder struct {
	buffers [][]byte
}

func (e *encoder) addBuffer(b []byte) (idx, n int) {
	idx = len(e.buffers)
	e.buffers = append(e.buffers, b)
	return idx, len(b)
}

type task struct {
	val  Value
	anc  *ancestor
	set  func(*node)
}

// Encode flattens v into a header buffer (buffers[0]) and zero or more
// out-of-band data buffers (buffers[1:]), walking the value tree
// iteratively via an explicit work stack rather than native recursion, so
// stack depth is bounded by node count rather than tree depth.
func Encode(v Value) (buffers [][]byte, err error) {
	e := &encoder{}
	var root *node
	stack := []task{{val: v, set: func(n *node) { root = n }}}

	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n, children, err := e.encodeOne(t.val, t.anc)
		if err != nil {
			return nil, err
		}
		t.set(n)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	header, err := json.Marshal(root)
	if err != nil {
		return nil, cos.NewErrMalformedData("marshal header: %v", err)
	}
	buffers = append([][]byte{header}, e.buffers...)
	return buffers, nil
}

// encodeOne produces the node for a single Value, along with any child
// tasks that must be processed to fill in that node's Children/Keys slots.
func (e *encoder) encodeOne(v Value, anc *ancestor) (n *node, children []task, err error) {
	switch val := v.(type) {
	case Absent:
		return &node{Tag: TagAbsent}, nil, nil

	case Int:
		if val.V == nil {
			val.V = big.NewInt(0)
		}
		buf := bigIntToTwosComplement(val.V)
		idx, ln := e.addBuffer(buf)
		return &node{Tag: TagInt, BufIdx: idx, BufLen: ln, Signed: val.V.Sign() < 0}, nil, nil

	case Float:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(val.V))
		idx, ln := e.addBuffer(b)
		return &node{Tag: TagFloat, BufIdx: idx, BufLen: ln}, nil, nil

	case Bool:
		b := []byte{0}
		if val.V {
			b[0] = 1
		}
		idx, ln := e.addBuffer(b)
		return &node{Tag: TagBool, BufIdx: idx, BufLen: ln}, nil, nil

	case Bytes:
		idx, ln := e.addBuffer(val.V)
		return &node{Tag: TagBytes, BufIdx: idx, BufLen: ln}, nil, nil

	case Text:
		idx, ln := e.addBuffer([]byte(val.V))
		return &node{Tag: TagText, BufIdx: idx, BufLen: ln}, nil, nil

	case Array:
		want := val.NumElems() * int64(val.DType.Size())
		if int64(len(val.Data)) != want {
			return nil, nil, cos.NewErrMalformedData("array: shape implies %d bytes, got %d", want, len(val.Data))
		}
		idx, ln := e.addBuffer(val.Data)
		shape := append([]int64(nil), val.Shape...)
		return &node{Tag: TagArray, BufIdx: idx, BufLen: ln, DType: val.DType, Shape: shape}, nil, nil

	case DTypeValue:
		idx, ln := e.addBuffer([]byte(val.D.String()))
		return &node{Tag: TagDType, BufIdx: idx, BufLen: ln}, nil, nil

	case Tuple:
		return e.encodeSeqLike(TagTuple, "", nil, val.Items, anc)

	case Record:
		if len(val.Fields) != len(val.Items) {
			return nil, nil, cos.NewErrMalformedData("record %q: %d fields but %d values", val.Class, len(val.Fields), len(val.Items))
		}
		return e.encodeSeqLike(TagTuple, val.Class, val.Fields, val.Items, anc)

	case Seq:
		return e.encodeSeqLike(TagSeq, "", nil, val.Items, anc)

	case Set:
		return e.encodeSeqLike(TagSet, "", nil, val.Items, anc)

	case Map:
		if len(val.Keys) != len(val.Values) {
			return nil, nil, cos.NewErrMalformedData("map: %d keys but %d values", len(val.Keys), len(val.Values))
		}
		for _, k := range val.Keys {
			if !IsLeaf(k) {
				return nil, nil, cos.NewErrUnsupportedType("map key must be a leaf value, got %s", k.Tag())
			}
		}
		ptr, cyclic := backingPtr(val.Values)
		if cyclic && anc.contains(ptr) {
			return nil, nil, newErrCyclicValue()
		}
		var childAnc *ancestor = anc
		if cyclic {
			childAnc = &ancestor{ptr: ptr, parent: anc}
		}
		n := &node{Tag: TagMap}
		n.Children = make([]*node, len(val.Values))
		n.Keys = make([]*node, len(val.Keys))
		tasks := make([]task, 0, len(val.Values)+len(val.Keys))
		for i, item := range val.Values {
			i := i
			tasks = append(tasks, task{val: item, anc: childAnc, set: func(c *node) { n.Children[i] = c }})
		}
		for i, k := range val.Keys {
			i := i
			tasks = append(tasks, task{val: k, anc: childAnc, set: func(c *node) { n.Keys[i] = c }})
		}
		return n, tasks, nil

	default:
		return nil, nil, cos.NewErrUnsupportedType("%T", v)
	}
}

func (e *encoder) encodeSeqLike(tag Tag, class string, fields []string, items []Value, anc *ancestor) (*node, []task, error) {
	ptr, cyclic := backingPtr(items)
	if cyclic && anc.contains(ptr) {
		return nil, nil, newErrCyclicValue()
	}
	childAnc := anc
	if cyclic {
		childAnc = &ancestor{ptr: ptr, parent: anc}
	}
	n := &node{Tag: tag, Class: class, Fields: fields}
	n.Children = make([]*node, len(items))
	tasks := make([]task, len(items))
	for i, item := range items {
		i := i
		tasks[i] = task{val: item, anc: childAnc, set: func(c *node) { n.Children[i] = c }}
	}
	return n, tasks, nil
}
