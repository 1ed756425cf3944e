// Package codec implements the wire encoding for values carried over a
// channel: a closed tagged-sum value tree (leaves and containers), encoded
// as a small self-describing header plus zero or more out-of-band data
// buffers so that large payloads (bytes, text, array data) are never copied
// into a serialization buffer of their own.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package codec

// Tag is the wire discriminant for a Value's kind. The table is closed:
// every Value implementation maps to exactly one of these.
type Tag byte

// TagAbsent has no printable ASCII assigned to it in the source tag table
// (written there as "∅"); a Tag is a single wire byte, so it is represented
// here as 0x00 rather than the multi-byte rune.
const (
	TagAbsent Tag = 0x00 // absent/unit value
	TagInt    Tag = 'i'  // signed arbitrary-precision integer
	TagFloat  Tag = 'f'  // IEEE-754 double
	TagBool   Tag = 'b'  // boolean
	TagBytes  Tag = 'r'  // raw byte string
	TagText   Tag = 's'  // UTF-8 text
	TagArray  Tag = 'n'  // homogeneous numeric n-d array
	TagDType  Tag = 't'  // standalone array element-type tag
	TagTuple  Tag = 'p'  // fixed-arity ordered tuple, or a record when Class != ""
	TagSeq    Tag = 'l'  // ordered sequence
	TagSet    Tag = 'u'  // unordered collection of distinct elements
	TagMap    Tag = 'd'  // key -> value mapping, keys from the leaf universe
)

func (t Tag) String() string {
	switch t {
	case TagAbsent:
		return "absent"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagBool:
		return "bool"
	case TagBytes:
		return "bytes"
	case TagText:
		return "text"
	case TagArray:
		return "array"
	case TagDType:
		return "dtype"
	case TagTuple:
		return "tuple"
	case TagSeq:
		return "seq"
	case TagSet:
		return "set"
	case TagMap:
		return "map"
	default:
		return "unknown"
	}
}

// DType enumerates the element types an Array may carry.
type DType byte

const (
	DTypeInt8 DType = iota
	DTypeInt16
	DTypeInt32
	DTypeInt64
	DTypeUint8
	DTypeUint16
	DTypeUint32
	DTypeUint64
	DTypeFloat32
	DTypeFloat64
	DTypeBool
)

var dtypeNames = map[DType]string{
	DTypeInt8:    "int8",
	DTypeInt16:   "int16",
	DTypeInt32:   "int32",
	DTypeInt64:   "int64",
	DTypeUint8:   "uint8",
	DTypeUint16:  "uint16",
	DTypeUint32:  "uint32",
	DTypeUint64:  "uint64",
	DTypeFloat32: "float32",
	DTypeFloat64: "float64",
	DTypeBool:    "bool",
}

var dtypeSizes = map[DType]int{
	DTypeInt8:    1,
	DTypeInt16:   2,
	DTypeInt32:   4,
	DTypeInt64:   8,
	DTypeUint8:   1,
	DTypeUint16:  2,
	DTypeUint32:  4,
	DTypeUint64:  8,
	DTypeFloat32: 4,
	DTypeFloat64: 8,
	DTypeBool:    1,
}

func (d DType) String() string {
	if s, ok := dtypeNames[d]; ok {
		return s
	}
	return "unknown"
}

// Size returns the element width, in bytes, of d.
func (d DType) Size() int {
	if n, ok := dtypeSizes[d]; ok {
		return n
	}
	return 0
}

// DTypeFromString parses the canonical textual form written by Encode for
// a standalone dtype tag value.
func DTypeFromString(s string) (DType, bool) {
	for d, name := range dtypeNames {
		if name == s {
			return d, true
		}
	}
	return 0, false
}
