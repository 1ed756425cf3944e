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

// bigIntToTwosComplement renders v as the minimal little-endian two's
// complement byte string the wire format calls for: for non-negative v this
// is the magnitude, padded with a leading zero byte if needed so the sign
// bit reads as clear; for negative v it's the standard two's complement
// form at the smallest byte width that can hold it.
func bigIntToTwosComplement(v *big.Int) []byte {
	switch v.Sign() {
	case 0:
		return []byte{0}
	case 1:
		be := v.Bytes()
		if be[0]&0x80 != 0 {
			be = append([]byte{0}, be...)
		}
		return reverseBytes(be)
	default:
		mag := new(big.Int).Neg(v)
		n := twosComplementByteLen(mag)
		mod := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
		twos := new(big.Int).Add(mod, v)
		be := twos.Bytes()
		for len(be) < n {
			be = append([]byte{0}, be...)
		}
		return reverseBytes(be)
	}
}

// twosComplementByteLen returns the smallest n with mag <= 2^(8n-1), i.e.
// the narrowest two's complement width whose negative range covers -mag.
func twosComplementByteLen(mag *big.Int) int {
	limit := new(big.Int)
	for n := 1; ; n++ {
		limit.Lsh(big.NewInt(1), uint(8*n-1))
		if mag.Cmp(limit) <= 0 {
			return n
		}
	}
}

// bigIntFromTwosComplement is the inverse of bigIntToTwosComplement: signed,
// taken from the header's signedness field rather than re-derived from the
// buffer's sign bit, says whether to apply the two's complement correction.
func bigIntFromTwosComplement(b []byte, signed bool) *big.Int {
	be := reverseBytes(b)
	v := new(big.Int).SetBytes(be)
	if signed {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(8*len(be)))
		v.Sub(v, mod)
	}
	return v
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
