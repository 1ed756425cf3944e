// Package cos provides common low-level types and utilities shared across shmq packages.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"

	"github.com/teris-io/shortid"

	"github.com/aistore-io/shmq/cmn/atomic"
)

const (
	// Alphabet for generating segment/session names, safe as a single path
	// component under /dev/shm and free of shortid's own reserved chars.
	idABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

	LenShortID = 9 // id length, as per https://github.com/teris-io/shortid#id-length

	// NOTE: cannot be smaller than any valid max length - see below
	tooLongID = 64
)

const mayOnlyContain = "may only contain letters, numbers, dashes (-), and underscores (_)"

var (
	sid  *shortid.Shortid
	rtie atomic.Uint32
)

func init() {
	sid = shortid.MustNew(4 /*worker*/, idABC, 0)
}

// GenID returns a process-wide-unique short token, e.g. for segment names
// and channel instance IDs. Uniqueness comes from the shortid generator; a
// tie-breaking counter only supplies a leading letter when the id would
// not start with one, and a trailing letter when it would end in '-' or '_'.
func GenID() string {
	id := sid.MustGenerate()
	if !isAlpha(id[0]) {
		tie := int(rtie.Add(1))
		id = string(rune('a'+tie%26)) + id
	}
	c := id[len(id)-1]
	if c == '-' || c == '_' {
		tie := int(rtie.Add(1))
		id += string(rune('a' + tie%26))
	}
	return id
}

// GenSegmentName returns a unique, path-safe shared-memory segment name
// under the given namespace prefix (default: "shmq").
func GenSegmentName(prefix string) string {
	if prefix == "" {
		prefix = "shmq"
	}
	return fmt.Sprintf("%s_%s", prefix, GenID())
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsAlphaNice reports whether s is short enough and built only from
// letters, digits, dashes, and underscores - i.e. safe as a single path
// component (no '/' traversal, no shell metacharacters).
func IsAlphaNice(s string) bool {
	l := len(s)
	if l == 0 || l > tooLongID {
		return false
	}
	for i := 0; i < l; i++ {
		c := s[i]
		if isAlpha(c) || (c >= '0' && c <= '9') || c == '_' {
			continue
		}
		if c != '-' {
			return false
		}
	}
	return true
}

// CheckSegmentName validates a name before it is ever handed to the OS
// shared-memory namespace.
func CheckSegmentName(name string) error {
	if !IsAlphaNice(name) {
		return fmt.Errorf("invalid segment name %q: %s", name, mayOnlyContain)
	}
	return nil
}
