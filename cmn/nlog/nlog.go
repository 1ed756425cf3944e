// Package nlog is the process logger used throughout shmq: unbuffered
// (each line is written to stderr as it is logged), timestamped,
// severity-leveled. Reduced from the teacher's file-rotating
// implementation (no on-disk rotation - this module has no long-running
// daemon process of its own to rotate logs for) but keeps its call surface
// (Infof/Warningf/Errorf/Errorln/InfoDepth) so callers read identically.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

func (s severity) String() string {
	switch s {
	case sevWarn:
		return "W"
	case sevErr:
		return "E"
	default:
		return "I"
	}
}

var (
	mu     sync.Mutex
	out    = os.Stderr
	minSev severity
)

// SetQuiet suppresses Info-level logging, e.g. for benchmark runs that want
// only warnings and errors on stderr.
func SetQuiet(quiet bool) {
	mu.Lock()
	defer mu.Unlock()
	if quiet {
		minSev = sevWarn
	} else {
		minSev = sevInfo
	}
}

func log(sev severity, depth int, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if sev < minSev {
		return
	}
	var msg string
	if format == "" {
		msg = fmt.Sprint(args...)
	} else {
		msg = fmt.Sprintf(format, args...)
	}
	msg = strings.TrimSuffix(msg, "\n")
	_, file, line, ok := runtime.Caller(depth + 2)
	loc := "???:0"
	if ok {
		if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
			file = file[idx+1:]
		}
		loc = fmt.Sprintf("%s:%d", file, line)
	}
	fmt.Fprintf(out, "%s %s %s] %s\n", sev, time.Now().Format("0102 15:04:05.000000"), loc, msg)
}

func InfoDepth(depth int, args ...any)    { log(sevInfo, depth, "", args...) }
func Infoln(args ...any)                  { log(sevInfo, 0, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, 0, format, args...) }
func Warningln(args ...any)               { log(sevWarn, 0, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, 0, format, args...) }
func ErrorDepth(depth int, args ...any)   { log(sevErr, depth, "", args...) }
func Errorln(args ...any)                 { log(sevErr, 0, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, 0, format, args...) }
