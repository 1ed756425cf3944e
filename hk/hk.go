// Package hk provides a mechanism for registering cleanup functions invoked
// at specified intervals, plus a best-effort SIGINT/SIGTERM exit-hook
// registry. Every Sender and Receiver registers an exit hook on
// construction (spec §5, §9: "retain a best-effort signal-based cleanup
// only for SIGINT/SIGTERM") so segments are unlinked even when the process
// is interrupted rather than shut down cleanly.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package hk

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aistore-io/shmq/cmn/atomic"
	"github.com/aistore-io/shmq/cmn/nlog"
)

const NameSuffix = ".hk" // suffix a caller may append to namespace its registration name

type request struct {
	name     string
	f        func() time.Duration // returns the next interval, or <= 0 to deregister
	interval time.Duration
	due      time.Time
}

// HK is a singleton periodic-callback scheduler.
type HK struct {
	mu       sync.Mutex
	byName   map[string]*request
	wakeCh   chan struct{}
	started  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

var DefaultHK = &HK{
	byName: make(map[string]*request),
	wakeCh: make(chan struct{}, 1),
	stopCh: make(chan struct{}),
}

// Reg registers f to run every interval, starting at now+interval. f
// returns the duration until its next run; returning <= 0 deregisters it.
func Reg(name string, interval time.Duration, f func() time.Duration) {
	DefaultHK.reg(name, interval, f)
}

func (hk *HK) reg(name string, interval time.Duration, f func() time.Duration) {
	hk.mu.Lock()
	hk.byName[name] = &request{name: name, f: f, interval: interval, due: time.Now().Add(interval)}
	hk.mu.Unlock()
	hk.wake()
}

// Unreg removes a previously registered periodic callback. Idempotent.
func Unreg(name string) {
	DefaultHK.unreg(name)
}

func (hk *HK) unreg(name string) {
	hk.mu.Lock()
	delete(hk.byName, name)
	hk.mu.Unlock()
}

func (hk *HK) wake() {
	select {
	case hk.wakeCh <- struct{}{}:
	default:
	}
}

// Run drives the periodic-callback loop; intended to run in its own
// goroutine for the lifetime of the process (go hk.DefaultHK.Run()).
func (hk *HK) Run() {
	hk.started.Store(true)
	for {
		select {
		case <-hk.stopCh:
			return
		case <-time.After(hk.nextTick()):
			hk.fire()
		case <-hk.wakeCh:
		}
	}
}

func (hk *HK) nextTick() time.Duration {
	hk.mu.Lock()
	defer hk.mu.Unlock()
	if len(hk.byName) == 0 {
		return time.Second
	}
	now := time.Now()
	min := time.Second
	for _, r := range hk.byName {
		if d := r.due.Sub(now); d < min {
			min = d
		}
	}
	if min < 0 {
		min = 0
	}
	return min
}

func (hk *HK) fire() {
	now := time.Now()
	hk.mu.Lock()
	due := make([]*request, 0, len(hk.byName))
	for _, r := range hk.byName {
		if !now.Before(r.due) {
			due = append(due, r)
		}
	}
	hk.mu.Unlock()
	for _, r := range due {
		next := r.f()
		if next <= 0 {
			hk.unreg(r.name)
			continue
		}
		hk.mu.Lock()
		if cur, ok := hk.byName[r.name]; ok {
			cur.due = now.Add(next)
		}
		hk.mu.Unlock()
	}
}

// Stop terminates Run's loop; for tests only.
func (hk *HK) Stop() {
	hk.stopOnce.Do(func() { close(hk.stopCh) })
}

// TestInit resets DefaultHK for a fresh test run.
func TestInit() {
	DefaultHK = &HK{
		byName: make(map[string]*request),
		wakeCh: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

// WaitStarted blocks until Run has begun servicing the loop.
func WaitStarted() {
	for !DefaultHK.started.Load() {
		time.Sleep(time.Millisecond)
	}
}

//
// exit hooks (SIGINT/SIGTERM best-effort cleanup)
//

var (
	exitMu    sync.Mutex
	exitHooks = map[string]func(){}
	sigCh     chan os.Signal
	sigOnce   sync.Once
)

// OnSignal registers fn to run (once) when the process receives SIGINT or
// SIGTERM. Returns a deregistration function. Best-effort: a kill -9 never
// runs it, per spec §5's "segments leaked by a kill -9 are the OS's
// problem."
func OnSignal(name string, fn func()) (dereg func()) {
	sigOnce.Do(func() {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			for range sigCh {
				exitMu.Lock()
				hooks := make([]func(), 0, len(exitHooks))
				for _, h := range exitHooks {
					hooks = append(hooks, h)
				}
				exitMu.Unlock()
				for _, h := range hooks {
					func() {
						defer func() { recover() }()
						h()
					}()
				}
				nlog.Warningln("hk: exit hooks ran on signal, exiting")
				signal.Reset(os.Interrupt, syscall.SIGTERM)
				os.Exit(1)
			}
		}()
	})
	exitMu.Lock()
	exitHooks[name] = fn
	exitMu.Unlock()
	return func() {
		exitMu.Lock()
		delete(exitHooks, name)
		exitMu.Unlock()
	}
}
