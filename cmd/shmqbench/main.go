// Command shmqbench measures point-to-point throughput for a single shmq
// channel: one goroutine puts n values as fast as capacity
// allows, another gets them back out, and the run reports elapsed time,
// values/sec, and the high-water mark of segments the sender had open at
// once.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aistore-io/shmq"
	"github.com/aistore-io/shmq/cmn/cos"
	"github.com/aistore-io/shmq/cmn/mono"
	"github.com/aistore-io/shmq/cmn/nlog"
	"github.com/aistore-io/shmq/codec"
	"github.com/aistore-io/shmq/memsys"
)

var (
	numValues = flag.Int("n", 10_000, "number of values to push through the channel")
	capacity  = flag.Int("capacity", 64, "sender capacity, i.e. max segments in flight")
	valueSize = flag.Int("size", 4096, "byte-string payload size per value")
	fifoDir   = flag.String("fifo-dir", "", "directory for the control-channel FIFOs (default: a fresh tempdir)")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		nlog.Errorf("shmqbench: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := shmq.DefaultConfig()
	cfg.SegmentPrefix = cos.GenSegmentName("shmqbench")
	if *fifoDir != "" {
		cfg.FIFODir = *fifoDir
	} else {
		dir, err := os.MkdirTemp("", "shmqbench-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		cfg.FIFODir = dir
	}
	defer memsys.Sweep(cfg.SegmentPrefix)

	sender, receiver, err := shmq.CreatePair(cfg, *capacity)
	if err != nil {
		return err
	}
	defer sender.Close()
	defer receiver.Close()

	payload := make([]byte, *valueSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	v := codec.Bytes{V: payload}

	errCh := make(chan error, 1)
	maxOpen := 0
	go func() {
		ctx := context.Background()
		for i := 0; i < *numValues; i++ {
			if err := sender.Put(ctx, v); err != nil {
				errCh <- err
				return
			}
			if n := sender.OpenCount(); n > maxOpen {
				maxOpen = n
			}
		}
		errCh <- nil
	}()

	start := mono.NanoTime()
	ctx := context.Background()
	for i := 0; i < *numValues; i++ {
		got, err := receiver.Get(ctx)
		if err != nil {
			return err
		}
		if !codec.Equal(got, v) {
			return fmt.Errorf("value %d: round trip mismatch", i)
		}
	}
	elapsed := mono.Since(start)

	if err := <-errCh; err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "values\t%d\n", *numValues)
	fmt.Fprintf(w, "value size\t%d B\n", *valueSize)
	fmt.Fprintf(w, "capacity\t%d\n", *capacity)
	fmt.Fprintf(w, "elapsed\t%s\n", elapsed)
	fmt.Fprintf(w, "throughput\t%.0f values/sec\n", float64(*numValues)/elapsed.Seconds())
	fmt.Fprintf(w, "max open segments\t%d\n", maxOpen)
	return w.Flush()
}
