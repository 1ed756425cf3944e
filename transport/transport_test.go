package transport_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/aistore-io/shmq/cmn/cos"
	"github.com/aistore-io/shmq/transport"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("MemQueue", func() {
	It("delivers messages in order", func() {
		q := transport.NewMemQueue(4)
		defer q.Close()
		ctx := context.Background()
		Expect(q.Send(ctx, []byte("a"))).To(Succeed())
		Expect(q.Send(ctx, []byte("b"))).To(Succeed())
		got, err := q.Recv(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]byte("a")))
		got, err = q.Recv(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]byte("b")))
	})

	It("unblocks Recv when ctx is canceled", func() {
		q := transport.NewMemQueue(1)
		defer q.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := q.Recv(ctx)
		Expect(err).To(HaveOccurred())
	})

	It("reports a broken channel once closed", func() {
		q := transport.NewMemQueue(1)
		q.Close()
		_, err := q.Recv(context.Background())
		Expect(err).To(Equal(cos.ErrBrokenChannel))
	})
})

var _ = Describe("FIFOQueue", func() {
	It("round-trips framed messages over a named pipe", func() {
		dir, err := os.MkdirTemp("", "shmq-fifo-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "ctl")

		writer, err := transport.NewFIFO(path)
		Expect(err).NotTo(HaveOccurred())
		defer writer.Close()
		reader, err := transport.NewFIFO(path)
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		ctx := context.Background()
		go func() { _ = writer.Send(ctx, []byte("hello, fifo")) }()
		got, err := reader.Recv(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]byte("hello, fifo")))
	})

	It("unblocks Recv when ctx is canceled, without wedging the next Recv", func() {
		dir, err := os.MkdirTemp("", "shmq-fifo-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "ctl")

		writer, err := transport.NewFIFO(path)
		Expect(err).NotTo(HaveOccurred())
		defer writer.Close()
		reader, err := transport.NewFIFO(path)
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = reader.Recv(ctx)
		Expect(err).To(HaveOccurred())

		Expect(writer.Send(context.Background(), []byte("after cancel"))).To(Succeed())
		got, err := reader.Recv(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]byte("after cancel")))
	})
})

var _ = Describe("Descriptor", func() {
	It("splits a segment's bytes back into per-buffer slices", func() {
		buffers := [][]byte{[]byte("header"), []byte("payload-one"), []byte("p2")}
		d := transport.NewDescriptor(cos.GenSegmentName("desctest"), buffers)
		Expect(d.TotalSize).To(Equal(int64(len("header") + len("payload-one") + len("p2"))))

		seg := append([]byte{}, buffers[0]...)
		seg = append(seg, buffers[1]...)
		seg = append(seg, buffers[2]...)

		got, err := d.Buffers(seg)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(buffers))
	})

	It("rejects a segment shorter than the descriptor claims", func() {
		d := transport.Descriptor{Name: "x", Lengths: []int{10, 10}}
		_, err := d.Buffers(make([]byte, 5))
		Expect(err).To(HaveOccurred())
	})

	It("round-trips over a Queue", func() {
		q := transport.NewMemQueue(1)
		defer q.Close()
		ctx := context.Background()
		d := transport.NewDescriptor("seg1", [][]byte{[]byte("h"), []byte("b")})
		Expect(transport.SendDescriptor(ctx, q, d)).To(Succeed())
		got, err := transport.RecvDescriptor(ctx, q)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(d))
	})
})
