package shmq_test

import (
	"context"
	"os"
	"time"

	"github.com/aistore-io/shmq"
	"github.com/aistore-io/shmq/cmn/cos"
	"github.com/aistore-io/shmq/codec"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func testConfig() shmq.Config {
	dir, err := os.MkdirTemp("", "shmq-test-*")
	Expect(err).NotTo(HaveOccurred())
	cfg := shmq.DefaultConfig()
	cfg.FIFODir = dir
	cfg.SegmentPrefix = cos.GenSegmentName("test")
	return cfg
}

var _ = Describe("Sender/Receiver (round trip)", func() {
	It("delivers a Put value to the matching Get, in order", func() {
		sender, receiver, err := shmq.CreatePair(testConfig(), 4)
		Expect(err).NotTo(HaveOccurred())
		defer sender.Close()
		defer receiver.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		Expect(sender.Put(ctx, codec.NewInt(1))).To(Succeed())
		Expect(sender.Put(ctx, codec.Text{V: "second"})).To(Succeed())

		v1, err := receiver.Get(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(codec.Equal(v1, codec.NewInt(1))).To(BeTrue())

		v2, err := receiver.Get(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(codec.Equal(v2, codec.Text{V: "second"})).To(BeTrue())
	})
})

var _ = Describe("capacity bound (S6)", func() {
	It("PutNowait fails with ErrFull at capacity, then succeeds once acked", func() {
		sender, receiver, err := shmq.CreatePair(testConfig(), 1)
		Expect(err).NotTo(HaveOccurred())
		defer sender.Close()
		defer receiver.Close()

		Expect(sender.PutNowait(codec.NewInt(1))).To(Succeed())
		Expect(sender.HasSpace()).To(BeFalse())

		err = sender.PutNowait(codec.NewInt(2))
		Expect(err).To(Equal(cos.ErrFull))

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err = receiver.Get(ctx)
		Expect(err).NotTo(HaveOccurred())

		Eventually(func() int { return sender.OpenCount() }, time.Second).Should(Equal(0))
		Expect(sender.PutNowait(codec.NewInt(2))).To(Succeed())
	})

	It("treats capacity <= 0 as unbounded: PutNowait never returns ErrFull", func() {
		sender, receiver, err := shmq.CreatePair(testConfig(), 0)
		Expect(err).NotTo(HaveOccurred())
		defer sender.Close()
		defer receiver.Close()

		for i := 0; i < 8; i++ {
			Expect(sender.HasSpace()).To(BeTrue())
			Expect(sender.PutNowait(codec.NewInt(int64(i)))).To(Succeed())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := 0; i < 8; i++ {
			v, err := receiver.Get(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(codec.Equal(v, codec.NewInt(int64(i)))).To(BeTrue())
		}
	})
})

var _ = Describe("non-blocking Get", func() {
	It("GetNowait returns ErrEmpty when nothing is pending", func() {
		_, receiver, err := shmq.CreatePair(testConfig(), 2)
		Expect(err).NotTo(HaveOccurred())
		defer receiver.Close()

		_, err = receiver.GetNowait()
		Expect(err).To(Equal(cos.ErrEmpty))
	})
})

var _ = Describe("WaitForAllAck", func() {
	It("blocks until every sent segment has been acked", func() {
		sender, receiver, err := shmq.CreatePair(testConfig(), 4)
		Expect(err).NotTo(HaveOccurred())
		defer sender.Close()
		defer receiver.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		Expect(sender.Put(ctx, codec.NewInt(1))).To(Succeed())

		done := make(chan struct{})
		go func() {
			_ = sender.WaitForAllAck(ctx)
			close(done)
		}()

		Consistently(done, 100*time.Millisecond).ShouldNot(BeClosed())
		_, err = receiver.Get(ctx)
		Expect(err).NotTo(HaveOccurred())
		Eventually(done, time.Second).Should(BeClosed())
	})
})

var _ = Describe("Close", func() {
	It("rejects further Put/Get once closed and unlinks outstanding segments", func() {
		sender, receiver, err := shmq.CreatePair(testConfig(), 4)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		Expect(sender.Put(ctx, codec.NewInt(1))).To(Succeed())
		Expect(sender.OpenCount()).To(Equal(1))

		Expect(sender.Close()).To(Succeed())
		Expect(sender.OpenCount()).To(Equal(0))
		Expect(receiver.Close()).To(Succeed())

		err = sender.Put(ctx, codec.NewInt(2))
		Expect(err).To(Equal(cos.ErrBrokenChannel))
		_, err = receiver.Get(ctx)
		Expect(err).To(Equal(cos.ErrBrokenChannel))
	})
})

var _ = Describe("cyclic values", func() {
	It("Put rejects a cyclic value without consuming capacity", func() {
		sender, _, err := shmq.CreatePair(testConfig(), 1)
		Expect(err).NotTo(HaveOccurred())
		defer sender.Close()

		items := make([]codec.Value, 1)
		items[0] = codec.Seq{Items: items}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err = sender.Put(ctx, codec.Seq{Items: items})
		Expect(err).To(HaveOccurred())
		Expect(codec.IsErrCyclicValue(err)).To(BeTrue())
		Expect(sender.HasSpace()).To(BeTrue())

		// capacity was reserved-then-released, so a well-formed Put still fits.
		Expect(sender.PutNowait(codec.NewInt(1))).To(Succeed())
	})
})
