package memsys_test

import (
	"github.com/aistore-io/shmq/cmn/cos"
	"github.com/aistore-io/shmq/memsys"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("segment lifecycle", func() {
	It("creates, writes, reopens, and unlinks a segment", func() {
		name := cos.GenSegmentName("memsystest")
		h, err := memsys.Create(name, 4096)
		Expect(err).NotTo(HaveOccurred())
		Expect(h.IsCreator()).To(BeTrue())
		defer h.Unlink()

		payload := []byte("the quick brown fox")
		Expect(h.Write(payload)).To(Succeed())

		opened, err := memsys.Open(name, 4096)
		Expect(err).NotTo(HaveOccurred())
		defer opened.Close()

		got, err := opened.Read(int64(len(payload)))
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(payload))

		Expect(h.Close()).To(Succeed())
	})

	It("rejects a write larger than the segment", func() {
		name := cos.GenSegmentName("memsystest")
		h, err := memsys.Create(name, 8)
		Expect(err).NotTo(HaveOccurred())
		defer h.Unlink()
		defer h.Close()

		err = h.Write([]byte("this is far too long"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects creating a segment with a duplicate name", func() {
		name := cos.GenSegmentName("memsystest")
		h, err := memsys.Create(name, 16)
		Expect(err).NotTo(HaveOccurred())
		defer h.Unlink()
		defer h.Close()

		_, err = memsys.Create(name, 16)
		Expect(err).To(HaveOccurred())
		Expect(cos.IsErrSegment(err)).To(BeTrue())
	})
})

var _ = Describe("Sweep", func() {
	It("removes only segments under the given prefix", func() {
		prefix := cos.GenSegmentName("sweeptest") + "-"
		h1, err := memsys.Create(prefix+"a", 16)
		Expect(err).NotTo(HaveOccurred())
		h1.Close()
		h2, err := memsys.Create(prefix+"b", 16)
		Expect(err).NotTo(HaveOccurred())
		h2.Close()

		other := cos.GenSegmentName("untouched")
		ho, err := memsys.Create(other, 16)
		Expect(err).NotTo(HaveOccurred())
		defer ho.Unlink()
		defer ho.Close()

		n, err := memsys.Sweep(prefix)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))

		_, err = memsys.Open(prefix+"a", 16)
		Expect(err).To(HaveOccurred())
	})
})
