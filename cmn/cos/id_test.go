package cos_test

import (
	"github.com/aistore-io/shmq/cmn/cos"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("id generation", func() {
	It("generates unique, path-safe segment names", func() {
		seen := make(map[string]bool, 1000)
		for i := 0; i < 1000; i++ {
			name := cos.GenSegmentName("shmq")
			Expect(seen[name]).To(BeFalse())
			seen[name] = true
			Expect(cos.CheckSegmentName(name)).To(Succeed())
		}
	})

	It("defaults the namespace when empty", func() {
		name := cos.GenSegmentName("")
		Expect(name).To(HavePrefix("shmq_"))
	})

	It("rejects unsafe names", func() {
		Expect(cos.CheckSegmentName("../etc/passwd")).ToNot(Succeed())
		Expect(cos.CheckSegmentName("")).ToNot(Succeed())
	})
})

var _ = Describe("sizes", func() {
	It("computes ceiling division", func() {
		Expect(cos.DivCeil(10, 3)).To(BeEquivalentTo(4))
		Expect(cos.DivCeil(9, 3)).To(BeEquivalentTo(3))
	})

	It("renders IEC sizes", func() {
		Expect(cos.ToSizeIEC(cos.MiB, 0)).To(Equal("1MiB"))
	})
})
