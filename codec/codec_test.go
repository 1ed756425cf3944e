package codec_test

import (
	"math/big"

	"github.com/aistore-io/shmq/codec"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func roundTrip(v codec.Value) (codec.Value, error) {
	buffers, err := codec.Encode(v)
	if err != nil {
		return nil, err
	}
	return codec.Decode(buffers)
}

var _ = Describe("leaf values", func() {
	It("round-trips absent", func() {
		got, err := roundTrip(codec.Absent{})
		Expect(err).NotTo(HaveOccurred())
		Expect(codec.Equal(got, codec.Absent{})).To(BeTrue())
	})

	It("round-trips a big positive and negative int", func() {
		big1, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
		for _, n := range []*big.Int{big.NewInt(0), big.NewInt(-7), big1, new(big.Int).Neg(big1)} {
			got, err := roundTrip(codec.Int{V: n})
			Expect(err).NotTo(HaveOccurred())
			Expect(codec.Equal(got, codec.Int{V: n})).To(BeTrue())
		}
	})

	It("round-trips float, bool, bytes, text", func() {
		got, err := roundTrip(codec.Float{V: 3.14159})
		Expect(err).NotTo(HaveOccurred())
		Expect(codec.Equal(got, codec.Float{V: 3.14159})).To(BeTrue())

		got, err = roundTrip(codec.Bool{V: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(codec.Equal(got, codec.Bool{V: true})).To(BeTrue())

		got, err = roundTrip(codec.Bytes{V: []byte("hello\x00world")})
		Expect(err).NotTo(HaveOccurred())
		Expect(codec.Equal(got, codec.Bytes{V: []byte("hello\x00world")})).To(BeTrue())

		got, err = roundTrip(codec.Text{V: "héllo, 世界"})
		Expect(err).NotTo(HaveOccurred())
		Expect(codec.Equal(got, codec.Text{V: "héllo, 世界"})).To(BeTrue())
	})

	It("round-trips an n-d array", func() {
		data := make([]byte, 2*3*4)
		for i := range data {
			data[i] = byte(i)
		}
		arr := codec.Array{DType: codec.DTypeInt32, Shape: []int64{2, 3}, Data: data}
		got, err := roundTrip(arr)
		Expect(err).NotTo(HaveOccurred())
		Expect(codec.Equal(got, arr)).To(BeTrue())
	})

	It("rejects a shape/data length mismatch", func() {
		arr := codec.Array{DType: codec.DTypeInt32, Shape: []int64{2, 3}, Data: []byte{1, 2, 3}}
		_, err := codec.Encode(arr)
		Expect(err).To(HaveOccurred())
	})

	It("round-trips a standalone dtype tag", func() {
		got, err := roundTrip(codec.DTypeValue{D: codec.DTypeFloat64})
		Expect(err).NotTo(HaveOccurred())
		Expect(codec.Equal(got, codec.DTypeValue{D: codec.DTypeFloat64})).To(BeTrue())
	})
})

var _ = Describe("containers", func() {
	It("round-trips a nested tuple/seq/set/map", func() {
		v := codec.Tuple{Items: []codec.Value{
			codec.NewInt(1),
			codec.Seq{Items: []codec.Value{codec.NewInt(2), codec.NewInt(3)}},
			codec.Set{Items: []codec.Value{codec.Text{V: "a"}, codec.Text{V: "b"}}},
			codec.Map{
				Keys:   []codec.Value{codec.Text{V: "k1"}, codec.NewInt(9)},
				Values: []codec.Value{codec.NewInt(42), codec.Bool{V: false}},
			},
		}}
		got, err := roundTrip(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(codec.Equal(got, v)).To(BeTrue())
	})

	It("treats set equality as order-independent", func() {
		a := codec.Set{Items: []codec.Value{codec.NewInt(1), codec.NewInt(2)}}
		b := codec.Set{Items: []codec.Value{codec.NewInt(2), codec.NewInt(1)}}
		Expect(codec.Equal(a, b)).To(BeTrue())
	})

	It("treats map equality as order-sensitive, unlike set", func() {
		a := codec.Map{
			Keys:   []codec.Value{codec.NewInt(1), codec.NewInt(2)},
			Values: []codec.Value{codec.Text{V: "a"}, codec.Text{V: "b"}},
		}
		b := codec.Map{
			Keys:   []codec.Value{codec.NewInt(2), codec.NewInt(1)},
			Values: []codec.Value{codec.Text{V: "b"}, codec.Text{V: "a"}},
		}
		Expect(codec.Equal(a, b)).To(BeFalse())

		got, err := roundTrip(a)
		Expect(err).NotTo(HaveOccurred())
		Expect(codec.Equal(got, a)).To(BeTrue())
	})

	It("round-trips a record with class and field names", func() {
		rec, err := codec.NewRecord("Point", []string{"x", "y"}, []codec.Value{codec.NewInt(3), codec.NewInt(4)})
		Expect(err).NotTo(HaveOccurred())
		got, err := roundTrip(rec)
		Expect(err).NotTo(HaveOccurred())
		Expect(codec.Equal(got, rec)).To(BeTrue())
		gotRec, ok := got.(codec.Record)
		Expect(ok).To(BeTrue())
		Expect(gotRec.Fields).To(Equal([]string{"x", "y"}))
	})

	It("rejects a container key in a map", func() {
		v := codec.Map{
			Keys:   []codec.Value{codec.Seq{Items: []codec.Value{codec.NewInt(1)}}},
			Values: []codec.Value{codec.NewInt(1)},
		}
		_, err := codec.Encode(v)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a cyclic value graph", func() {
		items := make([]codec.Value, 1)
		items[0] = codec.Seq{Items: items}
		_, err := codec.Encode(codec.Seq{Items: items})
		Expect(err).To(HaveOccurred())
		Expect(codec.IsErrCyclicValue(err)).To(BeTrue())
	})

	It("does not mistake sibling empty containers for a cycle", func() {
		v := codec.Tuple{Items: []codec.Value{
			codec.Seq{Items: []codec.Value{}},
			codec.Seq{Items: []codec.Value{}},
		}}
		_, err := codec.Encode(v)
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("malformed wire data", func() {
	It("rejects a truncated buffer list", func() {
		buffers, err := codec.Encode(codec.Text{V: "abc"})
		Expect(err).NotTo(HaveOccurred())
		_, err = codec.Decode(buffers[:1])
		Expect(err).To(HaveOccurred())
	})

	It("rejects a header whose declared length disagrees with the buffer", func() {
		buffers, err := codec.Encode(codec.Text{V: "abcdef"})
		Expect(err).NotTo(HaveOccurred())
		buffers[1] = buffers[1][:3]
		_, err = codec.Decode(buffers)
		Expect(err).To(HaveOccurred())
	})
})
