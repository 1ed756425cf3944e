package transport

import (
	"context"

	jsoniter "github.com/json-iterator/go"

	"github.com/aistore-io/shmq/cmn/cos"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Descriptor is everything the receiving side needs to map a segment and
// recover the codec buffers it holds: the segment's name, its total mapped
// size, and the length of each buffer within it, in order (lengths[0] is
// the header buffer, lengths[1:] the out-of-band payload buffers codec.Decode
// expects).
type Descriptor struct {
	Name      string  `json:"name"`
	TotalSize int64   `json:"total_size"`
	Lengths   []int   `json:"lengths"`
}

// NewDescriptor builds a Descriptor for the given segment name and buffer
// list, as produced by codec.Encode.
func NewDescriptor(name string, buffers [][]byte) Descriptor {
	lengths := make([]int, len(buffers))
	var total int64
	for i, b := range buffers {
		lengths[i] = len(b)
		total += int64(len(b))
	}
	return Descriptor{Name: name, TotalSize: total, Lengths: lengths}
}

// Buffers splits a segment's mapped bytes back into the per-buffer slices
// codec.Decode expects, according to d.Lengths.
func (d Descriptor) Buffers(seg []byte) ([][]byte, error) {
	var want int64
	for _, l := range d.Lengths {
		want += int64(l)
	}
	if want != int64(len(seg)) {
		return nil, cos.NewErrMalformedData("descriptor %s: lengths sum to %d, segment holds %d", d.Name, want, len(seg))
	}
	out := make([][]byte, len(d.Lengths))
	var off int
	for i, l := range d.Lengths {
		out[i] = seg[off : off+l]
		off += l
	}
	return out, nil
}

// SendDescriptor marshals d and sends it over q.
func SendDescriptor(ctx context.Context, q Queue, d Descriptor) error {
	b, err := json.Marshal(d)
	if err != nil {
		return cos.NewErrMalformedData("marshal descriptor: %v", err)
	}
	return q.Send(ctx, b)
}

// RecvDescriptor receives and unmarshals the next Descriptor from q.
func RecvDescriptor(ctx context.Context, q Queue) (Descriptor, error) {
	b, err := q.Recv(ctx)
	if err != nil {
		return Descriptor{}, err
	}
	var d Descriptor
	if err := json.Unmarshal(b, &d); err != nil {
		return Descriptor{}, cos.NewErrMalformedData("unmarshal descriptor: %v", err)
	}
	return d, nil
}

// SendAck sends a released segment's name over the ack channel.
func SendAck(ctx context.Context, q Queue, segName string) error {
	return q.Send(ctx, []byte(segName))
}

// RecvAck receives the next released segment's name from the ack channel.
func RecvAck(ctx context.Context, q Queue) (string, error) {
	b, err := q.Recv(ctx)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
