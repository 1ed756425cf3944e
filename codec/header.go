package codec

// node is the on-wire header tree: a small self-describing shadow of a
// Value tree, referencing payload by buffer index+length rather than
// embedding it. Field names are kept short since this struct is marshaled
// verbatim into the header buffer on every Put.
type node struct {
	Tag Tag `json:"g"`

	// leaf payload reference (TagInt, TagFloat, TagBool, TagBytes, TagText,
	// TagArray, TagDType); BufIdx is 0-based into the out-of-band buffer
	// list, i.e. final buffers[1+BufIdx].
	BufIdx int `json:"i"`
	BufLen int `json:"n"`

	// TagInt signedness: whether the little-endian two's complement bytes
	// in the referenced buffer encode a negative value.
	Signed bool `json:"sg,omitempty"`

	// TagArray metadata.
	DType DType   `json:"dt,omitempty"`
	Shape []int64 `json:"sh,omitempty"`

	// TagTuple/TagSeq/TagSet child headers, in order.
	Children []*node `json:"c,omitempty"`

	// TagMap: Keys is parallel to Children (the value headers), both in
	// insertion order.
	Keys []*node `json:"k,omitempty"`

	// TagTuple record identity: Class is non-empty iff this tuple is a
	// Record. Fields is parallel to Children.
	Class  string   `json:"cl,omitempty"`
	Fields []string `json:"fl,omitempty"`
}
