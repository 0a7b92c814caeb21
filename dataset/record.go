package dataset

import (
	"fmt"

	"github.com/viant/bintly"
)

// Record is one tokenized training example.
type Record struct {
	ID       string `json:"id"`
	Sequence string `json:"sequence"`
	InputIDs []int  `json:"input_ids"`
}

// EncodeBinary writes the record to a binary stream.
func (r *Record) EncodeBinary(stream *bintly.Writer) error {
	stream.String(r.ID)
	stream.String(r.Sequence)
	stream.Int(len(r.InputIDs))
	for _, id := range r.InputIDs {
		stream.Int(id)
	}
	return nil
}

// DecodeBinary reads the record from a binary stream.
func (r *Record) DecodeBinary(stream *bintly.Reader) error {
	stream.String(&r.ID)
	stream.String(&r.Sequence)
	var size int
	stream.Int(&size)
	if size < 0 {
		return fmt.Errorf("invalid token count %d", size)
	}
	r.InputIDs = make([]int, size)
	for i := 0; i < size; i++ {
		stream.Int(&r.InputIDs[i])
	}
	return nil
}
