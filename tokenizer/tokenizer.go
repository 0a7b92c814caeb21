// Package tokenizer implements the fixed ESM-2 protein vocabulary: 4 control
// tokens, the 20 canonical amino acids, non-canonical residue codes and a mask
// token, 33 symbols in total. Token identifiers match the published model
// vocabulary so encoded sequences can be fed to any ESM-2 checkpoint.
package tokenizer

import (
	"fmt"
	"strings"
)

// Control token identifiers.
const (
	ClsID  = 0
	PadID  = 1
	EosID  = 2
	UnkID  = 3
	MaskID = 32
)

// MaskToken is the literal used to request a masked position in raw sequence input.
const MaskToken = "<mask>"

var vocab = []string{
	"<cls>", "<pad>", "<eos>", "<unk>",
	"L", "A", "G", "V", "S", "E", "R", "T", "I", "D", "P", "K",
	"Q", "N", "F", "Y", "M", "H", "W", "C",
	"X", "B", "U", "Z", "O", ".", "-",
	"<null_1>", "<mask>",
}

// Tokenizer converts protein sequences to ESM-2 token identifiers and back.
type Tokenizer struct {
	ids map[string]int
}

// New returns a tokenizer over the ESM-2 vocabulary.
func New() *Tokenizer {
	ids := make(map[string]int, len(vocab))
	for i, tok := range vocab {
		ids[tok] = i
	}
	return &Tokenizer{ids: ids}
}

// VocabSize returns the number of symbols in the vocabulary.
func (t *Tokenizer) VocabSize() int { return len(vocab) }

// ID returns the identifier of a token, or UnkID when the token is not part
// of the vocabulary.
func (t *Tokenizer) ID(token string) int {
	if id, ok := t.ids[token]; ok {
		return id
	}
	return UnkID
}

// Token returns the textual form of an identifier.
func (t *Tokenizer) Token(id int) (string, error) {
	if id < 0 || id >= len(vocab) {
		return "", fmt.Errorf("token id %d out of range [0..%d]", id, len(vocab)-1)
	}
	return vocab[id], nil
}

// Encode tokenizes a protein sequence as <cls> residues <eos>. Residues are
// upper-cased before lookup; characters outside the vocabulary map to <unk>.
// The literal <mask> marks a masked position.
func (t *Tokenizer) Encode(seq string) ([]int, error) {
	return t.EncodeTruncated(seq, 0)
}

// EncodeTruncated behaves like Encode but truncates the residue portion to
// maxLen-2 so the encoded sequence, including <cls> and <eos>, never exceeds
// maxLen. maxLen <= 0 disables truncation.
func (t *Tokenizer) EncodeTruncated(seq string, maxLen int) ([]int, error) {
	if maxLen == 1 {
		return nil, fmt.Errorf("max length %d leaves no room for <cls> and <eos>", maxLen)
	}
	residues, err := t.split(seq)
	if err != nil {
		return nil, err
	}
	if maxLen > 0 && len(residues) > maxLen-2 {
		residues = residues[:maxLen-2]
	}
	out := make([]int, 0, len(residues)+2)
	out = append(out, ClsID)
	out = append(out, residues...)
	out = append(out, EosID)
	return out, nil
}

// Batch holds a padded batch of encoded sequences with an attention mask
// (1 for real tokens, 0 for padding).
type Batch struct {
	IDs  [][]int
	Mask [][]int
}

// EncodeBatch encodes sequences, truncates each to maxLen and right-pads all
// members to the longest encoded length.
func (t *Tokenizer) EncodeBatch(seqs []string, maxLen int) (*Batch, error) {
	if len(seqs) == 0 {
		return nil, fmt.Errorf("no sequences provided")
	}
	encoded := make([][]int, len(seqs))
	longest := 0
	for i, seq := range seqs {
		ids, err := t.EncodeTruncated(seq, maxLen)
		if err != nil {
			return nil, fmt.Errorf("sequence %d: %w", i, err)
		}
		encoded[i] = ids
		if len(ids) > longest {
			longest = len(ids)
		}
	}
	batch := &Batch{IDs: make([][]int, len(seqs)), Mask: make([][]int, len(seqs))}
	for i, ids := range encoded {
		padded := make([]int, longest)
		mask := make([]int, longest)
		copy(padded, ids)
		for j := len(ids); j < longest; j++ {
			padded[j] = PadID
		}
		for j := 0; j < len(ids); j++ {
			mask[j] = 1
		}
		batch.IDs[i] = padded
		batch.Mask[i] = mask
	}
	return batch, nil
}

// Decode renders identifiers back to a residue string, skipping control and
// padding tokens. Mask tokens render as <mask>.
func (t *Tokenizer) Decode(ids []int) (string, error) {
	var sb strings.Builder
	for _, id := range ids {
		switch id {
		case ClsID, PadID, EosID:
			continue
		}
		tok, err := t.Token(id)
		if err != nil {
			return "", err
		}
		sb.WriteString(tok)
	}
	return sb.String(), nil
}

// split breaks a raw sequence into residue token ids, honoring the <mask>
// literal.
func (t *Tokenizer) split(seq string) ([]int, error) {
	seq = strings.TrimSpace(seq)
	out := make([]int, 0, len(seq))
	for i := 0; i < len(seq); {
		if strings.HasPrefix(seq[i:], MaskToken) {
			out = append(out, MaskID)
			i += len(MaskToken)
			continue
		}
		ch := seq[i]
		if ch == '<' {
			end := strings.IndexByte(seq[i:], '>')
			if end < 0 {
				return nil, fmt.Errorf("unterminated token at position %d", i)
			}
			out = append(out, t.ID(seq[i:i+end+1]))
			i += end + 1
			continue
		}
		out = append(out, t.ID(strings.ToUpper(string(ch))))
		i++
	}
	return out, nil
}
