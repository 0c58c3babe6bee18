package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TikToken wraps a pretrained OpenAI encoding behind the Tokenizer
// interface. It is offered from the CLI as an alternative to the word
// vocabulary; note that its vocabulary is orders of magnitude larger, so a
// model trained against it needs a matching VocabSize.
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikToken loads an encoding by name, e.g. "cl100k_base" or "r50k_base".
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TikToken{encoding: encoding, name: encodingName}, nil
}

// Encode converts text to token ids.
func (t *TikToken) Encode(text string) ([]int32, error) {
	tokens := t.encoding.Encode(text, nil, nil)
	result := make([]int32, len(tokens))
	for i, tok := range tokens {
		result[i] = int32(tok)
	}
	return result, nil
}

// Decode converts token ids back to text.
func (t *TikToken) Decode(tokens []int32) (string, error) {
	intTokens := make([]int, len(tokens))
	for i, tok := range tokens {
		intTokens[i] = int(tok)
	}
	return t.encoding.Decode(intTokens), nil
}

// VocabSize returns the encoding's vocabulary size.
func (t *TikToken) VocabSize() int {
	// tiktoken-go does not expose the size directly; these are the
	// published sizes for the supported encodings.
	switch t.name {
	case "cl100k_base":
		return 100256
	case "p50k_base", "r50k_base":
		return 50257
	default:
		return 100000
	}
}

// PadToken returns -1: tiktoken encodings define no padding token.
func (t *TikToken) PadToken() int32 {
	return -1
}

// UnkToken returns -1: byte-level BPE has no unknown token.
func (t *TikToken) UnkToken() int32 {
	return -1
}

// Name returns the encoding name.
func (t *TikToken) Name() string {
	return t.name
}
