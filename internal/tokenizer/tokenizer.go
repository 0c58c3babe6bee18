// Package tokenizer provides text tokenization for training and generation.
//
// The Word tokenizer is the native Whisker vocabulary: whitespace-split,
// lower-cased, punctuation-stripped words mapped to dense ids. The TikToken
// wrapper exposes pretrained OpenAI encodings through the same interface for
// experimentation.
package tokenizer

// Tokenizer converts between text and token ids.
type Tokenizer interface {
	// Encode converts text to token ids.
	Encode(text string) ([]int32, error)

	// Decode converts token ids back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// PadToken returns the padding token id, or -1 if not applicable.
	PadToken() int32

	// UnkToken returns the unknown-word token id, or -1 if not applicable.
	UnkToken() int32
}
