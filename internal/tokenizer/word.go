package tokenizer

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/goccy/go-json"
)

// Reserved word-vocabulary ids.
const (
	PadID int32 = 0
	UnkID int32 = 1
)

const (
	padWord = "<pad>"
	unkWord = "<unk>"
)

// Word is a whitespace tokenizer over a fixed vocabulary.
//
// Words are lower-cased and stripped of punctuation before lookup. Ids 0 and
// 1 are reserved for <pad> and <unk>; every other id is assigned in order of
// first occurrence in the corpus the vocabulary was built from, which makes
// the mapping deterministic for a given corpus. The vocabulary is immutable
// once built.
type Word struct {
	ids   map[string]int32
	words []string // index == id
}

// BuildWord constructs a vocabulary from corpus lines.
//
// maxVocab caps the total vocabulary size including the two reserved ids;
// 0 means unlimited. Words beyond the cap encode as <unk>.
func BuildWord(lines []string, maxVocab int) *Word {
	w := &Word{
		ids:   map[string]int32{padWord: PadID, unkWord: UnkID},
		words: []string{padWord, unkWord},
	}

	for _, line := range lines {
		for _, field := range strings.Fields(line) {
			word := Normalize(field)
			if word == "" {
				continue
			}
			if _, ok := w.ids[word]; ok {
				continue
			}
			if maxVocab > 0 && len(w.words) >= maxVocab {
				continue
			}
			w.ids[word] = int32(len(w.words))
			w.words = append(w.words, word)
		}
	}
	return w
}

// Normalize lower-cases a word and strips punctuation. Returns "" if
// nothing remains.
func Normalize(word string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(word) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Encode converts text to token ids. Unknown words map to UnkID; the same
// text against the same vocabulary always yields the same id sequence.
func (w *Word) Encode(text string) ([]int32, error) {
	var tokens []int32
	for _, field := range strings.Fields(text) {
		word := Normalize(field)
		if word == "" {
			continue
		}
		if id, ok := w.ids[word]; ok {
			tokens = append(tokens, id)
		} else {
			tokens = append(tokens, UnkID)
		}
	}
	return tokens, nil
}

// Decode converts token ids back to a space-joined string.
// An id outside the vocabulary is an error.
func (w *Word) Decode(tokens []int32) (string, error) {
	parts := make([]string, 0, len(tokens))
	for _, id := range tokens {
		word, err := w.IDToWord(id)
		if err != nil {
			return "", err
		}
		parts = append(parts, word)
	}
	return strings.Join(parts, " "), nil
}

// IDToWord returns the word for a single id.
func (w *Word) IDToWord(id int32) (string, error) {
	if id < 0 || int(id) >= len(w.words) {
		return "", fmt.Errorf("tokenizer: id %d outside vocabulary [0, %d)", id, len(w.words))
	}
	return w.words[id], nil
}

// VocabSize returns the vocabulary size including the reserved ids.
func (w *Word) VocabSize() int {
	return len(w.words)
}

// PadToken returns the padding token id.
func (w *Word) PadToken() int32 {
	return PadID
}

// UnkToken returns the unknown-word token id.
func (w *Word) UnkToken() int32 {
	return UnkID
}

// wordVocabFile is the on-disk JSON form of a word vocabulary. The word
// list is stored in id order; the lookup map is rebuilt on load.
type wordVocabFile struct {
	Words []string `json:"words"`
}

// SaveVocab writes the vocabulary as JSON to path.
func (w *Word) SaveVocab(path string) error {
	data, err := json.Marshal(wordVocabFile{Words: w.words})
	if err != nil {
		return fmt.Errorf("tokenizer: marshal vocabulary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("tokenizer: %w", err)
	}
	return nil
}

// LoadWordVocab reads a vocabulary previously written by SaveVocab.
func LoadWordVocab(path string) (*Word, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: %w", err)
	}

	var file wordVocabFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("tokenizer: parse vocabulary: %w", err)
	}
	if len(file.Words) < 2 || file.Words[PadID] != padWord || file.Words[UnkID] != unkWord {
		return nil, fmt.Errorf("tokenizer: vocabulary %s is missing the reserved <pad>/<unk> entries", path)
	}

	w := &Word{
		ids:   make(map[string]int32, len(file.Words)),
		words: file.Words,
	}
	for i, word := range file.Words {
		w.ids[word] = int32(i)
	}
	return w, nil
}
