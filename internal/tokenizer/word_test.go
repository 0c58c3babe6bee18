package tokenizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) error {
	t.Helper()
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestBuildWord_ReservedIDs(t *testing.T) {
	w := BuildWord([]string{"the cat sat"}, 0)

	pad, err := w.IDToWord(PadID)
	require.NoError(t, err)
	assert.Equal(t, "<pad>", pad)

	unk, err := w.IDToWord(UnkID)
	require.NoError(t, err)
	assert.Equal(t, "<unk>", unk)

	assert.Equal(t, int32(0), w.PadToken())
	assert.Equal(t, int32(1), w.UnkToken())
	assert.Equal(t, 5, w.VocabSize(), "2 reserved + 3 corpus words")
}

func TestBuildWord_FirstOccurrenceOrder(t *testing.T) {
	w := BuildWord([]string{"b a", "a c"}, 0)

	ids, err := w.Encode("b a c")
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 3, 4}, ids)
}

func TestEncode_Deterministic(t *testing.T) {
	w := BuildWord([]string{"the quick brown fox"}, 0)

	first, err := w.Encode("the brown fox jumps")
	require.NoError(t, err)
	second, err := w.Encode("the brown fox jumps")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEncode_UnknownMapsToUnk(t *testing.T) {
	w := BuildWord([]string{"hello world"}, 0)

	ids, err := w.Encode("hello zebra world zebra")
	require.NoError(t, err)
	assert.Equal(t, []int32{2, UnkID, 3, UnkID}, ids)
}

func TestEncode_Normalization(t *testing.T) {
	w := BuildWord([]string{"Hello, World!"}, 0)

	// Case and punctuation differences must not change the mapping.
	plain, err := w.Encode("hello world")
	require.NoError(t, err)
	shouty, err := w.Encode("HELLO... WORLD?!")
	require.NoError(t, err)
	assert.Equal(t, plain, shouty)

	// Pure punctuation contributes no token.
	ids, err := w.Encode("hello -- world")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestBuildWord_VocabLimit(t *testing.T) {
	w := BuildWord([]string{"a b c d e"}, 4)

	assert.Equal(t, 4, w.VocabSize())

	ids, err := w.Encode("a b c d e")
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 3, UnkID, UnkID, UnkID}, ids)
}

func TestDecode(t *testing.T) {
	w := BuildWord([]string{"the cat sat"}, 0)

	ids, err := w.Encode("the cat sat")
	require.NoError(t, err)

	text, err := w.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "the cat sat", text)
}

func TestDecode_OutOfRange(t *testing.T) {
	w := BuildWord([]string{"a"}, 0)

	_, err := w.Decode([]int32{42})
	assert.Error(t, err)

	_, err = w.Decode([]int32{-1})
	assert.Error(t, err)
}

func TestVocab_SaveLoadRoundTrip(t *testing.T) {
	orig := BuildWord([]string{"the quick brown fox", "jumps over the lazy dog"}, 0)

	path := filepath.Join(t.TempDir(), "vocab.json")
	require.NoError(t, orig.SaveVocab(path))

	loaded, err := LoadWordVocab(path)
	require.NoError(t, err)
	assert.Equal(t, orig.VocabSize(), loaded.VocabSize())

	text := "the lazy fox"
	wantIDs, err := orig.Encode(text)
	require.NoError(t, err)
	gotIDs, err := loaded.Encode(text)
	require.NoError(t, err)
	assert.Equal(t, wantIDs, gotIDs)
}

func TestLoadWordVocab_MissingReserved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.json")
	require.NoError(t, writeFile(t, path, `{"words":["a","b"]}`))

	_, err := LoadWordVocab(path)
	assert.Error(t, err)
}

func TestLoadWordVocab_MissingFile(t *testing.T) {
	_, err := LoadWordVocab(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
