package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, content string) error {
	t.Helper()
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestRead_SkipsBlankAndComments(t *testing.T) {
	input := strings.Join([]string{
		"# header comment",
		"the cat sat on the mat",
		"",
		"   ",
		"  the dog slept  ",
		"# trailing comment",
	}, "\n")

	lines, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"the cat sat on the mat", "the dog slept"}, lines)
}

func TestRead_EmptyCorpus(t *testing.T) {
	_, err := Read(strings.NewReader("# only comments\n\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, writeTestFile(t, path, "one two\n# skip\nthree four\n"))

	lines, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"one two", "three four"}, lines)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
