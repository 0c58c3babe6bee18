// Package corpus loads training text for the Whisker model.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Read collects the usable lines from r: leading/trailing whitespace is
// trimmed, and blank lines and '#' comment lines are skipped. Line order is
// preserved, so example selection against a seeded generator is
// reproducible for a given corpus.
func Read(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("corpus: no usable lines")
	}
	return lines, nil
}

// Load reads the corpus file at path.
func Load(path string) (lines []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("corpus: %w", closeErr)
		}
	}()
	return Read(f)
}
