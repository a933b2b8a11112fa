package fs

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadLines returns the trimmed, non-empty lines of path, skipping '#' comments.
// A missing file is reported with an error satisfying os.IsNotExist / errors.Is(err, fs.ErrNotExist).
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}
