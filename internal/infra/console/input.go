package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/term"
)

const UploadCountPrompt = "Enter the number of uploads to perform: "

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return f != nil && isTerminal(int(f.Fd()))
}

// ParseUploadCount reads the leading decimal digits of s.
// Anything that does not start with a positive number becomes 1.
func ParseUploadCount(s string) int {
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(s)
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// PromptUploadCount prints the prompt to w and parses one line from reader.
// EOF without input yields 1.
func PromptUploadCount(reader *bufio.Reader, w io.Writer) (int, error) {
	if _, err := fmt.Fprint(w, UploadCountPrompt); err != nil {
		return 0, err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	return ParseUploadCount(line), nil
}

// UploadCount resolves the per-vault upload count. A positive configured value
// wins; otherwise one line is read from in, so piped input works too.
// The prompt text is only shown when in is a terminal.
func UploadCount(configured int, in *os.File, w io.Writer) (int, error) {
	if configured > 0 {
		return configured, nil
	}
	if in == nil {
		return 1, nil
	}
	if !IsInteractive(in) {
		w = io.Discard
	}
	return PromptUploadCount(bufio.NewReader(in), w)
}
