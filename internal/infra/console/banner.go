package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Banner prints the startup header.
func Banner(w io.Writer, title, subtitle string) {
	headerFmt := color.New(color.FgCyan, color.Bold).SprintfFunc()
	subFmt := color.New(color.FgYellow).SprintfFunc()

	line := strings.Repeat("-", 45)
	fmt.Fprintln(w, headerFmt("%s", line))
	fmt.Fprintln(w, headerFmt("  %s", title))
	if subtitle != "" {
		fmt.Fprintln(w, subFmt("  %s", subtitle))
	}
	fmt.Fprintln(w, headerFmt("%s", line))
	fmt.Fprintln(w)
}

// KeyValue prints an aligned "key: value" row with a colored key.
func KeyValue(w io.Writer, key string, value interface{}) {
	keyFmt := color.New(color.FgGreen).SprintfFunc()
	fmt.Fprintf(w, "  %s %v\n", keyFmt("%-18s", key+":"), value)
}
