package console

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseUploadCount(t *testing.T) {
	cases := map[string]int{
		"5":      5,
		" 12\n":  12,
		"3abc":   3,
		"abc":    1,
		"":       1,
		"0":      1,
		"-4":     1,
		"007":    7,
		"2 3":    2,
		"10.5":   10,
		"  \t\n": 1,
	}
	for in, want := range cases {
		require.Equal(t, want, ParseUploadCount(in), "input %q", in)
	}
}

func TestPromptUploadCount(t *testing.T) {
	var out bytes.Buffer
	n, err := PromptUploadCount(bufio.NewReader(strings.NewReader("4\n")), &out)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, UploadCountPrompt, out.String())

	n, err = PromptUploadCount(bufio.NewReader(strings.NewReader("")), &out)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func pipeWith(t *testing.T, input string) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString(input)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	t.Cleanup(func() { r.Close() })
	return r
}

func stubTerminal(t *testing.T, interactive bool) {
	t.Helper()
	orig := isTerminal
	isTerminal = func(int) bool { return interactive }
	t.Cleanup(func() { isTerminal = orig })
}

func TestUploadCount_ConfiguredWins(t *testing.T) {
	var out bytes.Buffer
	n, err := UploadCount(6, pipeWith(t, "3\n"), &out)
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.Empty(t, out.String())
}

func TestUploadCount_ReadsPipedInput(t *testing.T) {
	stubTerminal(t, false)
	var out bytes.Buffer
	n, err := UploadCount(0, pipeWith(t, "3\n"), &out)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Empty(t, out.String())
}

func TestUploadCount_EmptyPipeDefaultsToOne(t *testing.T) {
	stubTerminal(t, false)
	n, err := UploadCount(0, pipeWith(t, ""), &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestUploadCount_TerminalShowsPrompt(t *testing.T) {
	stubTerminal(t, true)
	var out bytes.Buffer
	n, err := UploadCount(0, pipeWith(t, "2\n"), &out)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, UploadCountPrompt, out.String())
}

func TestSpinnerSleeper_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := SpinnerSleeper{Writer: &out}.Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSpinnerSleeper_Elapses(t *testing.T) {
	err := SpinnerSleeper{}.Sleep(context.Background(), time.Millisecond)
	require.NoError(t, err)
}

func TestBanner(t *testing.T) {
	var out bytes.Buffer
	Banner(&out, "Tusky Uploader", "testnet")
	require.Contains(t, out.String(), "Tusky Uploader")
	require.Contains(t, out.String(), "testnet")
}
