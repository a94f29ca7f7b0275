package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapText(t *testing.T) {
	lines := wrapText("abcdef", 3)

	require.Equal(t, []string{"abc", "def"}, lines)
}

func TestWrapTextWideRunes(t *testing.T) {
	// Full-width runes count as two columns each.
	lines := wrapText("ああああ", 4)

	require.Equal(t, []string{"ああ", "ああ"}, lines)
}

func TestBannerShape(t *testing.T) {
	out := banner([]string{"hello"}, 20)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "+"+strings.Repeat("-", 18)+"+", lines[0])
	require.Equal(t, lines[0], lines[2])
	require.Contains(t, lines[1], "hello")

	for _, line := range lines {
		require.Len(t, line, 20)
	}
}
