package consent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelSelector(t *testing.T) {
	sel := labelSelector("Reject all")

	require.Equal(t, `button[aria-label="Reject all"], button:has-text("Reject all")`, sel)
}

func TestButtonLabelsCoverDefaultLocale(t *testing.T) {
	require.NotEmpty(t, ButtonLabels)
	require.Equal(t, "Reject all", ButtonLabels[0])
}
