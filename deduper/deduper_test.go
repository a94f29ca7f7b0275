package deduper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mapscout/mapscout/leads"
)

func TestAddIfNotExists(t *testing.T) {
	d := New()
	ctx := context.Background()

	require.True(t, d.AddIfNotExists(ctx, "https://maps/place/a"))
	require.False(t, d.AddIfNotExists(ctx, "https://maps/place/a"))
	require.True(t, d.AddIfNotExists(ctx, "https://maps/place/b"))
}

func TestDedupeFirstSeenWins(t *testing.T) {
	seeds := []leads.ListingSeed{
		{Name: "Café Central", Address: "Mallorca 401", Phone: "+34 900 111 222", SourcePosition: 4},
		{Name: "café   central", Address: "mallorca 401", SourcePosition: 1},
		{Name: "Other Bar", Address: "Diagonal 5", SourcePosition: 2},
	}

	unique := Dedupe(seeds)

	require.Len(t, unique, 2)
	require.Equal(t, 1, unique[0].SourcePosition)
	require.Empty(t, unique[0].Phone)
	require.Equal(t, "Other Bar", unique[1].Name)
}

func TestDedupeIdempotent(t *testing.T) {
	seeds := []leads.ListingSeed{
		{Name: "A", Address: "1", SourcePosition: 0},
		{Name: "A", Address: "1", SourcePosition: 3},
		{Name: "B", Address: "2", SourcePosition: 1},
	}

	once := Dedupe(seeds)
	twice := Dedupe(once)

	require.Equal(t, once, twice)
}

func TestDedupeOrderedBySourcePosition(t *testing.T) {
	seeds := []leads.ListingSeed{
		{Name: "C", Address: "3", SourcePosition: 7},
		{Name: "A", Address: "1", SourcePosition: 0},
		{Name: "B", Address: "2", SourcePosition: 3},
	}

	unique := Dedupe(seeds)

	require.Len(t, unique, 3)

	for i := 1; i < len(unique); i++ {
		require.Greater(t, unique[i].SourcePosition, unique[i-1].SourcePosition)
	}
}

func TestDedupeEmptyInput(t *testing.T) {
	require.Empty(t, Dedupe(nil))
}
