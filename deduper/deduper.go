// Package deduper maintains listing identity across repeated exposure of the
// same panel item while the results list is scrolled.
package deduper

import (
	"context"
	"sort"
	"sync"

	"github.com/mapscout/mapscout/leads"
)

// Deduper is the crawl-time key set: the crawler registers every panel link
// it sees and only captures items it has not seen before in this run.
type Deduper interface {
	AddIfNotExists(ctx context.Context, key string) bool
}

func New() Deduper {
	return &deduper{
		seen: make(map[string]struct{}),
	}
}

type deduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func (d *deduper) AddIfNotExists(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return false
	}

	d.seen[key] = struct{}{}

	return true
}

// Dedupe collapses seeds sharing a ListingIdentity to the first-seen entry
// (lowest source position) and returns them in source-position order.
// Pure and idempotent: re-running on deduplicated input is a no-op.
func Dedupe(seeds []leads.ListingSeed) []leads.ListingSeed {
	ordered := make([]leads.ListingSeed, len(seeds))
	copy(ordered, seeds)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SourcePosition < ordered[j].SourcePosition
	})

	seen := make(map[leads.Identity]struct{}, len(ordered))
	unique := make([]leads.ListingSeed, 0, len(ordered))

	for _, seed := range ordered {
		id := seed.Identity()
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		unique = append(unique, seed)
	}

	return unique
}
