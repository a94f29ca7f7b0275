// Package crawler drives incremental scrolling of the search results panel
// and extracts per-listing base fields until the list converges or a target
// count is reached.
package crawler

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mapscout/mapscout/deduper"
	"github.com/mapscout/mapscout/events"
	"github.com/mapscout/mapscout/leads"
)

// State is the crawl state machine over the results panel.
type State int

const (
	StateIdle State = iota
	StateScrolling
	StateExtracting
	StateStable
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScrolling:
		return "scrolling"
	case StateExtracting:
		return "extracting"
	case StateStable:
		return "stable"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

const (
	defaultStallThreshold = 3
	defaultMaxCycles      = 120
)

type Config struct {
	// TargetCount stops the crawl early once reached. 0 means crawl until
	// the list stabilizes.
	TargetCount int
	// StallThreshold is the number of consecutive scroll-and-extract cycles
	// with no new unique listings before the list is considered converged.
	StallThreshold int
	// MaxCycles bounds the total number of cycles regardless of growth.
	MaxCycles int
	// RecoverBlocked, when set, runs once if the results panel fails to
	// render, giving the caller a chance to dismiss an overlay that appeared
	// after the initial consent sweep. The panel wait is retried when it
	// reports success.
	RecoverBlocked func(ctx context.Context) bool
}

// Crawler consumes one browser session's results panel. Not restartable.
type Crawler struct {
	panel    Panel
	dedup    deduper.Deduper
	cfg      Config
	log      *zap.Logger
	reporter events.Reporter

	state    State
	position int
}

func New(panel Panel, dedup deduper.Deduper, cfg Config, log *zap.Logger, reporter events.Reporter) *Crawler {
	if cfg.StallThreshold <= 0 {
		cfg.StallThreshold = defaultStallThreshold
	}

	if cfg.MaxCycles <= 0 {
		cfg.MaxCycles = defaultMaxCycles
	}

	if log == nil {
		log = zap.NewNop()
	}

	if reporter == nil {
		reporter = events.Noop{}
	}

	return &Crawler{
		panel:    panel,
		dedup:    dedup,
		cfg:      cfg,
		log:      log,
		reporter: reporter,
		state:    StateIdle,
	}
}

func (c *Crawler) State() State {
	return c.state
}

// Crawl runs scroll-and-extract cycles until the target count is reached,
// the list stalls, or ctx is cancelled. All three are normal termination
// paths producing Done. A run that never extracts anything (blocked page,
// missing panel) returns an empty slice and a diagnostic, not an error.
func (c *Crawler) Crawl(ctx context.Context) ([]leads.ListingSeed, error) {
	var seeds []leads.ListingSeed

	defer func() { c.state = StateDone }()

	if err := c.panel.WaitReady(ctx); err != nil {
		recovered := false

		if c.cfg.RecoverBlocked != nil && c.cfg.RecoverBlocked(ctx) {
			recovered = c.panel.WaitReady(ctx) == nil
		}

		if !recovered {
			c.log.Warn("results panel never became ready", zap.Error(err))
			c.reporter.Diagnostic("no results panel found, page may be blocked")

			return seeds, nil
		}
	}

	previous := 0
	stalls := 0

	for cycle := 0; cycle < c.cfg.MaxCycles; cycle++ {
		if ctx.Err() != nil {
			c.log.Info("crawl cancelled, keeping partial results", zap.Int("count", len(seeds)))

			return seeds, nil
		}

		c.state = StateScrolling

		if err := c.panel.Scroll(ctx); err != nil {
			// A failed scroll cycle yields nothing new: it counts toward
			// the stall threshold like any other empty cycle.
			c.log.Debug("scroll cycle failed", zap.Error(err))
		}

		c.state = StateExtracting

		seeds = c.extractCycle(ctx, seeds)
		c.reporter.ListingCount(len(seeds))

		if c.cfg.TargetCount > 0 && len(seeds) >= c.cfg.TargetCount {
			c.log.Info("target count reached", zap.Int("count", len(seeds)))

			return seeds[:c.cfg.TargetCount], nil
		}

		if len(seeds) == previous {
			stalls++
			c.state = StateStable

			if stalls >= c.cfg.StallThreshold {
				c.log.Info("results list converged",
					zap.Int("count", len(seeds)),
					zap.Int("stall_cycles", stalls),
				)

				break
			}
		} else {
			previous = len(seeds)
			stalls = 0
		}
	}

	if len(seeds) == 0 {
		c.reporter.Diagnostic("crawl finished without extracting any listing")
	}

	return seeds, nil
}

func (c *Crawler) extractCycle(ctx context.Context, seeds []leads.ListingSeed) []leads.ListingSeed {
	html, err := c.panel.HTML(ctx)
	if err != nil {
		c.log.Debug("panel snapshot failed", zap.Error(err))

		return seeds
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		c.log.Debug("panel snapshot unparsable", zap.Error(err))

		return seeds
	}

	for _, item := range extractItems(doc) {
		if c.dedup != nil && !c.dedup.AddIfNotExists(ctx, item.href) {
			continue
		}

		seeds = append(seeds, item.toSeed(c.position))
		c.position++
	}

	return seeds
}
