// Package events is the progress/diagnostics interface of the pipeline.
// Reporters are advisory: nothing in the control flow depends on them.
package events

import (
	"go.uber.org/zap"

	"github.com/mapscout/mapscout/leads"
)

type Phase string

const (
	PhaseSession   Phase = "session"
	PhaseConsent   Phase = "consent"
	PhaseCrawl     Phase = "crawl"
	PhaseDedupe    Phase = "dedupe"
	PhaseEnrich    Phase = "enrich"
	PhaseAggregate Phase = "aggregate"
	PhaseExport    Phase = "export"
)

type Reporter interface {
	// PhaseStarted fires when a pipeline stage is entered.
	PhaseStarted(phase Phase)
	// ListingCount reports the number of unique listings captured so far.
	ListingCount(count int)
	// EnrichmentFailed records a per-listing enrichment failure. The run
	// continues; the listing keeps an empty enrichment.
	EnrichmentFailed(id leads.Identity, url string, err error)
	// Diagnostic carries any other advisory condition (blocked page, stall).
	Diagnostic(msg string)
}

type Noop struct{}

func (Noop) PhaseStarted(Phase) {}

func (Noop) ListingCount(int) {}

func (Noop) EnrichmentFailed(leads.Identity, string, error) {}

func (Noop) Diagnostic(string) {}

type LogReporter struct {
	log *zap.Logger
}

func NewLogReporter(log *zap.Logger) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) PhaseStarted(phase Phase) {
	r.log.Info("phase started", zap.String("phase", string(phase)))
}

func (r *LogReporter) ListingCount(count int) {
	r.log.Info("listings captured", zap.Int("count", count))
}

func (r *LogReporter) EnrichmentFailed(id leads.Identity, url string, err error) {
	r.log.Warn("enrichment failed",
		zap.String("identity", string(id)),
		zap.String("url", url),
		zap.Error(err),
	)
}

func (r *LogReporter) Diagnostic(msg string) {
	r.log.Warn(msg)
}
