// Package leadrunner runs the full pipeline: stealth session, consent,
// crawl, dedupe, enrichment fan-out, aggregation, export.
package leadrunner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mapscout/mapscout/browser"
	"github.com/mapscout/mapscout/consent"
	"github.com/mapscout/mapscout/crawler"
	"github.com/mapscout/mapscout/deduper"
	"github.com/mapscout/mapscout/enrich"
	"github.com/mapscout/mapscout/events"
	"github.com/mapscout/mapscout/leads"
	"github.com/mapscout/mapscout/logger"
	"github.com/mapscout/mapscout/runner"
	"github.com/mapscout/mapscout/tlmt"
	"github.com/mapscout/mapscout/writer"
)

const consentTimeout = 5 * time.Second

type leadRunner struct {
	cfg     *runner.Config
	log     *zap.Logger
	geo     *browser.Geolocation
	writers []writer.ResultWriter
	outfile *os.File
	session *browser.Session
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.Query == "" {
		return nil, runner.ErrMissingQuery
	}

	log, err := logger.New(cfg.Debug)
	if err != nil {
		return nil, err
	}

	geo, err := browser.ResolveGeolocation(cfg.GeoPreset, cfg.GeoCoordinates)
	if err != nil {
		return nil, err
	}

	ans := &leadRunner{
		cfg: cfg,
		log: log,
		geo: geo,
	}

	if err := ans.setWriters(); err != nil {
		return nil, err
	}

	return ans, nil
}

func (r *leadRunner) Run(ctx context.Context) (err error) {
	t0 := time.Now().UTC()

	var recordCount int

	defer func() {
		elapsed := time.Now().UTC().Sub(t0)
		params := map[string]any{
			"query_set": r.cfg.Query != "",
			"records":   recordCount,
			"duration":  elapsed.String(),
		}

		if err != nil {
			params["error"] = err.Error()
		}

		evt := tlmt.NewEvent("lead_runner", params)

		_ = runner.Telemetry().Send(ctx, evt)
	}()

	if r.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.cfg.RunTimeout)
		defer cancel()
	}

	reporter := events.NewLogReporter(r.log)

	reporter.PhaseStarted(events.PhaseSession)

	session, err := browser.Open(browser.Config{
		Query:       r.cfg.Query,
		LangCode:    r.cfg.LangCode,
		Headless:    r.cfg.Headless,
		Geolocation: r.geo,
	})
	if err != nil {
		// Fatal: without a session there is nothing to output.
		return fmt.Errorf("session init: %w", err)
	}

	r.session = session
	defer session.Close()

	reporter.PhaseStarted(events.PhaseConsent)
	consent.Resolve(session.Page(), consentTimeout)

	reporter.PhaseStarted(events.PhaseCrawl)

	crawl := crawler.New(
		crawler.NewPanel(session.Page(), 0),
		deduper.New(),
		crawler.Config{
			TargetCount:    r.cfg.TargetCount,
			StallThreshold: r.cfg.StallThreshold,
			// A consent overlay can land after the first sweep and keep the
			// panel from rendering; give it one more chance before the page
			// counts as blocked.
			RecoverBlocked: func(context.Context) bool {
				return consent.Resolve(session.Page(), consentTimeout)
			},
		},
		r.log,
		reporter,
	)

	seeds, err := crawl.Crawl(ctx)
	if err != nil {
		return err
	}

	// The session is only needed by the sequential crawl path; release the
	// browser before fanning out.
	if err := session.Close(); err != nil {
		r.log.Warn("session close failed", zap.Error(err))
	}

	reporter.PhaseStarted(events.PhaseDedupe)
	unique := deduper.Dedupe(seeds)

	reporter.PhaseStarted(events.PhaseEnrich)

	enricher := enrich.New(enrich.Config{
		Concurrency:       r.cfg.Concurrency,
		RequestTimeout:    r.cfg.FetchTimeout,
		MaxProfileFetches: r.cfg.MaxProfileFetches,
	}, r.log, reporter)

	enrichment := enricher.Enrich(ctx, unique)

	reporter.PhaseStarted(events.PhaseAggregate)
	records := leads.Aggregate(unique, enrichment)
	recordCount = len(records)

	// Export must still happen after a timeout or cancellation: partial
	// results are valid output, never discarded.
	reporter.PhaseStarted(events.PhaseExport)
	exportCtx := context.WithoutCancel(ctx)

	for _, w := range r.writers {
		if err := w.Write(exportCtx, records); err != nil {
			return err
		}
	}

	r.log.Info("run finished",
		zap.Int("records", recordCount),
		zap.Duration("elapsed", time.Since(t0)),
	)

	return nil
}

func (r *leadRunner) Close(context.Context) error {
	if r.session != nil {
		_ = r.session.Close()
	}

	_ = r.log.Sync()

	if r.outfile != nil {
		return r.outfile.Close()
	}

	return nil
}

func (r *leadRunner) setWriters() error {
	var out io.Writer

	switch r.cfg.ResultsFile {
	case "stdout", "":
		out = os.Stdout
	default:
		f, err := os.Create(r.cfg.ResultsFile)
		if err != nil {
			return err
		}

		r.outfile = f
		out = f
	}

	if r.cfg.JSON {
		r.writers = append(r.writers, writer.NewJSONWriter(out))
	} else {
		// BOM only when writing to a file; Excel needs it, terminals don't.
		r.writers = append(r.writers, writer.NewCsvWriter(out, r.outfile != nil))
	}

	return nil
}
