// Package enrich derives additional contact channels for unique listings by
// concurrently fetching and parsing their websites and linked social
// profiles. Every failure here is recoverable per listing: the listing keeps
// an empty enrichment and the run continues.
package enrich

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mapscout/mapscout/events"
	"github.com/mapscout/mapscout/leads"
)

const (
	defaultConcurrency    = 8
	defaultRequestTimeout = 20 * time.Second
	defaultMaxBodyBytes   = 2 * 1024 * 1024
	defaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// ContactPaths are the site-internal paths probed in order for an email when
// the homepage has none. Small businesses bury their address on a contact or
// about page more often than not. Exported and overridable like the consent
// locale table.
var ContactPaths = []string{
	"contact",
	"contacto",
	"contacte",
	"contacts",
	"about",
	"about-us",
	"info",
	"information",
}

type Config struct {
	// Concurrency bounds the worker pool.
	Concurrency int
	// RequestTimeout bounds every single fetch.
	RequestTimeout time.Duration
	// MaxBodyBytes caps how much of a response is read and parsed.
	MaxBodyBytes int64
	// MaxProfileFetches is the budget of extra social-profile fetches per
	// listing (currently only the Instagram bio). 0 disables the follow-up.
	MaxProfileFetches int
	UserAgent         string
}

type Enricher struct {
	cfg      Config
	client   *http.Client
	log      *zap.Logger
	reporter events.Reporter
}

func New(cfg Config, log *zap.Logger, reporter events.Reporter) *Enricher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	if log == nil {
		log = zap.NewNop()
	}

	if reporter == nil {
		reporter = events.Noop{}
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		// Small businesses run sites behind expired or self-signed certs;
		// a TLS failure must not cost the listing its contact data.
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
	}

	return &Enricher{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		log:      log,
		reporter: reporter,
	}
}

// Enrich runs one task per listing with a website on a pool bounded by
// Concurrency. Listings without a website get an empty result without any
// network call. Each task writes only its own pre-allocated slot, so the
// result map is assembled without locking once the pool drains.
func (e *Enricher) Enrich(ctx context.Context, seeds []leads.ListingSeed) map[leads.Identity]leads.EnrichmentResult {
	results := make([]leads.EnrichmentResult, len(seeds))

	var g errgroup.Group

	g.SetLimit(e.cfg.Concurrency)

	for i := range seeds {
		seed := seeds[i]
		slot := &results[i]

		if seed.Website == "" {
			*slot = leads.EmptyEnrichment(seed.Identity())

			continue
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				// Cancelled before starting: abandon, keep the empty slot.
				*slot = leads.EmptyEnrichment(seed.Identity())

				return nil
			}

			*slot = e.enrichOne(ctx, seed)

			return nil
		})
	}

	_ = g.Wait()

	out := make(map[leads.Identity]leads.EnrichmentResult, len(seeds))

	for i := range results {
		id := results[i].Identity
		if id == "" {
			id = seeds[i].Identity()
			results[i] = leads.EmptyEnrichment(id)
		}

		if _, ok := out[id]; !ok {
			out[id] = results[i]
		}
	}

	return out
}

func (e *Enricher) enrichOne(ctx context.Context, seed leads.ListingSeed) leads.EnrichmentResult {
	res := leads.EmptyEnrichment(seed.Identity())

	// A "website" that is itself a social profile is classified directly;
	// fetching it would only hit a login wall.
	if !seed.IsWebsiteEnrichable() {
		classifySocialLink(&res, seed.Website)

		return res
	}

	body, err := e.fetch(ctx, seed.Website)
	if err != nil {
		e.reporter.EnrichmentFailed(res.Identity, seed.Website, err)

		return res
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		e.reporter.EnrichmentFailed(res.Identity, seed.Website, err)

		return res
	}

	res.Emails = extractEmails(doc, body)
	extractSocials(&res, doc)

	if len(res.Emails) == 0 {
		res.Emails = e.probeContactPages(ctx, seed.Website)
	}

	if len(res.Emails) == 0 && res.Instagram != "" && e.cfg.MaxProfileFetches > 0 {
		// One extra fetch: public Instagram bios sometimes carry an email
		// the site itself does not.
		if bio, err := e.fetch(ctx, res.Instagram); err == nil {
			res.Emails = regexEmails(bio)
		} else {
			e.log.Debug("instagram bio fetch failed",
				zap.String("url", res.Instagram),
				zap.Error(err),
			)
		}
	}

	return res
}

// probeContactPages walks the contact-path table until one page yields an
// email. Same tolerance as the homepage fetch: a path that fails or parses
// to nothing is skipped, never reported.
func (e *Enricher) probeContactPages(ctx context.Context, website string) []string {
	base := strings.TrimSuffix(strings.TrimSpace(website), "/")
	if base == "" {
		return nil
	}

	for _, path := range ContactPaths {
		if ctx.Err() != nil {
			return nil
		}

		target := base + "/" + path

		body, err := e.fetch(ctx, target)
		if err != nil {
			e.log.Debug("contact page fetch failed",
				zap.String("url", target),
				zap.Error(err),
			)

			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			continue
		}

		if emails := extractEmails(doc, body); len(emails) > 0 {
			return emails
		}
	}

	return nil
}

func (e *Enricher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target := rawURL
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxBodyBytes))
	if err != nil {
		return nil, err
	}

	return body, nil
}
