package enrich

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mapscout/mapscout/events"
	"github.com/mapscout/mapscout/leads"
)

type failureReporter struct {
	events.Noop

	mu       sync.Mutex
	failures []string
}

func (r *failureReporter) EnrichmentFailed(_ leads.Identity, url string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, url)
}

func (r *failureReporter) failed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.failures...)
}

func TestEnrichFromWebsite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html><body>
			<a href="mailto:info@cafeone.com">write us</a>
			<a href="https://www.instagram.com/cafeone/">instagram</a>
			<a href="https://wa.me/34933123456">whatsapp</a>
		</body></html>`)
	}))
	defer srv.Close()

	seed := leads.ListingSeed{Name: "Café One", Address: "Mallorca 401", Website: srv.URL}

	e := New(Config{Concurrency: 2}, nil, events.Noop{})

	out := e.Enrich(context.Background(), []leads.ListingSeed{seed})

	res, ok := out[seed.Identity()]
	require.True(t, ok)
	require.Equal(t, []string{"info@cafeone.com"}, res.Emails)
	require.Equal(t, "https://instagram.com/cafeone", res.Instagram)
	require.Equal(t, "https://wa.me/34933123456", res.WhatsApp)
}

func TestEnrichNoWebsiteSkipsNetwork(t *testing.T) {
	var requests atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = io.WriteString(w, `<a href="mailto:info@hassite.com">write</a>`)
	}))
	defer srv.Close()

	seeds := []leads.ListingSeed{
		{Name: "No Site", Address: "Street 1"},
		{Name: "Has Site", Address: "Street 2", Website: srv.URL},
	}

	e := New(Config{}, nil, events.Noop{})

	out := e.Enrich(context.Background(), seeds)

	require.Len(t, out, 2)
	require.True(t, out[seeds[0].Identity()].IsEmpty())
	require.Equal(t, int64(1), requests.Load())
}

func TestEnrichFindsEmailOnContactPage(t *testing.T) {
	var paths []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)

		switch r.URL.Path {
		case "/":
			_, _ = io.WriteString(w, `<html><body><h1>Welcome</h1></body></html>`)
		case "/contacto":
			_, _ = io.WriteString(w, `<html><body><a href="mailto:hola@bartwo.com">escríbenos</a></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	seed := leads.ListingSeed{Name: "Bar Two", Address: "Diagonal 5", Website: srv.URL}

	e := New(Config{Concurrency: 1}, nil, events.Noop{})

	out := e.Enrich(context.Background(), []leads.ListingSeed{seed})

	res := out[seed.Identity()]
	require.Equal(t, []string{"hola@bartwo.com"}, res.Emails)

	// Homepage first, then the path table in order up to the hit.
	require.Equal(t, []string{"/", "/contact", "/contacto"}, paths)
}

func TestEnrichContactProbeStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var requests atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		if r.URL.Path == "/" {
			cancel()
		}

		_, _ = io.WriteString(w, `<html><body>nothing</body></html>`)
	}))
	defer srv.Close()

	seed := leads.ListingSeed{Name: "Slow Probe", Address: "Street 9", Website: srv.URL}

	e := New(Config{Concurrency: 1}, nil, events.Noop{})

	out := e.Enrich(ctx, []leads.ListingSeed{seed})

	require.True(t, out[seed.Identity()].IsEmpty())
	require.Equal(t, int64(1), requests.Load())
}

func TestEnrichServerErrorKeepsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	seed := leads.ListingSeed{Name: "Blocked", Address: "Street 3", Website: srv.URL}
	reporter := &failureReporter{}

	e := New(Config{}, nil, reporter)

	out := e.Enrich(context.Background(), []leads.ListingSeed{seed})

	require.True(t, out[seed.Identity()].IsEmpty())
	require.Equal(t, []string{srv.URL}, reporter.failed())
}

func TestEnrichFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	seed := leads.ListingSeed{Name: "Slow", Address: "Street 4", Website: srv.URL}
	reporter := &failureReporter{}

	e := New(Config{RequestTimeout: 50 * time.Millisecond}, nil, reporter)

	out := e.Enrich(context.Background(), []leads.ListingSeed{seed})

	require.True(t, out[seed.Identity()].IsEmpty())
	require.Len(t, reporter.failed(), 1)
}

func TestEnrichSocialWebsiteClassifiedWithoutFetch(t *testing.T) {
	seed := leads.ListingSeed{
		Name:    "IG Only",
		Address: "Street 5",
		Website: "https://www.instagram.com/igonly",
	}

	var requests atomic.Int64

	e := New(Config{}, nil, events.Noop{})
	e.client.Transport = roundTripperFunc(func(*http.Request) (*http.Response, error) {
		requests.Add(1)

		return nil, errors.New("unexpected network call")
	})

	out := e.Enrich(context.Background(), []leads.ListingSeed{seed})

	res := out[seed.Identity()]
	require.Equal(t, "https://instagram.com/igonly", res.Instagram)
	require.Empty(t, res.Emails)
	require.Zero(t, requests.Load())
}

func TestEnrichInstagramBioFollowUp(t *testing.T) {
	site := `<html><body><a href="https://instagram.com/cafebio">follow us</a></body></html>`
	bio := `<html><body><meta content="Bookings: book@cafebio.com"></body></html>`

	e := New(Config{MaxProfileFetches: 1}, nil, events.Noop{})
	e.client.Transport = roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		body := site
		if req.URL.Hostname() == "instagram.com" {
			body = bio
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	})

	seed := leads.ListingSeed{Name: "Bio", Address: "Street 6", Website: "https://cafebio.com"}

	out := e.Enrich(context.Background(), []leads.ListingSeed{seed})

	res := out[seed.Identity()]
	require.Equal(t, "https://instagram.com/cafebio", res.Instagram)
	require.Equal(t, []string{"book@cafebio.com"}, res.Emails)
}

func TestEnrichCancelledContextAbandonsTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var requests atomic.Int64

	e := New(Config{}, nil, events.Noop{})
	e.client.Transport = roundTripperFunc(func(*http.Request) (*http.Response, error) {
		requests.Add(1)

		return nil, errors.New("unexpected network call")
	})

	seeds := []leads.ListingSeed{
		{Name: "A", Address: "1", Website: "https://a.com"},
		{Name: "B", Address: "2", Website: "https://b.com"},
	}

	out := e.Enrich(ctx, seeds)

	require.Len(t, out, 2)

	for _, seed := range seeds {
		require.True(t, out[seed.Identity()].IsEmpty())
	}

	require.Zero(t, requests.Load())
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
