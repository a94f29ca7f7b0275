// Package runner owns configuration and orchestration around the core
// pipeline: flag parsing, banner, telemetry wiring.
package runner

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/mapscout/mapscout/tlmt"
	"github.com/mapscout/mapscout/tlmt/gonoop"
	"github.com/mapscout/mapscout/tlmt/goposthog"
)

var ErrMissingQuery = errors.New("a search query must be provided")

type Runner interface {
	Run(ctx context.Context) error
	Close(ctx context.Context) error
}

type Config struct {
	Query             string
	TargetCount       int
	Concurrency       int
	Headless          bool
	Debug             bool
	GeoPreset         string
	GeoCoordinates    string
	LangCode          string
	ResultsFile       string
	JSON              bool
	StallThreshold    int
	RunTimeout        time.Duration
	FetchTimeout      time.Duration
	MaxProfileFetches int
}

func ParseConfig() *Config {
	_ = godotenv.Load()

	cfg := Config{}

	flag.StringVar(&cfg.Query, "query", "", "search query, e.g. 'cafes in Barcelona'")
	flag.IntVar(&cfg.TargetCount, "count", 0, "stop after this many unique listings (0 = crawl until the list stabilizes)")
	flag.IntVar(&cfg.Concurrency, "c", max(runtime.NumCPU()/2, 1), "enrichment concurrency [default: half of CPU cores]")
	flag.BoolVar(&cfg.Headless, "headless", true, "run the browser headless")
	flag.BoolVar(&cfg.Debug, "debug", false, "enable debug logging and a headful browser window")
	flag.StringVar(&cfg.GeoPreset, "geo-preset", "", "named geolocation preset (e.g. 'barcelona')")
	flag.StringVar(&cfg.GeoCoordinates, "geo", "", "geolocation to present, as 'lat,lng' (e.g. '41.3874,2.1686')")
	flag.StringVar(&cfg.LangCode, "lang", "en", "language code for the results page (e.g. 'de' for German)")
	flag.StringVar(&cfg.ResultsFile, "results", "stdout", "path to the results file [default: stdout]")
	flag.BoolVar(&cfg.JSON, "json", false, "produce JSON output instead of CSV")
	flag.IntVar(&cfg.StallThreshold, "stall", 3, "consecutive no-growth scroll cycles before the list counts as converged")
	flag.DurationVar(&cfg.RunTimeout, "timeout", 0, "overall run timeout (e.g. '10m'); partial results are still exported")
	flag.DurationVar(&cfg.FetchTimeout, "fetch-timeout", 20*time.Second, "per-website fetch timeout during enrichment")
	flag.IntVar(&cfg.MaxProfileFetches, "profile-fetches", 1, "extra social-profile fetches per listing (0 disables)")

	flag.Parse()

	if cfg.Query == "" {
		cfg.Query = os.Getenv("MAPSCOUT_QUERY")
	}

	if cfg.Concurrency < 1 {
		panic("concurrency must be greater than 0")
	}

	if cfg.StallThreshold < 1 {
		panic("stall threshold must be greater than 0")
	}

	if cfg.GeoPreset != "" && cfg.GeoCoordinates != "" {
		panic("use either -geo-preset or -geo, not both")
	}

	if cfg.Debug {
		cfg.Headless = false
	}

	return &cfg
}

var (
	telemetryOnce sync.Once
	telemetry     tlmt.Telemetry
)

// Telemetry returns the process-wide telemetry backend. Without an API key,
// or with DISABLE_TELEMETRY=1, it is a noop.
func Telemetry() tlmt.Telemetry {
	telemetryOnce.Do(func() {
		if os.Getenv("DISABLE_TELEMETRY") == "1" {
			telemetry = gonoop.New()

			return
		}

		apiKey := os.Getenv("POSTHOG_API_KEY")
		if apiKey == "" {
			telemetry = gonoop.New()

			return
		}

		endpoint := os.Getenv("POSTHOG_ENDPOINT")
		if endpoint == "" {
			endpoint = "https://eu.i.posthog.com"
		}

		val, err := goposthog.New(apiKey, endpoint)
		if err != nil || val == nil {
			telemetry = gonoop.New()

			return
		}

		telemetry = val
	})

	return telemetry
}

func wrapText(text string, width int) []string {
	var lines []string

	currentLine := ""
	currentWidth := 0

	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if currentWidth+rw > width {
			lines = append(lines, currentLine)
			currentLine = string(r)
			currentWidth = rw
		} else {
			currentLine += string(r)
			currentWidth += rw
		}
	}

	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}

func banner(messages []string, width int) string {
	if width <= 0 {
		var err error

		width, _, err = term.GetSize(0)
		if err != nil {
			width = 80
		}
	}

	if width < 20 {
		width = 20
	}

	contentWidth := width - 4

	var wrapped []string
	for _, message := range messages {
		wrapped = append(wrapped, wrapText(message, contentWidth)...)
	}

	var builder strings.Builder

	builder.WriteString("+" + strings.Repeat("-", width-2) + "+\n")

	for _, line := range wrapped {
		padding := contentWidth - runewidth.StringWidth(line)
		if padding < 0 {
			padding = 0
		}

		builder.WriteString(fmt.Sprintf("| %s%s |\n", line, strings.Repeat(" ", padding)))
	}

	builder.WriteString("+" + strings.Repeat("-", width-2) + "+\n")

	return builder.String()
}

func Banner() {
	messages := []string{
		"mapscout - business contact extraction from map search results",
	}

	fmt.Fprintln(os.Stderr, banner(messages, 0))
}
