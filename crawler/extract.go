package crawler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mapscout/mapscout/leads"
)

var (
	// placeCoordsRegex matches the !3d<lat>!4d<lng> data markers embedded in
	// place links.
	placeCoordsRegex = regexp.MustCompile(`!3d(-?\d+(?:\.\d+)?)!4d(-?\d+(?:\.\d+)?)`)
	// atCoordsRegex matches the /@<lat>,<lng>,<zoom> form used by the map
	// viewport URL.
	atCoordsRegex = regexp.MustCompile(`/@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)

	phoneRegex     = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)
	nonDigitsRegex = regexp.MustCompile(`[^\d]`)
	ratingRegex    = regexp.MustCompile(`(\d+[.,]\d+|\d+)`)
)

// HoursMarkers flag the opening-hours chunks of a listing's info lines so
// they are not classified as an address or phone. Exported and overridable
// for the same reason as the consent locale table: the rendered text is
// localized and new markets show up without a release.
var HoursMarkers = []string{
	"open",
	"close",
	"abre",
	"cierra",
	"obre",
	"tanca",
	"24 hours",
}

// panelItem is one rendered feed entry before it becomes a ListingSeed.
type panelItem struct {
	href        string
	name        string
	website     string
	phone       string
	category    string
	address     string
	rating      float64
	reviewCount int
	latitude    float64
	longitude   float64
}

func (it panelItem) toSeed(position int) leads.ListingSeed {
	return leads.ListingSeed{
		Name:           it.name,
		Address:        it.address,
		Phone:          it.phone,
		Website:        it.website,
		Category:       it.category,
		Rating:         it.rating,
		ReviewCount:    it.reviewCount,
		Latitude:       it.latitude,
		Longitude:      it.longitude,
		SourcePosition: position,
	}
}

// extractItems parses every place entry currently rendered in the results
// feed. Pure over the document so it is testable against fixture HTML.
func extractItems(doc *goquery.Document) []panelItem {
	var items []panelItem

	doc.Find(`div[role='feed'] a[href*="/maps/place/"]`).Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		if href == "" {
			return
		}

		item := panelItem{href: href}
		item.name = strings.TrimSpace(link.AttrOr("aria-label", ""))
		item.latitude, item.longitude = parseCoordinates(href)

		container := link.Closest("div[jsaction]")
		if container.Length() == 0 {
			container = link.Parent()
		}

		if item.name == "" {
			item.name = strings.TrimSpace(container.Find("div.qBF1Pd").First().Text())
		}

		if item.name == "" {
			return
		}

		item.rating = parseRating(container.Find("span.MW4etd").First().Text())
		item.reviewCount = parseReviewCount(container.Find("span.UY7F9").First().Text())

		if w := container.Find(`a[data-value="Website"]`).First(); w.Length() > 0 {
			item.website = w.AttrOr("href", "")
		}

		parseInfoLines(container, &item)

		items = append(items, item)
	})

	return items
}

// parseInfoLines classifies the "Category · Address" and "Hours · Phone"
// text rows under the listing title.
func parseInfoLines(container *goquery.Selection, item *panelItem) {
	container.Find("div.W4Efsd").Each(func(_ int, row *goquery.Selection) {
		// The feed mixes U+00B7 and U+22C5 as separators.
		text := strings.NewReplacer("⋅", "·").Replace(row.Text())

		for _, chunk := range strings.Split(text, "·") {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" || isHoursChunk(chunk) || strings.Contains(chunk, "★") {
				continue
			}

			switch {
			case looksLikePhone(chunk):
				if item.phone == "" {
					item.phone = chunk
				}
			case item.category == "" && !strings.ContainsAny(chunk, "0123456789"):
				item.category = chunk
			case item.address == "":
				item.address = chunk
			}
		}
	})
}

func isHoursChunk(chunk string) bool {
	lower := strings.ToLower(chunk)

	for _, m := range HoursMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}

	return false
}

func looksLikePhone(chunk string) bool {
	match := phoneRegex.FindString(chunk)
	if match == "" {
		return false
	}

	digits := nonDigitsRegex.ReplaceAllString(match, "")

	return len(digits) >= 7 && len(digits) <= 15
}

func parseRating(text string) float64 {
	match := ratingRegex.FindString(strings.TrimSpace(text))
	if match == "" {
		return 0
	}

	rating, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil {
		return 0
	}

	return rating
}

func parseReviewCount(text string) int {
	cleaned := strings.NewReplacer("(", "", ")", "", ",", "", ".", "", " ", "").Replace(strings.TrimSpace(text))
	if cleaned == "" {
		return 0
	}

	count, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}

	return count
}

// parseCoordinates pulls the listing coordinates out of its place link,
// preferring the per-place !3d/!4d markers over the shared viewport /@ pair.
func parseCoordinates(href string) (lat, lng float64) {
	if m := placeCoordsRegex.FindStringSubmatch(href); m != nil {
		lat, _ = strconv.ParseFloat(m[1], 64)
		lng, _ = strconv.ParseFloat(m[2], 64)

		return lat, lng
	}

	if m := atCoordsRegex.FindStringSubmatch(href); m != nil {
		lat, _ = strconv.ParseFloat(m[1], 64)
		lng, _ = strconv.ParseFloat(m[2], 64)

		return lat, lng
	}

	return 0, 0
}
