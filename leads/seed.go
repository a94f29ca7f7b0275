package leads

import (
	"regexp"
	"strings"

	olc "github.com/google/open-location-code/go"
)

// ListingSeed holds the base fields extracted from one rendered results-panel
// item. It is immutable once captured: enrichment and aggregation never write
// back into it.
type ListingSeed struct {
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	Phone          string  `json:"phone"`
	Website        string  `json:"website"`
	Category       string  `json:"category"`
	Rating         float64 `json:"rating"`
	ReviewCount    int     `json:"review_count"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	SourcePosition int     `json:"source_position"`
}

// Identity is the derived key under which repeated exposures of the same
// listing collapse to one logical entity.
type Identity string

// plusCodeLen is the open location code length used when the address is
// missing and the identity falls back to coordinates. 11 digits resolves to
// roughly a 3x3 meter cell, well below the distance between two businesses.
const plusCodeLen = 11

var identityJunk = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Identity derives the dedup key: normalized name + normalized address, or
// the coordinates' plus code when the address is absent. With neither address
// nor coordinates the name alone has to do.
func (s ListingSeed) Identity() Identity {
	name := normalizeKey(s.Name)

	if addr := normalizeKey(s.Address); addr != "" {
		return Identity(name + "|" + addr)
	}

	if s.HasCoordinates() {
		return Identity(name + "|" + olc.Encode(s.Latitude, s.Longitude, plusCodeLen))
	}

	return Identity(name)
}

func (s ListingSeed) HasCoordinates() bool {
	return s.Latitude != 0 || s.Longitude != 0
}

// IsWebsiteEnrichable reports whether the listing's website is worth a
// contact fetch. Links into the big social platforms are already covered by
// the social-handle extraction and tend to be login-walled.
func (s ListingSeed) IsWebsiteEnrichable() bool {
	if s.Website == "" {
		return false
	}

	needles := []string{
		"facebook.",
		"instagram.",
		"twitter.",
	}

	for i := range needles {
		if strings.Contains(s.Website, needles[i]) {
			return false
		}
	}

	return true
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = identityJunk.ReplaceAllString(s, " ")

	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
