package leads

import (
	"sort"
	"strconv"
	"strings"
)

// EnrichmentResult carries the contact deltas produced by exactly one
// enrichment task for one unique listing. A listing whose website could not
// be fetched (or that has no website) gets an empty result, never a hole.
type EnrichmentResult struct {
	Identity  Identity `json:"identity"`
	Emails    []string `json:"emails"`
	Instagram string   `json:"instagram"`
	TikTok    string   `json:"tiktok"`
	WhatsApp  string   `json:"whatsapp"`
	Facebook  string   `json:"facebook"`
	LinkedIn  string   `json:"linkedin"`
}

// EmptyEnrichment is the default result for listings without a website or
// whose enrichment failed.
func EmptyEnrichment(id Identity) EnrichmentResult {
	return EnrichmentResult{Identity: id}
}

func (r EnrichmentResult) IsEmpty() bool {
	return len(r.Emails) == 0 &&
		r.Instagram == "" && r.TikTok == "" && r.WhatsApp == "" &&
		r.Facebook == "" && r.LinkedIn == ""
}

// BusinessRecord is the final merge of one ListingSeed with its
// EnrichmentResult. Created once at aggregation, never mutated afterward.
type BusinessRecord struct {
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Phone          string   `json:"phone"`
	Website        string   `json:"website"`
	Emails         []string `json:"emails"`
	Instagram      string   `json:"instagram"`
	TikTok         string   `json:"tiktok"`
	WhatsApp       string   `json:"whatsapp"`
	Facebook       string   `json:"facebook"`
	LinkedIn       string   `json:"linkedin"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Rating         float64  `json:"rating"`
	ReviewCount    int      `json:"review_count"`
	SourcePosition int      `json:"source_position"`
}

func newBusinessRecord(seed ListingSeed, res EnrichmentResult) BusinessRecord {
	return BusinessRecord{
		Name:           seed.Name,
		Address:        seed.Address,
		Phone:          seed.Phone,
		Website:        seed.Website,
		Emails:         res.Emails,
		Instagram:      res.Instagram,
		TikTok:         res.TikTok,
		WhatsApp:       res.WhatsApp,
		Facebook:       res.Facebook,
		LinkedIn:       res.LinkedIn,
		Latitude:       seed.Latitude,
		Longitude:      seed.Longitude,
		Rating:         seed.Rating,
		ReviewCount:    seed.ReviewCount,
		SourcePosition: seed.SourcePosition,
	}
}

// Aggregate merges unique listings with their enrichment results into the
// final ordered record sequence. Pure: missing enrichment defaults to empty,
// output order is source_position order, exactly one record per seed.
func Aggregate(seeds []ListingSeed, enrichment map[Identity]EnrichmentResult) []BusinessRecord {
	ordered := make([]ListingSeed, len(seeds))
	copy(ordered, seeds)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SourcePosition < ordered[j].SourcePosition
	})

	records := make([]BusinessRecord, 0, len(ordered))

	for _, seed := range ordered {
		res, ok := enrichment[seed.Identity()]
		if !ok {
			res = EmptyEnrichment(seed.Identity())
		}

		records = append(records, newBusinessRecord(seed, res))
	}

	return records
}

func (r *BusinessRecord) CsvHeaders() []string {
	return []string{
		"name",
		"address",
		"phone",
		"website",
		"emails",
		"instagram",
		"tiktok",
		"whatsapp",
		"facebook",
		"linkedin",
		"latitude",
		"longitude",
		"rating",
		"review_count",
		"source_position",
	}
}

func (r *BusinessRecord) CsvRow() []string {
	return []string{
		r.Name,
		r.Address,
		r.Phone,
		r.Website,
		strings.Join(r.Emails, ", "),
		r.Instagram,
		r.TikTok,
		r.WhatsApp,
		r.Facebook,
		r.LinkedIn,
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		formatFloat(r.Rating),
		strconv.Itoa(r.ReviewCount),
		strconv.Itoa(r.SourcePosition),
	}
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
