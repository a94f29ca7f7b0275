package enrich

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mcnijman/go-emailaddress"

	"github.com/mapscout/mapscout/leads"
)

// Cap on emails kept per listing, to avoid drowning a record in the address
// lists some footer scripts embed.
const maxEmailsPerListing = 10

// extractEmails prefers explicit mailto: links and falls back to scanning
// the raw markup for email-pattern text.
func extractEmails(doc *goquery.Document, body []byte) []string {
	emails := mailtoEmails(doc)
	if len(emails) == 0 {
		emails = regexEmails(body)
	}

	return emails
}

func mailtoEmails(doc *goquery.Document) []string {
	seen := map[string]bool{}

	var emails []string

	doc.Find("a[href^='mailto:']").Each(func(_ int, s *goquery.Selection) {
		if len(emails) >= maxEmailsPerListing {
			return
		}

		href, ok := s.Attr("href")
		if !ok {
			return
		}

		value := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(value, '?'); i >= 0 {
			value = value[:i]
		}

		email, err := emailaddress.Parse(strings.TrimSpace(value))
		if err != nil {
			return
		}

		addr := email.String()
		if !seen[addr] && isLikelyRealEmail(addr) {
			emails = append(emails, addr)
			seen[addr] = true
		}
	})

	return emails
}

func regexEmails(body []byte) []string {
	seen := map[string]bool{}

	var emails []string

	for _, found := range emailaddress.Find(body, false) {
		if len(emails) >= maxEmailsPerListing {
			break
		}

		addr := found.String()
		if !seen[addr] && isLikelyRealEmail(addr) {
			emails = append(emails, addr)
			seen[addr] = true
		}
	}

	return emails
}

// isLikelyRealEmail filters the usual false positives: placeholder domains,
// no-reply senders, and asset filenames (icon@2x.png) that match the email
// pattern.
func isLikelyRealEmail(email string) bool {
	email = strings.ToLower(email)

	falsePositives := []string{
		"@example.",
		"@test.com",
		"@localhost",
		"@sentry.io",
		"@domain.com",
		"@yourdomain",
		"@placeholder",
		"noreply@",
		"no-reply@",
		"donotreply@",
		"mailer-daemon@",
		"@2x.",
		"@3x.",
		".png",
		".jpg",
		".jpeg",
		".gif",
		".svg",
		".webp",
	}

	for _, pattern := range falsePositives {
		if strings.Contains(email, pattern) {
			return false
		}
	}

	local, _, ok := strings.Cut(email, "@")
	if !ok {
		return false
	}

	// Very long or hex-only local parts are hashes, not mailboxes.
	if len(local) > 64 {
		return false
	}

	if len(local) > 8 && isHexString(local) {
		return false
	}

	return true
}

func isHexString(s string) bool {
	if s == "" {
		return false
	}

	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}

	return true
}

// extractSocials scans anchors for the social platforms in the export
// contract, keeping the first profile link per platform.
func extractSocials(res *leads.EnrichmentResult, doc *goquery.Document) {
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		classifySocialLink(res, s.AttrOr("href", ""))

		done := res.Instagram != "" && res.TikTok != "" && res.WhatsApp != "" &&
			res.Facebook != "" && res.LinkedIn != ""

		return !done
	})
}

func classifySocialLink(res *leads.EnrichmentResult, href string) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || u.Host == "" {
		return
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.ToLower(u.Path)

	// Share widgets point at the platform without naming a profile.
	if strings.Contains(path, "/share") || strings.Contains(path, "sharer") {
		return
	}

	switch host {
	case "instagram.com":
		setIfEmpty(&res.Instagram, profileURL(u, false))
	case "tiktok.com":
		setIfEmpty(&res.TikTok, profileURL(u, false))
	case "wa.me", "api.whatsapp.com":
		// The phone number rides in the path or query; keep both.
		setIfEmpty(&res.WhatsApp, profileURL(u, true))
	case "facebook.com", "m.facebook.com":
		setIfEmpty(&res.Facebook, profileURL(u, false))
	case "linkedin.com":
		setIfEmpty(&res.LinkedIn, profileURL(u, false))
	}
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}

func profileURL(u *url.URL, keepQuery bool) string {
	clean := url.URL{
		Scheme: "https",
		Host:   strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."),
		Path:   strings.TrimSuffix(u.Path, "/"),
	}

	if keepQuery {
		clean.RawQuery = u.RawQuery
	}

	if clean.Path == "" && clean.RawQuery == "" {
		return ""
	}

	return clean.String()
}
