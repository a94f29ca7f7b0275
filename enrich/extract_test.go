package enrich

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/mapscout/mapscout/leads"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	return doc
}

func TestExtractEmailsPrefersMailto(t *testing.T) {
	html := `<html><body>
		<a href="mailto:info@cafeone.com?subject=hi">contact</a>
		<p>or write to other@cafeone.com</p>
	</body></html>`

	emails := extractEmails(docFrom(t, html), []byte(html))

	require.Equal(t, []string{"info@cafeone.com"}, emails)
}

func TestExtractEmailsRegexFallback(t *testing.T) {
	html := `<html><body><p>Reach us at hola@cafeone.com for bookings.</p></body></html>`

	emails := extractEmails(docFrom(t, html), []byte(html))

	require.Equal(t, []string{"hola@cafeone.com"}, emails)
}

func TestExtractEmailsDedupes(t *testing.T) {
	html := `<html><body>
		<a href="mailto:info@cafeone.com">one</a>
		<a href="mailto:info@cafeone.com?body=x">two</a>
	</body></html>`

	emails := extractEmails(docFrom(t, html), []byte(html))

	require.Len(t, emails, 1)
}

func TestIsLikelyRealEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"info@cafeone.com", true},
		{"bookings@bar-two.es", true},
		{"user@example.com", false},
		{"noreply@cafeone.com", false},
		{"no-reply@cafeone.com", false},
		{"icon@2x.png", false},
		{"hero@3x.webp", false},
		{"a1b2c3d4e5f6a1b2@cafeone.com", false},
		{"abc123@cafeone.com", true},
		{strings.Repeat("x", 65) + "@cafeone.com", false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, isLikelyRealEmail(tc.email), tc.email)
	}
}

func TestIsHexString(t *testing.T) {
	require.True(t, isHexString("deadbeef01"))
	require.False(t, isHexString("deadbeefZ"))
	require.False(t, isHexString("DEADBEEF"))
	require.False(t, isHexString(""))
}

func TestExtractSocials(t *testing.T) {
	html := `<html><body>
		<a href="https://www.instagram.com/cafeone/">ig</a>
		<a href="https://www.tiktok.com/@cafeone">tt</a>
		<a href="https://wa.me/34933123456">wa</a>
		<a href="https://www.facebook.com/sharer/sharer.php?u=x">share widget</a>
		<a href="https://m.facebook.com/cafeone">fb</a>
		<a href="https://www.linkedin.com/company/cafeone">li</a>
		<a href="https://www.instagram.com/other/">second ig, ignored</a>
	</body></html>`

	var res leads.EnrichmentResult

	extractSocials(&res, docFrom(t, html))

	require.Equal(t, "https://instagram.com/cafeone", res.Instagram)
	require.Equal(t, "https://tiktok.com/@cafeone", res.TikTok)
	require.Equal(t, "https://wa.me/34933123456", res.WhatsApp)
	require.Equal(t, "https://m.facebook.com/cafeone", res.Facebook)
	require.Equal(t, "https://linkedin.com/company/cafeone", res.LinkedIn)
}

func TestClassifySocialLinkSkipsShareAndBareHosts(t *testing.T) {
	var res leads.EnrichmentResult

	classifySocialLink(&res, "https://www.facebook.com/share/p/abc")
	classifySocialLink(&res, "https://instagram.com/")
	classifySocialLink(&res, "not a url")
	classifySocialLink(&res, "/relative/path")

	require.True(t, res.IsEmpty())
}

func TestClassifySocialLinkKeepsWhatsAppQuery(t *testing.T) {
	var res leads.EnrichmentResult

	classifySocialLink(&res, "https://api.whatsapp.com/send?phone=34933123456")

	require.Equal(t, "https://api.whatsapp.com/send?phone=34933123456", res.WhatsApp)
}

func TestProfileURLNormalization(t *testing.T) {
	u, err := url.Parse("HTTP://WWW.Instagram.com/CafeOne/")
	require.NoError(t, err)

	require.Equal(t, "https://instagram.com/CafeOne", profileURL(u, false))
}
