package features

import (
	"math"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/happyhackingspace/accessguru/internal/textutil"
)

// URLFeatures holds the signals derived from a page URL.
type URLFeatures struct {
	Depth          float64 // NaN when the URL is missing
	Length         float64 // NaN when the URL is missing
	IsGov          bool
	IsEdu          bool
	IsOrg          bool
	SubdomainCount float64
	ICANNSuffix    bool
}

// ExtractURL derives path depth, length and domain membership signals.
// Depth is the slash count minus two, so "https://a.org/x" has depth 1.
// Depth and length are measured on raw as given; only a missing (empty)
// URL has unknown depth and length.
func ExtractURL(raw string) URLFeatures {
	if raw == "" {
		return URLFeatures{Depth: math.NaN(), Length: math.NaN()}
	}
	lower := strings.ToLower(raw)
	f := URLFeatures{
		Depth:  float64(strings.Count(raw, "/") - 2),
		Length: float64(textutil.Len(raw)),
		IsGov:  strings.Contains(lower, ".gov"),
		IsEdu:  strings.Contains(lower, ".edu"),
		IsOrg:  strings.Contains(lower, ".org"),
	}

	host := hostOf(strings.TrimSpace(lower))
	if host == "" {
		return f
	}
	if _, icann := publicsuffix.PublicSuffix(host); icann {
		f.ICANNSuffix = true
	}
	if site, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		f.SubdomainCount = float64(strings.Count(host, ".") - strings.Count(site, "."))
	}
	return f
}

func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "//") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u.Hostname(), ".")
}

func (f URLFeatures) put(row Row) {
	row["url_depth"] = f.Depth
	row["url_len"] = f.Length
	row["is_gov"] = flag(f.IsGov)
	row["is_edu"] = flag(f.IsEdu)
	row["is_org"] = flag(f.IsOrg)
	row["url_subdomain_count"] = f.SubdomainCount
	row["url_icann_suffix"] = flag(f.ICANNSuffix)
}
