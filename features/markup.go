package features

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/happyhackingspace/accessguru/internal/textutil"
)

var (
	tagRe       = regexp.MustCompile(`<([a-zA-Z0-9]+)`)
	altRe       = regexp.MustCompile(`alt=["'](.*?)["']`)
	filenameRe  = regexp.MustCompile(`(?i)\.(jpg|png|gif|jpeg|svg|webp)$`)
	redundantRe = regexp.MustCompile(`(image of|photo of|picture of|link to|click here|button|graphic of)`)
	contrastRe  = regexp.MustCompile(`contrastratio':\s*([0-9.]+)`)
	fontSizeRe  = regexp.MustCompile(`fontsize':\s*['"]([0-9.]+)`)
)

// genericAlts are alt texts that describe nothing.
var genericAlts = map[string]bool{
	"alt": true, "description": true, "label": true, "placeholder": true,
	"none": true, "image": true, "spacer": true, "icon": true, "dot": true,
}

// MarkupFeatures holds the pattern-based signals of one record.
type MarkupFeatures struct {
	Tag     string
	AltText string

	SnippetLen     int
	WordCount      int
	TagCount       int
	IsButtonOrLink bool
	HasID          bool
	HasClass       bool
	HasRole        bool
	HasTabindex    bool

	IsImgOrSVG         bool
	HasAltAttr         bool
	IsAltEmpty         bool
	AltWordCount       int
	AltIsGeneric       bool
	AltIsFilename      bool
	HasRedundantPrefix bool
	IsAriaHidden       bool
	HasAriaLabel       bool

	ContrastRatio float64 // NaN when absent
	FontSize      float64 // NaN when absent
	IsAriaRelated bool
	AriaDensity   int
	SuppInfoLen   int

	WCAGLevel int
}

// ExtractMarkup derives the pattern-based signals from the raw HTML
// fragment, supplementary information, violation name and WCAG reference
// of a record. It never fails; absent matches fall back to defaults.
func ExtractMarkup(html, supp, violationName, wcag string) MarkupFeatures {
	html = strings.ToLower(html)
	supp = strings.ToLower(supp)
	violationName = strings.ToLower(violationName)

	f := MarkupFeatures{
		Tag:           "unknown",
		ContrastRatio: math.NaN(),
		FontSize:      math.NaN(),
	}
	if m := tagRe.FindStringSubmatch(html); m != nil {
		f.Tag = m[1]
	}
	if m := altRe.FindStringSubmatch(html); m != nil {
		f.AltText = strings.TrimSpace(m[1])
	}

	f.SnippetLen = textutil.Len(html)
	f.WordCount = textutil.WordCount(html)
	f.TagCount = strings.Count(html, "<")
	f.IsButtonOrLink = strings.Contains(html, "<a") || strings.Contains(html, "<button")
	f.HasID = strings.Contains(html, "id=")
	f.HasClass = strings.Contains(html, "class=")
	f.HasRole = strings.Contains(html, "role=")
	f.HasTabindex = strings.Contains(html, "tabindex=")

	f.IsImgOrSVG = strings.Contains(html, "<img") || strings.Contains(html, "<svg")
	f.HasAltAttr = strings.Contains(html, "alt=")
	f.IsAltEmpty = f.AltText == "" && f.HasAltAttr
	f.AltWordCount = textutil.WordCount(f.AltText)
	f.AltIsGeneric = genericAlts[f.AltText]
	f.AltIsFilename = filenameRe.MatchString(f.AltText)
	f.HasRedundantPrefix = redundantRe.MatchString(html)
	f.IsAriaHidden = strings.Contains(html, `aria-hidden="true"`)
	f.HasAriaLabel = strings.Contains(html, "aria-label=")

	f.ContrastRatio = firstNumber(contrastRe, supp)
	f.FontSize = firstNumber(fontSizeRe, supp)
	f.IsAriaRelated = strings.Contains(violationName, "aria") || strings.Contains(supp, "aria")
	f.AriaDensity = strings.Count(supp, "aria-")
	f.SuppInfoLen = textutil.Len(supp)

	f.WCAGLevel = WCAGLevel(wcag)
	return f
}

// notApplicable are references that name no conformance level.
var notApplicable = map[string]bool{"": true, "N/A": true, "NA": true, "NONE": true}

// WCAGLevel returns 3 for AAA, 2 for AA, 1 for A and 0 otherwise. The
// longer tokens are checked first since the shorter ones are substrings.
func WCAGLevel(ref string) int {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	switch {
	case notApplicable[ref]:
		return 0
	case strings.Contains(ref, "AAA"):
		return 3
	case strings.Contains(ref, "AA"):
		return 2
	case strings.Contains(ref, "A"):
		return 1
	}
	return 0
}

func firstNumber(re *regexp.Regexp, s string) float64 {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// put writes the numeric signals into row.
func (f MarkupFeatures) put(row Row) {
	row["snippet_len"] = float64(f.SnippetLen)
	row["snippet_word_count"] = float64(f.WordCount)
	row["tag_count"] = float64(f.TagCount)
	row["word_count"] = float64(f.WordCount)
	row["is_button_or_link"] = flag(f.IsButtonOrLink)
	row["has_id"] = flag(f.HasID)
	row["has_class"] = flag(f.HasClass)
	row["has_role_attr"] = flag(f.HasRole)
	row["has_tabindex"] = flag(f.HasTabindex)

	row["is_img_or_svg"] = flag(f.IsImgOrSVG)
	row["has_alt_attr"] = flag(f.HasAltAttr)
	row["is_alt_empty"] = flag(f.IsAltEmpty)
	row["alt_word_count"] = float64(f.AltWordCount)
	row["alt_is_generic"] = flag(f.AltIsGeneric)
	row["alt_is_filename"] = flag(f.AltIsFilename)
	row["has_redundant_prefix"] = flag(f.HasRedundantPrefix)
	row["is_aria_hidden"] = flag(f.IsAriaHidden)
	row["has_aria_label"] = flag(f.HasAriaLabel)

	row["contrast_ratio"] = f.ContrastRatio
	row["font_size"] = f.FontSize
	row["is_aria_related"] = flag(f.IsAriaRelated)
	row["aria_density"] = float64(f.AriaDensity)
	row["supp_info_len"] = float64(f.SuppInfoLen)

	row["wcag_level"] = float64(f.WCAGLevel)
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
