package features

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownFeature is returned when a feature name is not in the catalogue.
var ErrUnknownFeature = errors.New("unknown feature")

// Encoded feature names. Their values come from fitted vocabularies.
const (
	TagEnc         = "tag_enc"
	ViolationIDEnc = "violation_id_enc"
	DomainEncoded  = "domain_encoded"
)

type entry struct {
	name    string
	sources []string
}

var (
	srcHTML   = []string{ColHTML}
	srcSupp   = []string{ColSupplementary}
	srcURL    = []string{ColURL}
	srcImpact = []string{ColImpact}
)

var catalog = []entry{
	{TagEnc, srcHTML},
	{"snippet_len", srcHTML},
	{"snippet_word_count", srcHTML},
	{"word_count", srcHTML},
	{"tag_count", srcHTML},
	{"is_button_or_link", srcHTML},
	{"has_id", srcHTML},
	{"has_class", srcHTML},
	{"has_role_attr", srcHTML},
	{"has_tabindex", srcHTML},
	{"is_img_or_svg", srcHTML},
	{"has_alt_attr", srcHTML},
	{"is_alt_empty", srcHTML},
	{"alt_word_count", srcHTML},
	{"alt_is_generic", srcHTML},
	{"alt_is_filename", srcHTML},
	{"has_redundant_prefix", srcHTML},
	{"is_aria_hidden", srcHTML},
	{"has_aria_label", srcHTML},
	{"is_aria_related", []string{ColViolationName, ColSupplementary}},
	{"contrast_ratio", srcSupp},
	{"font_size", srcSupp},
	{"aria_density", srcSupp},
	{"supp_info_len", srcSupp},
	{"num_links", srcSupp},
	{"num_images", srcSupp},
	{"num_buttons", srcSupp},
	{"num_inputs", srcSupp},
	{"num_lists", srcSupp},
	{"num_headings", srcSupp},
	{"has_form", srcSupp},
	{"num_divs", srcSupp},
	{"num_spans", srcSupp},
	{"avg_text_len_per_tag", srcSupp},
	{"has_inline_style", srcSupp},
	{"has_script_or_style", srcSupp},
	{"wcag_level", []string{ColWCAG}},
	{"url_depth", srcURL},
	{"url_len", srcURL},
	{"is_gov", srcURL},
	{"is_edu", srcURL},
	{"is_org", srcURL},
	{"url_subdomain_count", srcURL},
	{"url_icann_suffix", srcURL},
	{"impact_numeric", srcImpact},
	{"severity_score", srcImpact},
	{ViolationIDEnc, []string{ColViolationName}},
	{DomainEncoded, []string{ColDomain}},
}

var catalogIndex = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, e := range catalog {
		m[e.name] = i
	}
	return m
}()

// DefaultFeatureNames is the candidate list used when none is configured.
var DefaultFeatureNames = []string{
	TagEnc, "snippet_len", "word_count", "tag_count", "is_button_or_link",
	"is_img_or_svg", "has_alt_attr", "has_aria_label", "has_role_attr",
	"is_aria_related", "contrast_ratio", "font_size", "num_links",
	"num_images", "num_buttons", "num_inputs", "num_lists", "num_headings",
	"has_form", "num_divs", "num_spans", "avg_text_len_per_tag",
	"has_inline_style", "has_script_or_style",
}

// Catalog returns every feature name a row can carry, in catalogue order.
func Catalog() []string {
	names := make([]string, len(catalog))
	for i, e := range catalog {
		names[i] = e.name
	}
	return names
}

// Sources returns the source columns a feature is derived from.
func Sources(name string) ([]string, error) {
	i, ok := catalogIndex[name]
	if !ok {
		return nil, fmt.Errorf("features: %w: %q", ErrUnknownFeature, name)
	}
	return slices.Clone(catalog[i].sources), nil
}

// Available filters candidates down to the features whose source columns
// are all present, keeping candidate order. A name that is not in the
// catalogue is an error.
func Available(candidates []string, hasColumn func(string) bool) ([]string, error) {
	var out []string
	for _, name := range candidates {
		sources, err := Sources(name)
		if err != nil {
			return nil, err
		}
		ok := true
		for _, col := range sources {
			if !hasColumn(col) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, name)
		}
	}
	return out, nil
}
