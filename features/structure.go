package features

import (
	"github.com/happyhackingspace/accessguru/internal/htmlutil"
)

// StructuralFeatures holds element counts from a parsed markup tree.
type StructuralFeatures struct {
	Links            int
	Images           int
	Buttons          int
	Inputs           int
	Lists            int
	Headings         int
	Divs             int
	Spans            int
	HasForm          bool
	HasInlineStyle   bool
	HasScriptOrStyle bool
	MeanTextLen      float64
}

// ExtractStructure parses markup as an HTML fragment and counts its
// elements by tag name. Empty or malformed markup yields zero counts.
func ExtractStructure(markup string) StructuralFeatures {
	doc := htmlutil.LoadFragment(markup)
	return StructuralFeatures{
		Links:            htmlutil.CountTags(doc, "a"),
		Images:           htmlutil.CountTags(doc, "img", "svg"),
		Buttons:          htmlutil.CountTags(doc, "button"),
		Inputs:           htmlutil.CountTags(doc, "input"),
		Lists:            htmlutil.CountTags(doc, "ul", "ol", "li"),
		Headings:         htmlutil.CountTags(doc, "h1", "h2", "h3", "h4", "h5", "h6"),
		Divs:             htmlutil.CountTags(doc, "div"),
		Spans:            htmlutil.CountTags(doc, "span"),
		HasForm:          htmlutil.HasElement(doc, "form"),
		HasInlineStyle:   htmlutil.HasElement(doc, "[style]"),
		HasScriptOrStyle: htmlutil.HasElement(doc, "script, style"),
		MeanTextLen:      htmlutil.MeanTextLength(doc),
	}
}

func (f StructuralFeatures) put(row Row) {
	row["num_links"] = float64(f.Links)
	row["num_images"] = float64(f.Images)
	row["num_buttons"] = float64(f.Buttons)
	row["num_inputs"] = float64(f.Inputs)
	row["num_lists"] = float64(f.Lists)
	row["num_headings"] = float64(f.Headings)
	row["has_form"] = flag(f.HasForm)
	row["num_divs"] = float64(f.Divs)
	row["num_spans"] = float64(f.Spans)
	row["avg_text_len_per_tag"] = f.MeanTextLen
	row["has_inline_style"] = flag(f.HasInlineStyle)
	row["has_script_or_style"] = flag(f.HasScriptOrStyle)
}
