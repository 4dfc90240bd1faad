// Package features turns raw accessibility violation records into named
// numeric feature rows.
//
//	ex := features.Extract(rec)
//	ex.Row["snippet_len"] // 42
//	ex.Tag                // "img"
package features

import (
	"github.com/happyhackingspace/accessguru/internal/textutil"
)

// Source column names of the violations table.
const (
	ColHTML              = "affected_html_elements"
	ColSupplementary     = "supplementary_information"
	ColViolationName     = "violation_name"
	ColViolationCategory = "violation_category"
	ColWCAG              = "wcag_reference"
	ColDomain            = "domain_category"
	ColImpact            = "violation_impact"
	ColURL               = "web_URL"
	ColScore             = "violation_score"
)

// SourceColumns lists every column a record is read from.
var SourceColumns = []string{
	ColHTML, ColSupplementary, ColViolationName, ColViolationCategory,
	ColWCAG, ColDomain, ColImpact, ColURL, ColScore,
}

// ViolationRecord is one raw accessibility issue observation.
type ViolationRecord struct {
	HTML              string `json:"affected_html_elements"`
	SupplementaryInfo string `json:"supplementary_information"`
	ViolationName     string `json:"violation_name"`
	ViolationCategory string `json:"violation_category,omitempty"`
	WCAGReference     string `json:"wcag_reference"`
	DomainCategory    string `json:"domain_category"`
	ViolationImpact   string `json:"violation_impact"`
	URL               string `json:"web_URL"`
	Score             int    `json:"violation_score"`
}

// Cleaned returns a copy of r with its categorical fields trimmed and lowercased.
func (r ViolationRecord) Cleaned() ViolationRecord {
	r.ViolationName = textutil.Clean(r.ViolationName)
	r.ViolationCategory = textutil.Clean(r.ViolationCategory)
	r.DomainCategory = textutil.Clean(r.DomainCategory)
	r.ViolationImpact = textutil.Clean(r.ViolationImpact)
	return r
}

// Corpus is a table of violation records together with the set of source
// columns that were present in it.
type Corpus struct {
	Records []ViolationRecord
	Columns map[string]bool
}

// NewCorpus creates a corpus. With no columns given, every source column
// is considered present.
func NewCorpus(records []ViolationRecord, columns ...string) *Corpus {
	if len(columns) == 0 {
		columns = SourceColumns
	}
	c := &Corpus{Records: records, Columns: make(map[string]bool, len(columns))}
	for _, col := range columns {
		c.Columns[col] = true
	}
	return c
}

// HasColumn reports whether the named source column was present.
func (c *Corpus) HasColumn(name string) bool {
	return c.Columns[name]
}

// Len returns the number of records.
func (c *Corpus) Len() int {
	return len(c.Records)
}

// Scores returns the violation score of every record.
func (c *Corpus) Scores() []int {
	scores := make([]int, len(c.Records))
	for i, r := range c.Records {
		scores[i] = r.Score
	}
	return scores
}

var impactLevels = map[string]float64{
	"minor":    1,
	"moderate": 2,
	"serious":  3,
	"critical": 4,
}

// ImpactLevel maps a cleaned impact name to 1..4. Unknown impacts count as minor.
func ImpactLevel(impact string) float64 {
	if lvl, ok := impactLevels[impact]; ok {
		return lvl
	}
	return 1
}
