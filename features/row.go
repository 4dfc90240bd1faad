package features

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/happyhackingspace/accessguru/internal/vectorizer"
)

// Row maps feature names to values. Missing signals are NaN.
type Row map[string]float64

// Extracted is the feature row of one record together with the categorical
// values that still need encoding.
type Extracted struct {
	Row       Row
	Tag       string
	Violation string
	Domain    string
}

// Extract computes every catalogue feature of a record except the encoded
// ones. The record is cleaned first.
func Extract(rec ViolationRecord) Extracted {
	rec = rec.Cleaned()
	row := make(Row, len(catalog))

	markup := ExtractMarkup(rec.HTML, rec.SupplementaryInfo, rec.ViolationName, rec.WCAGReference)
	markup.put(row)
	ExtractStructure(rec.SupplementaryInfo).put(row)
	ExtractURL(rec.URL).put(row)

	lvl := ImpactLevel(rec.ViolationImpact)
	row["impact_numeric"] = lvl
	row["severity_score"] = lvl / 4

	return Extracted{
		Row:       row,
		Tag:       markup.Tag,
		Violation: rec.ViolationName,
		Domain:    rec.DomainCategory,
	}
}

// ExtractAll extracts every record, fanning out over at most workers
// goroutines. Output order matches input order.
func ExtractAll(ctx context.Context, records []ViolationRecord, workers int) ([]Extracted, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]Extracted, len(records))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Extract(records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("features: extract: %w", err)
	}
	return out, nil
}

// Encoders hold the fitted vocabularies of the categorical columns.
type Encoders struct {
	Violation vectorizer.Vocabulary
	Tag       vectorizer.Vocabulary
	Domain    vectorizer.Vocabulary
}

// FitEncoders learns the vocabularies from extracted rows.
func FitEncoders(rows []Extracted) Encoders {
	tags := make([]string, len(rows))
	violations := make([]string, len(rows))
	domains := make([]string, len(rows))
	for i, ex := range rows {
		tags[i] = ex.Tag
		violations[i] = ex.Violation
		domains[i] = ex.Domain
	}
	return Encoders{
		Violation: vectorizer.FitVocabulary(violations),
		Tag:       vectorizer.FitVocabulary(tags),
		Domain:    vectorizer.FitVocabulary(domains),
	}
}

// Encode fills the encoded columns of ex.Row.
func (e Encoders) Encode(ex Extracted, policy vectorizer.UnseenPolicy) error {
	tag, err := e.Tag.Lookup(ex.Tag, policy)
	if err != nil {
		return fmt.Errorf("features: tag: %w", err)
	}
	violation, err := e.Violation.Lookup(ex.Violation, policy)
	if err != nil {
		return fmt.Errorf("features: violation: %w", err)
	}
	domain, err := e.Domain.Lookup(ex.Domain, policy)
	if err != nil {
		return fmt.Errorf("features: domain: %w", err)
	}
	ex.Row[TagEnc] = float64(tag)
	ex.Row[ViolationIDEnc] = float64(violation)
	ex.Row[DomainEncoded] = float64(domain)
	return nil
}

// EncodeAll fills the encoded columns of every row.
func (e Encoders) EncodeAll(rows []Extracted, policy vectorizer.UnseenPolicy) error {
	tags := make([]string, len(rows))
	violations := make([]string, len(rows))
	domains := make([]string, len(rows))
	for i, ex := range rows {
		tags[i], violations[i], domains[i] = ex.Tag, ex.Violation, ex.Domain
	}
	tagIDs, err := e.Tag.Transform(tags, policy)
	if err != nil {
		return fmt.Errorf("features: tag: %w", err)
	}
	violationIDs, err := e.Violation.Transform(violations, policy)
	if err != nil {
		return fmt.Errorf("features: violation: %w", err)
	}
	domainIDs, err := e.Domain.Transform(domains, policy)
	if err != nil {
		return fmt.Errorf("features: domain: %w", err)
	}
	for i, ex := range rows {
		ex.Row[TagEnc] = float64(tagIDs[i])
		ex.Row[ViolationIDEnc] = float64(violationIDs[i])
		ex.Row[DomainEncoded] = float64(domainIDs[i])
	}
	return nil
}

// Maps returns the rows as plain maps, ready for a schema.
func Maps(rows []Extracted) []map[string]float64 {
	out := make([]map[string]float64, len(rows))
	for i, ex := range rows {
		out[i] = ex.Row
	}
	return out
}
