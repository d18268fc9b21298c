// Package dataset assembles extracted postings into an ordered table whose
// column set grows as new company attributes are observed.
package dataset

import (
	"slices"
	"strings"
	"time"

	"github.com/jonathan/job-scraper/internal/types"
)

// Fixed columns, in output order.
const (
	ColJobID       = "job_id"
	ColTitle       = "title"
	ColCompanyName = "company_name"
	ColLocation    = "location"
	ColDescription = "description"
	ColScrapedAt   = "scrape_timestamp"
)

// Derived columns, always last.
const (
	ColRating    = "rating"
	ColCountry   = "country"
	ColHQCountry = "hq_country"
)

// AttrColumnPrefix is put in front of a company attribute whose label equals
// a fixed or derived column name, e.g. "rating" -> "attr_rating".
const AttrColumnPrefix = "attr_"

// FixedColumns returns the leading columns of every table.
func FixedColumns() []string {
	return []string{ColJobID, ColTitle, ColCompanyName, ColLocation, ColDescription, ColScrapedAt}
}

// DerivedColumns returns the trailing columns of every table.
func DerivedColumns() []string {
	return []string{ColRating, ColCountry, ColHQCountry}
}

// Table is a sparse table: one record per row plus the union of company
// attribute keys, kept in first-seen order.
type Table struct {
	records []*types.PostingRecord
	dynamic []string
	seen    map[string]struct{}
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{seen: make(map[string]struct{})}
}

// Append adds rec as the next row and merges its attribute keys into the
// column set.
func (t *Table) Append(rec *types.PostingRecord) {
	t.records = append(t.records, rec)
	for _, k := range rec.Attributes.Keys() {
		col := attributeColumn(k)
		if _, ok := t.seen[col]; ok {
			continue
		}
		t.seen[col] = struct{}{}
		t.dynamic = append(t.dynamic, col)
	}
}

func isReserved(k string) bool {
	return slices.Contains(FixedColumns(), k) || slices.Contains(DerivedColumns(), k)
}

// attributeColumn names the column holding attribute k.
func attributeColumn(k string) string {
	if isReserved(k) {
		return AttrColumnPrefix + k
	}
	return k
}

// attributeKey inverts attributeColumn.
func attributeKey(col string) string {
	if k, ok := strings.CutPrefix(col, AttrColumnPrefix); ok && isReserved(k) {
		return k
	}
	return col
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.records)
}

// DynamicColumns returns the observed attribute keys in first-seen order.
func (t *Table) DynamicColumns() []string {
	return slices.Clone(t.dynamic)
}

// Columns returns fixed, dynamic and derived columns in output order.
func (t *Table) Columns() []string {
	cols := FixedColumns()
	cols = append(cols, t.dynamic...)
	return append(cols, DerivedColumns()...)
}

// Record returns the record at row i.
func (t *Table) Record(i int) *types.PostingRecord {
	return t.records[i]
}

// Records returns all rows in order.
func (t *Table) Records() []*types.PostingRecord {
	return slices.Clone(t.records)
}

// Cell returns the value at row i, column col. ok is false for absent cells.
func (t *Table) Cell(i int, col string) (string, bool) {
	rec := t.records[i]
	switch col {
	case ColJobID:
		return optional(rec.JobID)
	case ColTitle:
		return optional(rec.Title)
	case ColCompanyName:
		return optional(rec.CompanyName)
	case ColLocation:
		return optional(rec.Location)
	case ColDescription:
		return optional(rec.Description)
	case ColScrapedAt:
		if rec.ScrapedAt.IsZero() {
			return "", false
		}
		return rec.ScrapedAt.Format(time.RFC3339), true
	case ColRating:
		if rec.Rating == nil {
			return "", false
		}
		return formatRating(*rec.Rating), true
	case ColCountry:
		return optional(rec.Country)
	case ColHQCountry:
		return optional(rec.HQCountry)
	}
	return rec.Attributes.Get(attributeKey(col))
}

// Row returns row i as column -> value, omitting absent cells.
func (t *Table) Row(i int) map[string]string {
	row := make(map[string]string)
	for _, col := range t.Columns() {
		if v, ok := t.Cell(i, col); ok {
			row[col] = v
		}
	}
	return row
}

func optional(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}
