// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/job-scraper/internal/dataset"
	"github.com/jonathan/job-scraper/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if r := []rune(line); len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// SearchCount is the number of links one search produced.
type SearchCount struct {
	Search types.SearchQuery
	Links  int
}

// PrintSearches outputs how many links each search produced.
func (p *Printer) PrintSearches(counts []SearchCount) {
	if len(counts) == 0 {
		return
	}

	var sb strings.Builder
	total := 0
	for _, c := range counts {
		total += c.Links
		pages := "no page cap"
		if c.Search.PageCap > 0 {
			pages = fmt.Sprintf("%d page(s)", c.Search.PageCap)
		}
		sb.WriteString(fmt.Sprintf("%-30s %4d  (%s)\n", c.Search.Label(), c.Links, pages))
	}
	sb.WriteString(fmt.Sprintf("\nTotal links: %d", total))

	p.printBox("LINK DISCOVERY", sb.String())
}

// CrawlSummary describes a finished crawl.
type CrawlSummary struct {
	Started  time.Time
	Ended    time.Time
	Table    *dataset.Table
	CSVPath  string
	Mirrored bool
}

// PrintCrawlSummary outputs row, column and resolution counts for a finished crawl.
func (p *Printer) PrintCrawlSummary(s CrawlSummary) {
	if s.Table == nil {
		return
	}

	var missingTitle, withRating, withCountry, withHQCountry int
	for _, rec := range s.Table.Records() {
		if rec.Title == nil {
			missingTitle++
		}
		if rec.Rating != nil {
			withRating++
		}
		if rec.Country != nil {
			withCountry++
		}
		if rec.HQCountry != nil {
			withHQCountry++
		}
	}

	rows := s.Table.Len()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rows:          %d\n", rows))
	sb.WriteString(fmt.Sprintf("Missing title: %d\n", missingTitle))
	sb.WriteString(fmt.Sprintf("Rated:         %d/%d\n", withRating, rows))
	sb.WriteString(fmt.Sprintf("Country:       %d/%d\n", withCountry, rows))
	sb.WriteString(fmt.Sprintf("HQ country:    %d/%d\n", withHQCountry, rows))

	dynamic := s.Table.DynamicColumns()
	sb.WriteString(fmt.Sprintf("Columns:       %d (%d company attributes)\n", len(s.Table.Columns()), len(dynamic)))
	count := min(len(dynamic), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", dynamic[i]))
	}
	if len(dynamic) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(dynamic)-maxItemsToShow))
	}

	if !s.Started.IsZero() && !s.Ended.IsZero() {
		sb.WriteString(fmt.Sprintf("Duration:      %s\n", s.Ended.Sub(s.Started).Round(time.Second)))
	}
	if s.CSVPath != "" {
		sb.WriteString(fmt.Sprintf("CSV:           %s\n", s.CSVPath))
	}
	if s.Mirrored {
		sb.WriteString("Mirrored to PostgreSQL\n")
	}

	p.printBox("CRAWL SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// Resolution is one location and the country it resolved to.
type Resolution struct {
	Location string
	Country  string
	OK       bool
}

// PrintResolutions outputs location -> country pairs.
func (p *Printer) PrintResolutions(rs []Resolution) {
	if len(rs) == 0 {
		return
	}

	var sb strings.Builder
	for _, r := range rs {
		country := "(not resolved)"
		if r.OK {
			country = r.Country
		}
		sb.WriteString(fmt.Sprintf("%s → %s\n", r.Location, country))
	}
	p.printBox("COUNTRY RESOLUTION", strings.TrimSuffix(sb.String(), "\n"))
}
