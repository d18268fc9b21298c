package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-scraper/internal/types"
)

type fakeExtractor struct {
	records map[types.JobLink]func() *types.PostingRecord
	errs    map[types.JobLink]error
	calls   []types.JobLink
	onCall  func(n int)
}

func (f *fakeExtractor) Extract(_ context.Context, link types.JobLink) (*types.PostingRecord, error) {
	f.calls = append(f.calls, link)
	if f.onCall != nil {
		f.onCall(len(f.calls))
	}
	var rec *types.PostingRecord
	if mk, ok := f.records[link]; ok {
		rec = mk()
	} else {
		rec = types.NewPostingRecord(link)
	}
	return rec, f.errs[link]
}

type mapResolver map[string]string

func (m mapResolver) Resolve(_ context.Context, location string) (string, bool) {
	c, ok := m[location]
	return c, ok
}

func record(link, title string, attrs ...string) func() *types.PostingRecord {
	return func() *types.PostingRecord {
		rec := types.NewPostingRecord(types.JobLink(link))
		rec.JobID = types.String(link[len(link)-1:])
		if title != "" {
			rec.Title = types.String(title)
		}
		for i := 0; i+1 < len(attrs); i += 2 {
			rec.Attributes.Set(attrs[i], attrs[i+1])
		}
		return rec
	}
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newBuilder(e Extractor, r Resolver) *Builder {
	logger, _ := test.NewNullLogger()
	return NewBuilder(e, r, logger, WithClock(func() time.Time { return fixedNow }))
}

func TestBuild_RowOrderMatchesInput(t *testing.T) {
	links := []types.JobLink{"https://x/3", "https://x/1", "https://x/2"}
	b := newBuilder(&fakeExtractor{}, nil)

	table, err := b.Build(context.Background(), links, 0)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	for i, link := range links {
		assert.Equal(t, link, table.Record(i).URL)
		assert.Equal(t, fixedNow, table.Record(i).ScrapedAt)
	}
}

func TestBuild_ColumnSetIsUnionOfAttributeKeys(t *testing.T) {
	e := &fakeExtractor{records: map[types.JobLink]func() *types.PostingRecord{
		"https://x/1": record("https://x/1", "A", "Size", "10", "Founded", "1999"),
		"https://x/2": record("https://x/2", "B", "Revenue", "$1M"),
		"https://x/3": record("https://x/3", "C", "Founded", "2001", "Sector", "IT"),
	}}
	b := newBuilder(e, nil)

	table, err := b.Build(context.Background(), []types.JobLink{"https://x/1", "https://x/2", "https://x/3"}, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"Size", "Founded", "Revenue", "Sector"}, table.DynamicColumns())
	assert.Equal(t, []string{
		"job_id", "title", "company_name", "location", "description", "scrape_timestamp",
		"Size", "Founded", "Revenue", "Sector",
		"rating", "country", "hq_country",
	}, table.Columns())

	_, ok := table.Cell(1, "Size")
	assert.False(t, ok)
	v, ok := table.Cell(2, "Founded")
	assert.True(t, ok)
	assert.Equal(t, "2001", v)
}

func TestBuild_RecordWithoutTitleKeepsItsRow(t *testing.T) {
	e := &fakeExtractor{records: map[types.JobLink]func() *types.PostingRecord{
		"https://x/1": record("https://x/1", "A"),
		"https://x/2": record("https://x/2", ""),
	}}
	b := newBuilder(e, nil)

	table, err := b.Build(context.Background(), []types.JobLink{"https://x/1", "https://x/2"}, 0)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	_, ok := table.Cell(1, ColTitle)
	assert.False(t, ok)
}

func TestBuild_EmptyInput(t *testing.T) {
	e := &fakeExtractor{}
	b := newBuilder(e, nil)

	table, err := b.Build(context.Background(), nil, 0)
	assert.ErrorIs(t, err, ErrNoLinks)
	require.NotNil(t, table)
	assert.Zero(t, table.Len())
	assert.Empty(t, e.calls)
}

func TestBuild_Limit(t *testing.T) {
	e := &fakeExtractor{}
	b := newBuilder(e, nil)

	table, err := b.Build(context.Background(), []types.JobLink{"https://x/1", "https://x/2", "https://x/3"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []types.JobLink{"https://x/1", "https://x/2"}, e.calls)
}

func TestBuild_PartialRecordIsKept(t *testing.T) {
	e := &fakeExtractor{
		records: map[types.JobLink]func() *types.PostingRecord{"https://x/1": record("https://x/1", "A")},
		errs:    map[types.JobLink]error{"https://x/1": errors.New("rating stage: tab crashed")},
	}
	logger, hook := test.NewNullLogger()
	b := NewBuilder(e, nil, logger)

	table, err := b.Build(context.Background(), []types.JobLink{"https://x/1", "https://x/2"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "A", types.Deref(table.Record(0).Title))

	var errored int
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Posting extracted partially" {
			errored++
		}
	}
	assert.Equal(t, 1, errored)
}

func TestBuild_CancellationReturnsRowsSoFar(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := &fakeExtractor{onCall: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	b := newBuilder(e, nil)

	table, err := b.Build(ctx, []types.JobLink{"https://x/1", "https://x/2", "https://x/3"}, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, table.Len())
	assert.Len(t, e.calls, 2)
}

func TestBuild_ResolvesLocationAndHeadquarters(t *testing.T) {
	e := &fakeExtractor{records: map[types.JobLink]func() *types.PostingRecord{
		"https://x/1": func() *types.PostingRecord {
			rec := types.NewPostingRecord("https://x/1")
			rec.Location = types.String("Tel Aviv")
			rec.Attributes.Set(types.AttrHeadquarters, "San Francisco, CA")
			return rec
		},
		"https://x/2": func() *types.PostingRecord {
			rec := types.NewPostingRecord("https://x/2")
			rec.Location = types.String("Nowhere")
			return rec
		},
	}}
	b := newBuilder(e, mapResolver{"Tel Aviv": "Israel", "San Francisco, CA": "United States"})

	table, err := b.Build(context.Background(), []types.JobLink{"https://x/1", "https://x/2"}, 0)
	require.NoError(t, err)

	assert.Equal(t, "Israel", types.Deref(table.Record(0).Country))
	assert.Equal(t, "United States", types.Deref(table.Record(0).HQCountry))
	assert.Nil(t, table.Record(1).Country)
	assert.Nil(t, table.Record(1).HQCountry)
}

func TestWriteCSV(t *testing.T) {
	e := &fakeExtractor{records: map[types.JobLink]func() *types.PostingRecord{
		"https://x/1": func() *types.PostingRecord {
			rec := record("https://x/1", "Engineer, Backend", "Size", "51 to 200")()
			rec.Rating = types.Float(4.5)
			return rec
		},
		"https://x/2": record("https://x/2", ""),
	}}
	b := newBuilder(e, nil)
	table, err := b.Build(context.Background(), []types.JobLink{"https://x/1", "https://x/2"}, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	lines, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, table.Columns(), lines[0])
	assert.Equal(t, []string{"1", "Engineer, Backend", "", "", "", "2024-03-01T12:00:00Z", "51 to 200", "4.5", "", ""}, lines[1])
	assert.Equal(t, []string{"2", "", "", "", "", "2024-03-01T12:00:00Z", "", "", "", ""}, lines[2])
}

func TestSaveCSV(t *testing.T) {
	table := NewTable()
	rec := types.NewPostingRecord("https://x/1")
	rec.JobID = types.String("1")
	table.Append(rec)

	dir := t.TempDir()
	path, err := table.SaveCSV(dir+"/out", FileName(fixedNow))
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Contains(t, path, "glassdoor_jobs_2024-03-01_12-00-00.csv")
}

func TestTable_ReservedAttributeKeysGetPrefixedColumns(t *testing.T) {
	table := NewTable()
	rec := types.NewPostingRecord("https://x/1")
	rec.Rating = types.Float(4.5)
	rec.Attributes.Set("rating", "5")
	rec.Attributes.Set("Size", "10")
	rec.Attributes.Set("location", "Paris")
	table.Append(rec)

	assert.Equal(t, []string{"attr_rating", "Size", "attr_location"}, table.DynamicColumns())
	assert.Equal(t, map[string]string{
		"rating":        "4.5",
		"attr_rating":   "5",
		"Size":          "10",
		"attr_location": "Paris",
	}, table.Row(0))
}
