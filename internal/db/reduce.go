package db

import (
	"strconv"
	"strings"

	"github.com/jonathan/job-scraper/internal/dataset"
	"github.com/jonathan/job-scraper/internal/types"
)

// Reduce splits the table into locations, companies and job requisitions.
// Rows without a job id produce no job_reqs row. Companies and locations are
// deduplicated, first occurrence first; later rows only fill missing fields.
func Reduce(table *dataset.Table) Mirror {
	r := reducer{
		locations: make(map[LocationKey]int),
		companies: make(map[string]int),
		jobs:      make(map[string]int),
	}
	for _, rec := range table.Records() {
		r.add(rec)
	}
	return r.m
}

type reducer struct {
	m         Mirror
	locations map[LocationKey]int
	companies map[string]int
	jobs      map[string]int
}

func (r *reducer) add(rec *types.PostingRecord) {
	jobLoc := r.location(types.Deref(rec.Location), rec.Country)

	var company *string
	if name := strings.TrimSpace(types.Deref(rec.CompanyName)); name != "" {
		company = &name
		hq, _ := rec.Headquarters()
		r.company(name, r.location(hq, rec.HQCountry), rec)
	}

	id := strings.TrimSpace(types.Deref(rec.JobID))
	if id == "" {
		return
	}
	job := JobReq{
		JobID:       id,
		Title:       rec.Title,
		Description: rec.Description,
		Company:     company,
		ScrapeDate:  rec.ScrapedAt,
		Location:    jobLoc,
	}
	if i, ok := r.jobs[id]; ok {
		r.m.Jobs[i] = job
		return
	}
	r.jobs[id] = len(r.m.Jobs)
	r.m.Jobs = append(r.m.Jobs, job)
}

// location registers raw under (country, city) where city is the first
// comma-separated segment of raw.
func (r *reducer) location(raw string, country *string) *LocationKey {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	key := LocationKey{City: strings.TrimSpace(strings.Split(raw, ",")[0]), Country: strings.TrimSpace(types.Deref(country))}
	if _, ok := r.locations[key]; !ok {
		r.locations[key] = len(r.m.Locations)
		r.m.Locations = append(r.m.Locations, Location{Key: key, Location: raw})
	}
	return &key
}

func (r *reducer) company(name string, hq *LocationKey, rec *types.PostingRecord) {
	c := Company{
		Name:     name,
		HQ:       hq,
		Size:     attr(rec, types.AttrSize),
		Founded:  founded(rec),
		Type:     attr(rec, types.AttrType),
		Industry: attr(rec, types.AttrIndustry),
		Sector:   attr(rec, types.AttrSector),
		Revenue:  attr(rec, types.AttrRevenue),
		Rating:   rec.Rating,
	}

	i, ok := r.companies[name]
	if !ok {
		r.companies[name] = len(r.m.Companies)
		r.m.Companies = append(r.m.Companies, c)
		return
	}
	prev := &r.m.Companies[i]
	prev.HQ = firstNonNil(prev.HQ, c.HQ)
	prev.Size = firstNonNil(prev.Size, c.Size)
	prev.Founded = firstNonNil(prev.Founded, c.Founded)
	prev.Type = firstNonNil(prev.Type, c.Type)
	prev.Industry = firstNonNil(prev.Industry, c.Industry)
	prev.Sector = firstNonNil(prev.Sector, c.Sector)
	prev.Revenue = firstNonNil(prev.Revenue, c.Revenue)
	prev.Rating = firstNonNil(prev.Rating, c.Rating)
}

func attr(rec *types.PostingRecord, key string) *string {
	v, ok := rec.Attributes.Get(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	v = strings.TrimSpace(v)
	return &v
}

// founded parses the Founded attribute; "Unknown" and other non-years are dropped.
func founded(rec *types.PostingRecord) *int {
	v := attr(rec, types.AttrFounded)
	if v == nil {
		return nil
	}
	year, err := strconv.Atoi(*v)
	if err != nil {
		return nil
	}
	return &year
}

func firstNonNil[T any](a, b *T) *T {
	if a != nil {
		return a
	}
	return b
}
