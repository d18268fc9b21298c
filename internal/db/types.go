package db

import "time"

// LocationKey identifies a locations row.
type LocationKey struct {
	Country string
	City    string
}

// Location is a locations row. Coordinates, region, population and capital
// are not scraped and stay NULL.
type Location struct {
	Key        LocationKey
	Location   string
	Longitude  *float64
	Latitude   *float64
	Region     *string
	Population *int64
	Capital    *string
}

// Company is a companies row.
type Company struct {
	Name     string
	HQ       *LocationKey
	Size     *string
	Founded  *int
	Type     *string
	Industry *string
	Sector   *string
	Revenue  *string
	Rating   *float64
}

// JobReq is a job_reqs row.
type JobReq struct {
	JobID       string
	Title       *string
	Description *string
	Company     *string
	ScrapeDate  time.Time
	Location    *LocationKey
}

// Mirror is a dataset reduced to the three relational tables.
type Mirror struct {
	Locations []Location
	Companies []Company
	Jobs      []JobReq
}

// SaveStats reports how many rows SaveMirror wrote per table.
type SaveStats struct {
	Locations int
	Companies int
	Jobs      int
}
