package types

import "time"

// Well-known company attribute keys observed on the Company tab.
const (
	AttrHeadquarters = "Headquarters"
	AttrSize         = "Size"
	AttrFounded      = "Founded"
	AttrType         = "Type"
	AttrIndustry     = "Industry"
	AttrSector       = "Sector"
	AttrRevenue      = "Revenue"
	AttrCompetitors  = "Competitors"
)

// PostingRecord holds everything scraped from one job posting.
// Optional fields are nil when they could not be extracted.
type PostingRecord struct {
	URL JobLink `json:"url"`

	// Overview tab
	JobID       *string `json:"job_id,omitempty"`
	Title       *string `json:"title,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`

	// Company tab
	Attributes Attributes `json:"-"`

	// Rating tab
	Rating *float64 `json:"rating,omitempty"`

	ScrapedAt time.Time `json:"scrape_timestamp"`

	// Filled in after extraction
	Country   *string `json:"country,omitempty"`
	HQCountry *string `json:"hq_country,omitempty"`
}

// NewPostingRecord returns an empty record for link.
func NewPostingRecord(link JobLink) *PostingRecord {
	return &PostingRecord{URL: link}
}

// Headquarters returns the Headquarters company attribute, if present.
func (r *PostingRecord) Headquarters() (string, bool) {
	return r.Attributes.Get(AttrHeadquarters)
}

// String returns a pointer to s, for optional fields.
func String(s string) *string {
	return &s
}

// Float returns a pointer to f, for optional fields.
func Float(f float64) *float64 {
	return &f
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
