package extraction

// Selectors locate the fields of a posting page.
type Selectors struct {
	JobView     string // element whose id attribute carries the job id after "_"
	Title       string
	Company     string
	Location    string
	Description string
	PopupClose  string

	TabLink    string // tab controls; the Company and Rating tabs are picked by text
	CompanyTab string
	RatingTab  string
	FieldLabel string // Company tab labels, paired positionally with FieldValue
	FieldValue string
	Rating     string
}

// GlassdoorSelectors returns the selectors for Glassdoor posting pages.
func GlassdoorSelectors() Selectors {
	return Selectors{
		JobView:     "#JobView > div.jobViewNodeContainer",
		Title:       ".mt-0.mb-xsm.strong",
		Company:     ".strong.ib",
		Location:    ".subtle.ib",
		Description: ".desc.css-58vpdc.ecgq1xb3",
		PopupClose:  "#prefix__icon-close-1",

		TabLink:    "span.link",
		CompanyTab: "Company",
		RatingTab:  "Rating",
		FieldLabel: "label[for='InfoFields']",
		FieldValue: ".value",
		Rating:     ".mr-sm.css-16h0h8a.e1dyssh91",
	}
}
