// Package extraction reads the fields of one job posting across its
// Overview, Company and Rating tabs.
package extraction

import "fmt"

// ExtractionError reports an infrastructure failure while extracting a posting.
// Missing optional data never produces one.
type ExtractionError struct {
	URL   string
	Stage string
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s stage: %v", e.URL, e.Stage, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
