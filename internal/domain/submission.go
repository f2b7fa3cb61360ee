package domain

// Default values attached to every submission.
const (
	DefaultCohort = 2025
	DefaultStatus = "active"
)

// Submission is the payload sent to the profile API on create or update.
type Submission struct {
	Profile
	Batch  int    `json:"batch"`
	Status string `json:"status"`
}

// NewSubmission attaches the cohort and status tags to an edited profile.
func NewSubmission(p Profile, cohort int, status string) Submission {
	return Submission{Profile: p, Batch: cohort, Status: status}
}
