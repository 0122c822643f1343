package schemas

import (
	"strings"
	"time"
)

// JobInfo is the minimal job posting summary extracted from the page.
// A plausible Title is required before the pipeline treats a page as a
// job posting at all.
type JobInfo struct {
	Title    string `json:"title"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
	URL      string `json:"url,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// boilerplateTitles are headings that mean the page is not a job
// posting at all: confirmation screens, auth walls, error pages.
var boilerplateTitles = []string{
	"thank you", "thanks for", "confirmation", "application received",
	"application submitted", "page not found", "sign in", "log in",
	"access denied",
}

// Plausible reports whether the extracted title looks like a real job
// title rather than boilerplate or an extraction artifact.
func (j JobInfo) Plausible() bool {
	n := len(j.Title)
	if n < 3 || n > 200 {
		return false
	}
	lower := strings.ToLower(j.Title)
	for _, b := range boilerplateTitles {
		if strings.Contains(lower, b) {
			return false
		}
	}
	return true
}

// ApplicationEvent is the terminal artifact of a page session: created at
// most once by the submission detector and transmitted exactly once to
// the tracking collaborator.
type ApplicationEvent struct {
	ID          string    `json:"id"`
	JobTitle    string    `json:"jobTitle"`
	Company     string    `json:"company,omitempty"`
	Location    string    `json:"location,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	URL         string    `json:"url,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// MatchAnalysis is the opaque job-match scoring result returned by the
// backend; the model itself is an external collaborator.
type MatchAnalysis struct {
	MatchScore        int      `json:"matchScore"`
	DetectedSeniority string   `json:"detectedSeniority,omitempty"`
	WorkMode          string   `json:"workMode,omitempty"`
	MatchingSkills    []string `json:"matchingSkills,omitempty"`
	MissingSkills     []string `json:"missingSkills,omitempty"`
}

// CoverLetterResult wraps the generated cover letter text.
type CoverLetterResult struct {
	CoverLetter string `json:"coverLetter"`
}

// ResumeBlob is the active resume binary fetched from the resume
// provider, handed to file-upload fields.
type ResumeBlob struct {
	FileName string `json:"fileName"`
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"-"`
}

// FeatureFlags are the two persisted booleans read at pipeline start.
type FeatureFlags struct {
	SmartFill  bool `json:"smartFill"`
	AutoSubmit bool `json:"autoSubmit"`
}
