package models

// Severity of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityOff     Severity = "off"
)

// Finding is a single content hygiene problem.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
}

// Report is the outcome of linting a set of posts.
type Report struct {
	Posts    int       `json:"posts"`
	Errors   int       `json:"errors"`
	Warnings int       `json:"warnings"`
	Findings []Finding `json:"findings"`
}

// Failed reports whether the report should fail a run.
func (r Report) Failed(strict bool) bool {
	if r.Errors > 0 {
		return true
	}
	return strict && r.Warnings > 0
}
