package models

import "time"

// IssueSeverity classifies an integrity finding.
type IssueSeverity string

// IssueSeverity constants
const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue codes reported by integrity checks.
const (
	IssueSourceMissing   = "source_missing"   // Source file absent or unreadable
	IssueLoadFailed      = "load_failed"      // Reader could not parse the source
	IssueEmptySource     = "empty_source"     // Source exists but holds no data rows
	IssueDuplicateRecord = "duplicate_record" // Two records are field-for-field identical
	IssueRaggedFields    = "ragged_fields"    // Record field set differs from the first record
)

// IntegrityIssue is a single finding against one source.
type IntegrityIssue struct {
	Source   string        `json:"source"`
	Severity IssueSeverity `json:"severity"`
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Index    int           `json:"index,omitempty"` // Record index for record-level issues
}

// IntegrityReport aggregates findings across a set of sources. Only
// error-severity issues invalidate the report; warnings leave Valid true.
type IntegrityReport struct {
	Valid     bool             `json:"valid"`
	Sources   int              `json:"sources"`
	Records   int              `json:"records"`
	Issues    []IntegrityIssue `json:"issues"`
	CheckedAt time.Time        `json:"checked_at"`
}

// NewIntegrityReport creates a report that starts valid.
func NewIntegrityReport() *IntegrityReport {
	return &IntegrityReport{Valid: true, CheckedAt: time.Now()}
}

// Add appends an issue, flipping Valid on error severity.
func (r *IntegrityReport) Add(issue IntegrityIssue) {
	if issue.Severity == SeverityError {
		r.Valid = false
	}
	r.Issues = append(r.Issues, issue)
}

// ErrorCount returns the number of error-severity issues.
func (r *IntegrityReport) ErrorCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning-severity issues.
func (r *IntegrityReport) WarningCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			count++
		}
	}
	return count
}
