package provider

// Severity classifies a diagnostic.
type Severity string

const (
	// SeverityError marks a failure: the operation did not produce a result.
	SeverityError Severity = "error"

	// SeverityWarning marks a condition the caller should know about but
	// that did not prevent the operation from completing.
	SeverityWarning Severity = "warning"
)

// Diagnostic is a structured warning or error attached to an operation
// response. Diagnostics are the only failure channel for handler-domain
// problems; they never surface as transport faults.
type Diagnostic struct {
	// Severity is error or warning.
	Severity Severity `json:"severity"`

	// Summary is a short, single-line description.
	Summary string `json:"summary"`

	// Detail optionally elaborates on the summary.
	Detail string `json:"detail,omitempty"`

	// Path locates the attribute the diagnostic refers to, as an ordered
	// sequence of step names. Empty for resource-level diagnostics.
	Path []string `json:"path,omitempty"`
}

// ErrorDiagnostic builds an error-severity diagnostic.
func ErrorDiagnostic(summary, detail string) Diagnostic {
	return Diagnostic{Severity: SeverityError, Summary: summary, Detail: detail}
}

// WarningDiagnostic builds a warning-severity diagnostic.
func WarningDiagnostic(summary, detail string) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Summary: summary, Detail: detail}
}

// HasError reports whether any diagnostic in diags is an error.
func HasError(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
