package model

import "fmt"

// Severity grades how badly a source document deviated from what the
// normalizer could resolve.
type Severity int

// Diagnostic severities. A warning means optional or individual fields were
// unmapped or invalid; an error means the document produced no record at all.
const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic records one normalization problem for one source document.
// A document that fails outright contributes exactly one error diagnostic and
// no invoice; unmapped required fields are left null and flagged, never
// guessed.
type Diagnostic struct {
	SourceFile      string
	Message         string
	UnresolvedPaths []string
	Severity        Severity
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.SourceFile, d.Message)
}
