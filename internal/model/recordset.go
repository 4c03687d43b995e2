package model

// RecordSet holds the outcome of one ingest run: invoices in source-discovery
// order plus the diagnostics collected along the way. A set is built wholesale
// by an ingest and is read-only afterwards; the filter engine only ever scans
// it, never mutates it.
type RecordSet struct {
	Invoices    []Invoice
	Diagnostics []Diagnostic
}

// DiagnosticsFor returns the diagnostics attached to one source document.
func (rs *RecordSet) DiagnosticsFor(sourceFile string) []Diagnostic {
	var out []Diagnostic
	for _, d := range rs.Diagnostics {
		if d.SourceFile == sourceFile {
			out = append(out, d)
		}
	}
	return out
}

// ErrorCount returns the number of error-severity diagnostics.
func (rs *RecordSet) ErrorCount() int {
	n := 0
	for _, d := range rs.Diagnostics {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-severity diagnostics.
func (rs *RecordSet) WarningCount() int {
	n := 0
	for _, d := range rs.Diagnostics {
		if d.Severity == SeverityWarning {
			n++
		}
	}
	return n
}
