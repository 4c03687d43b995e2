// Package normalize turns one parsed NFS-e document tree into a canonical
// invoice, resolving each logical field through the dialect field map. It is
// a pure function of (tree, map): per-document failures never abort a batch,
// and a field the map cannot resolve is left null and flagged, never guessed.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fiscaltools/painel-nfse/internal/dialect"
	"github.com/fiscaltools/painel-nfse/internal/model"
	"github.com/fiscaltools/painel-nfse/internal/xmltree"
)

// Date layouts accepted across municipal emitters, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006-01",
}

// Bytes parses one XML byte stream and normalizes it. A document that cannot
// be parsed at all yields no invoice and exactly one error diagnostic.
func Bytes(data []byte, fm dialect.Map, sourceFile string) (*model.Invoice, []model.Diagnostic) {
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, []model.Diagnostic{{
			SourceFile: sourceFile,
			Severity:   model.SeverityError,
			Message:    err.Error(),
		}}
	}
	inv, diags := Tree(root, fm, sourceFile)
	return &inv, diags
}

// Tree normalizes an already-parsed document tree. It always produces an
// invoice; problems surface as warning diagnostics on the side.
func Tree(root *xmltree.Node, fm dialect.Map, sourceFile string) (model.Invoice, []model.Diagnostic) {
	n := &normalizer{root: root, fm: fm, sourceFile: sourceFile}

	inv := model.Invoice{SourceFile: sourceFile}
	inv.IssueDate = n.date(dialect.FieldIssueDate)
	inv.ServiceCode = n.text(dialect.FieldServiceCode)
	inv.IssuerDocument = n.document(dialect.FieldIssuerDocument)
	inv.PayerDocument = n.document(dialect.FieldPayerDocument)
	inv.IssuerName = n.text(dialect.FieldIssuerName)
	inv.PayerName = n.text(dialect.FieldPayerName)
	inv.GrossAmount = n.amount(dialect.FieldGrossAmount)
	inv.NetAmount = n.amount(dialect.FieldNetAmount)
	inv.TaxAmount = n.amount(dialect.FieldTaxAmount)
	inv.MunicipalityCode = n.text(dialect.FieldMunicipalityCode)

	return inv, n.diags
}

type normalizer struct {
	root       *xmltree.Node
	fm         dialect.Map
	sourceFile string
	diags      []model.Diagnostic
}

func (n *normalizer) warn(msg string, unresolved ...string) {
	n.diags = append(n.diags, model.Diagnostic{
		SourceFile:      n.sourceFile,
		Severity:        model.SeverityWarning,
		Message:         msg,
		UnresolvedPaths: unresolved,
	})
}

// resolve walks the candidate paths of one logical field; the first path
// present in the tree wins. A miss emits one warning listing every path the
// map tried.
func (n *normalizer) resolve(field dialect.Field) (string, dialect.Entry, bool) {
	entry, ok := n.fm[field]
	if !ok {
		n.warn(fmt.Sprintf("%s: field not present in dialect map", field))
		return "", entry, false
	}
	for _, path := range entry.Paths {
		if text, found := n.root.FindText(path); found {
			return text, entry, true
		}
	}
	n.warn(fmt.Sprintf("%s: no matching element path", field), entry.Paths...)
	return "", entry, false
}

// text applies the entry's declared normalizer to the resolved value: the
// digits normalizer strips punctuation, none passes the raw text through.
func (n *normalizer) text(field dialect.Field) string {
	raw, entry, ok := n.resolve(field)
	if !ok {
		return ""
	}
	if entry.Normalizer == dialect.NormalizeDigits {
		digits := Digits(raw)
		if digits == "" {
			n.warn(fmt.Sprintf("%s: value %q contains no digits", field, raw))
		}
		return digits
	}
	return raw
}

// date and amount fields admit exactly one normalizer (Map.Validate pins it),
// so the entry needs no further dispatch here.
func (n *normalizer) date(field dialect.Field) *time.Time {
	raw, _, ok := n.resolve(field)
	if !ok {
		return nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		n.warn(fmt.Sprintf("%s: %v", field, err))
		return nil
	}
	return &t
}

func (n *normalizer) document(field dialect.Field) string {
	digits := n.text(field)
	if digits == "" {
		return ""
	}
	if model.ClassifyDocument(digits) == model.DocumentUnknown {
		// Kept as-is: an odd digit count usually means a dialect quirk or
		// corrupted data, and silently dropping it would hide user-visible
		// information.
		n.warn(fmt.Sprintf("%s: %d digits, expected 11 (CPF) or 14 (CNPJ)", field, len(digits)))
	}
	return digits
}

func (n *normalizer) amount(field dialect.Field) *float64 {
	raw, _, ok := n.resolve(field)
	if !ok {
		return nil
	}
	v, err := ParseAmount(raw)
	if err != nil {
		n.warn(fmt.Sprintf("%s: %v", field, err))
		return nil
	}
	if v < 0 {
		n.warn(fmt.Sprintf("%s: negative amount %s", field, raw))
	}
	return &v
}

// Digits strips every non-digit rune from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseDate parses a date in any of the layouts observed across dialects.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}

// ParseAmount parses a decimal with either comma or dot as the decimal
// separator, tolerating thousands separators ("1.234,56", "1,234.56",
// "1234.56", "1234,56").
func ParseAmount(s string) (float64, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, fmt.Errorf("empty amount")
	}
	hasComma := strings.Contains(t, ",")
	hasDot := strings.Contains(t, ".")
	switch {
	case hasComma && hasDot:
		// The rightmost separator is the decimal one.
		if strings.LastIndex(t, ",") > strings.LastIndex(t, ".") {
			t = strings.ReplaceAll(t, ".", "")
			t = strings.Replace(t, ",", ".", 1)
		} else {
			t = strings.ReplaceAll(t, ",", "")
		}
	case hasComma:
		t = strings.Replace(t, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable amount %q", s)
	}
	return v, nil
}
