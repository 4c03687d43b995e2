// Package filter evaluates composable predicates against a record set. An
// evaluation is a single linear scan that never mutates the set, so repeated
// re-filtering while the user types stays proportional to record count.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/fiscaltools/painel-nfse/internal/common"
	"github.com/fiscaltools/painel-nfse/internal/model"
	"github.com/fiscaltools/painel-nfse/internal/normalize"
)

// Predicate is an immutable boolean test over one invoice. Predicates are
// built fresh from user input, validated at construction, and discarded after
// evaluation.
type Predicate interface {
	Matches(inv *model.Invoice) bool

	// Applicable reports whether the invoice carries a value for every field
	// the predicate inspects. A range or membership test over a null field is
	// inapplicable: the record matches neither the predicate nor its
	// negation, so missing data never sneaks back in through a NOT.
	Applicable(inv *model.Invoice) bool
}

// Evaluate scans the record set once, in order, and returns the matching
// invoices as a fresh slice. A nil predicate matches everything.
func Evaluate(rs *model.RecordSet, p Predicate) []model.Invoice {
	out := make([]model.Invoice, 0, len(rs.Invoices))
	for i := range rs.Invoices {
		if p == nil || p.Matches(&rs.Invoices[i]) {
			out = append(out, rs.Invoices[i])
		}
	}
	return out
}

// TextField names an invoice text column usable in substring predicates.
type TextField string

// Text columns.
const (
	TextIssuerName   TextField = "issuer_name"
	TextPayerName    TextField = "payer_name"
	TextServiceCode  TextField = "service_code"
	TextMunicipality TextField = "municipality"
)

func textValue(f TextField, inv *model.Invoice) (string, error) {
	switch f {
	case TextIssuerName:
		return inv.IssuerName, nil
	case TextPayerName:
		return inv.PayerName, nil
	case TextServiceCode:
		return inv.ServiceCode, nil
	case TextMunicipality:
		return inv.MunicipalityCode, nil
	default:
		return "", fmt.Errorf("%w: unknown text field %q", common.ErrInvalidPredicate, f)
	}
}

type textContains struct {
	field  TextField
	folded string
}

// TextContains matches invoices whose field contains the query, ignoring
// case and diacritics on both sides.
func TextContains(field TextField, query string) (Predicate, error) {
	if _, err := textValue(field, &model.Invoice{}); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty text query", common.ErrInvalidPredicate)
	}
	return textContains{field: field, folded: Fold(query)}, nil
}

func (p textContains) Matches(inv *model.Invoice) bool {
	v, _ := textValue(p.field, inv)
	return strings.Contains(Fold(v), p.folded)
}

func (p textContains) Applicable(*model.Invoice) bool { return true }

type anyText struct {
	folded string
	digits string
}

// AnyText matches when the query appears in any name, code or municipality
// column, or, when the query carries digits, in either party document.
// Punctuation typed into a document query is ignored.
func AnyText(query string) (Predicate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty text query", common.ErrInvalidPredicate)
	}
	return anyText{folded: Fold(query), digits: normalize.Digits(query)}, nil
}

func (p anyText) Matches(inv *model.Invoice) bool {
	for _, v := range []string{inv.IssuerName, inv.PayerName, inv.ServiceCode, inv.MunicipalityCode} {
		if strings.Contains(Fold(v), p.folded) {
			return true
		}
	}
	if p.digits != "" {
		if strings.Contains(inv.IssuerDocument, p.digits) || strings.Contains(inv.PayerDocument, p.digits) {
			return true
		}
	}
	return false
}

func (p anyText) Applicable(*model.Invoice) bool { return true }

type documentContains struct {
	digits string
}

// DocumentContains matches either party document by digits. The query may be
// partial and may carry CPF/CNPJ punctuation; it is compared against the
// stored digits-only values. Invoices that resolved neither party document
// never match, in either polarity.
func DocumentContains(query string) (Predicate, error) {
	digits := normalize.Digits(query)
	if digits == "" {
		return nil, fmt.Errorf("%w: document query %q contains no digits", common.ErrInvalidPredicate, query)
	}
	return documentContains{digits: digits}, nil
}

func (p documentContains) Matches(inv *model.Invoice) bool {
	return strings.Contains(inv.IssuerDocument, p.digits) ||
		strings.Contains(inv.PayerDocument, p.digits)
}

func (p documentContains) Applicable(inv *model.Invoice) bool {
	return inv.IssuerDocument != "" || inv.PayerDocument != ""
}

type dateBetween struct {
	from time.Time
	to   time.Time
}

// DateBetween matches invoices issued inside [from, to], both ends
// inclusive. Invoices without an issue date never match, in either polarity.
func DateBetween(from, to time.Time) (Predicate, error) {
	if from.After(to) {
		return nil, fmt.Errorf("%w: date range start %s after end %s",
			common.ErrInvalidPredicate, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return dateBetween{from: from, to: to}, nil
}

func (p dateBetween) Matches(inv *model.Invoice) bool {
	if inv.IssueDate == nil {
		return false
	}
	d := *inv.IssueDate
	return !d.Before(p.from) && !d.After(p.to)
}

func (p dateBetween) Applicable(inv *model.Invoice) bool { return inv.IssueDate != nil }

// AmountField names an invoice amount column usable in range predicates.
type AmountField string

// Amount columns.
const (
	AmountGross AmountField = "gross"
	AmountNet   AmountField = "net"
	AmountTax   AmountField = "tax"
)

func amountValue(f AmountField, inv *model.Invoice) (*float64, error) {
	switch f {
	case AmountGross:
		return inv.GrossAmount, nil
	case AmountNet:
		return inv.NetAmount, nil
	case AmountTax:
		return inv.TaxAmount, nil
	default:
		return nil, fmt.Errorf("%w: unknown amount field %q", common.ErrInvalidPredicate, f)
	}
}

type amountBetween struct {
	field AmountField
	min   float64
	max   float64
}

// AmountBetween matches invoices whose amount lies inside [min, max], both
// ends inclusive. Invoices without that amount never match, in either
// polarity.
func AmountBetween(field AmountField, min, max float64) (Predicate, error) {
	if _, err := amountValue(field, &model.Invoice{}); err != nil {
		return nil, err
	}
	if min > max {
		return nil, fmt.Errorf("%w: amount range min %.2f above max %.2f", common.ErrInvalidPredicate, min, max)
	}
	return amountBetween{field: field, min: min, max: max}, nil
}

func (p amountBetween) Matches(inv *model.Invoice) bool {
	v, _ := amountValue(p.field, inv)
	if v == nil {
		return false
	}
	return *v >= p.min && *v <= p.max
}

func (p amountBetween) Applicable(inv *model.Invoice) bool {
	v, _ := amountValue(p.field, inv)
	return v != nil
}

type membership struct {
	field  TextField
	values map[string]struct{}
}

// OneOf matches invoices whose field equals any of the given values, ignoring
// case and diacritics. Invoices whose field never resolved never match, in
// either polarity.
func OneOf(field TextField, values ...string) (Predicate, error) {
	if _, err := textValue(field, &model.Invoice{}); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: membership test needs at least one value", common.ErrInvalidPredicate)
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, fmt.Errorf("%w: empty membership value", common.ErrInvalidPredicate)
		}
		set[Fold(v)] = struct{}{}
	}
	return membership{field: field, values: set}, nil
}

func (p membership) Matches(inv *model.Invoice) bool {
	v, _ := textValue(p.field, inv)
	_, ok := p.values[Fold(v)]
	return ok
}

func (p membership) Applicable(inv *model.Invoice) bool {
	v, _ := textValue(p.field, inv)
	return v != ""
}

type and struct{ children []Predicate }

// And matches when every child matches; evaluation short-circuits.
func And(children ...Predicate) Predicate {
	return and{children: children}
}

func (p and) Matches(inv *model.Invoice) bool {
	for _, c := range p.children {
		if !c.Matches(inv) {
			return false
		}
	}
	return true
}

func (p and) Applicable(inv *model.Invoice) bool {
	for _, c := range p.children {
		if !c.Applicable(inv) {
			return false
		}
	}
	return true
}

type or struct{ children []Predicate }

// Or matches when any child matches; evaluation short-circuits.
func Or(children ...Predicate) Predicate {
	return or{children: children}
}

func (p or) Matches(inv *model.Invoice) bool {
	for _, c := range p.children {
		if c.Matches(inv) {
			return true
		}
	}
	return false
}

func (p or) Applicable(inv *model.Invoice) bool {
	for _, c := range p.children {
		if !c.Applicable(inv) {
			return false
		}
	}
	return true
}

type not struct{ child Predicate }

// Not inverts a predicate over the records it applies to. Records with a
// null field under the child predicate stay excluded from both polarities.
func Not(child Predicate) Predicate {
	return not{child: child}
}

func (p not) Matches(inv *model.Invoice) bool {
	return p.child.Applicable(inv) && !p.child.Matches(inv)
}

func (p not) Applicable(inv *model.Invoice) bool { return p.child.Applicable(inv) }
