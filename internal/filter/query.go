package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fiscaltools/painel-nfse/internal/common"
)

// Parse builds a predicate from a compact query string. Clauses are separated
// by whitespace and combined with AND; a clause prefixed with '!' is negated.
//
//	joao                     substring across all text and document columns
//	issuer=consultoria       substring on one text column
//	doc=123.456.789-09       partial or punctuated document match
//	date=2023-01-01..2023-01-31
//	gross=100..1500          inclusive amount range (also net=, tax=)
//	service=101,702          membership
//
// A malformed clause is rejected here, before any evaluation; it never
// degrades to match-nothing or match-everything.
func Parse(query string) (Predicate, error) {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return nil, nil
	}

	var children []Predicate
	for _, clause := range fields {
		negated := false
		if strings.HasPrefix(clause, "!") {
			negated = true
			clause = strings.TrimPrefix(clause, "!")
		}
		p, err := parseClause(clause)
		if err != nil {
			return nil, err
		}
		if negated {
			p = Not(p)
		}
		children = append(children, p)
	}

	if len(children) == 1 {
		return children[0], nil
	}
	return And(children...), nil
}

func parseClause(clause string) (Predicate, error) {
	key, value, found := strings.Cut(clause, "=")
	if !found {
		return AnyText(clause)
	}
	if value == "" {
		return nil, fmt.Errorf("%w: clause %q has no value", common.ErrInvalidPredicate, clause)
	}

	switch key {
	case "issuer":
		return TextContains(TextIssuerName, value)
	case "payer":
		return TextContains(TextPayerName, value)
	case "service":
		if strings.Contains(value, ",") {
			return OneOf(TextServiceCode, strings.Split(value, ",")...)
		}
		return TextContains(TextServiceCode, value)
	case "municipality":
		if strings.Contains(value, ",") {
			return OneOf(TextMunicipality, strings.Split(value, ",")...)
		}
		return TextContains(TextMunicipality, value)
	case "doc":
		return DocumentContains(value)
	case "date":
		return parseDateRange(value)
	case "gross":
		return parseAmountRange(AmountGross, value)
	case "net":
		return parseAmountRange(AmountNet, value)
	case "tax":
		return parseAmountRange(AmountTax, value)
	default:
		return nil, fmt.Errorf("%w: unknown clause %q", common.ErrInvalidPredicate, key)
	}
}

func parseDateRange(value string) (Predicate, error) {
	fromStr, toStr, found := strings.Cut(value, "..")
	if !found {
		// Single day: inclusive range covering that day.
		toStr = fromStr
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q (want YYYY-MM-DD)", common.ErrInvalidPredicate, fromStr)
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q (want YYYY-MM-DD)", common.ErrInvalidPredicate, toStr)
	}
	return DateBetween(from, to.Add(24*time.Hour-time.Nanosecond))
}

func parseAmountRange(field AmountField, value string) (Predicate, error) {
	minStr, maxStr, found := strings.Cut(value, "..")
	if !found {
		maxStr = minStr
	}
	min, err := strconv.ParseFloat(minStr, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad amount %q", common.ErrInvalidPredicate, minStr)
	}
	max, err := strconv.ParseFloat(maxStr, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad amount %q", common.ErrInvalidPredicate, maxStr)
	}
	return AmountBetween(field, min, max)
}
