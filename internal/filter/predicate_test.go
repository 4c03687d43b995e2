package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscaltools/painel-nfse/internal/common"
	"github.com/fiscaltools/painel-nfse/internal/model"
)

func date(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func amount(v float64) *float64 { return &v }

func testRecordSet() *model.RecordSet {
	return &model.RecordSet{
		Invoices: []model.Invoice{
			{
				IssueDate:      date(2023, 1, 10),
				IssuerName:     "Consultoria São João Ltda",
				PayerName:      "ACME Indústria",
				IssuerDocument: "11222333000181",
				PayerDocument:  "12345678909",
				ServiceCode:    "101",
				GrossAmount:    amount(1500),
				SourceFile:     "a.xml",
			},
			{
				IssueDate:      date(2023, 2, 20),
				IssuerName:     "Oficina Três Irmãos",
				PayerName:      "José Araújo",
				IssuerDocument: "99888777000166",
				ServiceCode:    "702",
				GrossAmount:    amount(80),
				SourceFile:     "b.xml",
			},
			{
				// Null issue date and null amounts.
				IssuerName:    "Transportes Sem Data",
				PayerName:     "ACME Indústria",
				PayerDocument: "12345678909",
				ServiceCode:   "101",
				SourceFile:    "c.xml",
			},
		},
	}
}

func sourceFiles(invoices []model.Invoice) []string {
	out := make([]string, len(invoices))
	for i, inv := range invoices {
		out[i] = inv.SourceFile
	}
	return out
}

func TestEvaluate_Deterministic(t *testing.T) {
	rs := testRecordSet()
	p, err := AnyText("acme")
	require.NoError(t, err)

	first := Evaluate(rs, p)
	second := Evaluate(rs, p)

	assert.Equal(t, first, second, "same set, same predicate must yield identical results")
	assert.Equal(t, []string{"a.xml", "c.xml"}, sourceFiles(first), "order must follow the record set")
}

func TestEvaluate_DoesNotMutateRecordSet(t *testing.T) {
	rs := testRecordSet()
	before := make([]model.Invoice, len(rs.Invoices))
	copy(before, rs.Invoices)

	p, err := AnyText("acme")
	require.NoError(t, err)
	_ = Evaluate(rs, p)

	assert.Equal(t, before, rs.Invoices)
}

func TestEvaluate_NilPredicateMatchesAll(t *testing.T) {
	rs := testRecordSet()
	assert.Len(t, Evaluate(rs, nil), 3)
}

func TestTextContains_FoldsCaseAndDiacritics(t *testing.T) {
	rs := testRecordSet()

	tests := []struct {
		query string
		field TextField
		want  []string
	}{
		{query: "sao joao", field: TextIssuerName, want: []string{"a.xml"}},
		{query: "SÃO JOÃO", field: TextIssuerName, want: []string{"a.xml"}},
		{query: "tres irmaos", field: TextIssuerName, want: []string{"b.xml"}},
		{query: "jose araujo", field: TextPayerName, want: []string{"b.xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p, err := TextContains(tt.field, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sourceFiles(Evaluate(rs, p)))
		})
	}
}

func TestDocumentContains_AcceptsPunctuatedPartialInput(t *testing.T) {
	rs := testRecordSet()

	tests := []struct {
		query string
		want  []string
	}{
		{query: "123.456.789-09", want: []string{"a.xml", "c.xml"}},
		{query: "123.456", want: []string{"a.xml", "c.xml"}},
		{query: "99.888", want: []string{"b.xml"}},
		{query: "00000", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p, err := DocumentContains(tt.query)
			require.NoError(t, err)
			got := Evaluate(rs, p)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, sourceFiles(got))
		})
	}
}

func TestDocumentContains_RequiresDigits(t *testing.T) {
	_, err := DocumentContains("abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidPredicate)
}

func TestDateBetween_InclusiveBoundsAndNullExclusion(t *testing.T) {
	rs := testRecordSet()

	p, err := DateBetween(
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	// c.xml has a null issue date: excluded regardless of other fields.
	assert.Equal(t, []string{"a.xml"}, sourceFiles(Evaluate(rs, p)))

	// Bounds are inclusive on both ends.
	edge, err := DateBetween(
		time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.xml"}, sourceFiles(Evaluate(rs, edge)))
}

func TestDateBetween_RejectsInvertedRange(t *testing.T) {
	_, err := DateBetween(
		time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	assert.ErrorIs(t, err, common.ErrInvalidPredicate)
}

func TestAmountBetween_InclusiveBoundsAndNullExclusion(t *testing.T) {
	rs := testRecordSet()

	p, err := AmountBetween(AmountGross, 80, 1500)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.xml", "b.xml"}, sourceFiles(Evaluate(rs, p)))

	_, err = AmountBetween(AmountGross, 100, 1)
	assert.ErrorIs(t, err, common.ErrInvalidPredicate)

	_, err = AmountBetween(AmountField("weird"), 0, 1)
	assert.ErrorIs(t, err, common.ErrInvalidPredicate)
}

func TestNot_NullFieldsStayExcludedFromBothPolarities(t *testing.T) {
	rs := testRecordSet()

	p, err := DateBetween(
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	matched := sourceFiles(Evaluate(rs, p))
	negated := sourceFiles(Evaluate(rs, Not(p)))

	assert.Equal(t, []string{"a.xml"}, matched)
	assert.Equal(t, []string{"b.xml"}, negated, "null-date record must not reappear under NOT")
}

func TestNot_MembershipOverUnresolvedFieldStaysExcluded(t *testing.T) {
	rs := &model.RecordSet{
		Invoices: []model.Invoice{
			{ServiceCode: "101", SourceFile: "com-servico.xml"},
			{ServiceCode: "", SourceFile: "sem-servico.xml"},
		},
	}

	p, err := OneOf(TextServiceCode, "101")
	require.NoError(t, err)

	assert.Equal(t, []string{"com-servico.xml"}, sourceFiles(Evaluate(rs, p)))
	assert.Empty(t, Evaluate(rs, Not(p)),
		"a record whose field never resolved must not reappear under NOT")
}

func TestNot_DocumentQueryOverUndocumentedRecordStaysExcluded(t *testing.T) {
	rs := &model.RecordSet{
		Invoices: []model.Invoice{
			{IssuerDocument: "11222333000181", SourceFile: "com-doc.xml"},
			{SourceFile: "sem-doc.xml"},
		},
	}

	p, err := DocumentContains("112.223")
	require.NoError(t, err)

	assert.Equal(t, []string{"com-doc.xml"}, sourceFiles(Evaluate(rs, p)))
	assert.Empty(t, Evaluate(rs, Not(p)),
		"a record with no party documents must not reappear under NOT")
}

func TestAnd_PredicateAndItsNegationIsEmpty(t *testing.T) {
	rs := testRecordSet()

	text, err := AnyText("acme")
	require.NoError(t, err)
	dates, err := DateBetween(
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	amounts, err := AmountBetween(AmountGross, 0, 10000)
	require.NoError(t, err)

	for _, p := range []Predicate{text, dates, amounts} {
		assert.Empty(t, Evaluate(rs, And(p, Not(p))), "AND(P, NOT P) must always be empty")
	}
}

func TestOr_BranchOverNullFieldDoesNotHideOtherBranch(t *testing.T) {
	rs := testRecordSet()

	dates, err := DateBetween(
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	text, err := TextContains(TextIssuerName, "sem data")
	require.NoError(t, err)

	// c.xml has no issue date, but the text branch still matches it.
	assert.Equal(t, []string{"a.xml", "c.xml"}, sourceFiles(Evaluate(rs, Or(dates, text))))
}

func TestOneOf_Membership(t *testing.T) {
	rs := testRecordSet()

	p, err := OneOf(TextServiceCode, "101", "703")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.xml", "c.xml"}, sourceFiles(Evaluate(rs, p)))

	_, err = OneOf(TextServiceCode)
	assert.ErrorIs(t, err, common.ErrInvalidPredicate)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "sao joao", Fold("São João"))
	assert.Equal(t, "acucar", Fold("AÇÚCAR"))
	assert.Equal(t, "ja folded", Fold("ja folded"))
}
