package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefault_CoversAllLogicalFields(t *testing.T) {
	fields := Default().Fields()
	assert.Len(t, fields, 10)
	for _, f := range []Field{
		FieldIssueDate, FieldServiceCode, FieldIssuerDocument, FieldPayerDocument,
		FieldIssuerName, FieldPayerName, FieldGrossAmount, FieldNetAmount,
		FieldTaxAmount, FieldMunicipalityCode,
	} {
		assert.Contains(t, fields, f)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name string
		m    Map
	}{
		{
			name: "unknown field",
			m:    Map{Field("numero_da_sorte"): {Paths: []string{"A"}}},
		},
		{
			name: "no candidate paths",
			m:    Map{FieldIssueDate: {Normalizer: NormalizeDate}},
		},
		{
			name: "unknown normalizer",
			m:    Map{FieldIssueDate: {Paths: []string{"DataEmissao"}, Normalizer: Normalizer("roman")}},
		},
		{
			name: "date field without the date normalizer",
			m:    Map{FieldIssueDate: {Paths: []string{"DataEmissao"}}},
		},
		{
			name: "amount field with a text normalizer",
			m:    Map{FieldGrossAmount: {Paths: []string{"ValorServicos"}, Normalizer: NormalizeDigits}},
		},
		{
			name: "document field without the digits normalizer",
			m:    Map{FieldIssuerDocument: {Paths: []string{"Cnpj"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.m.Validate())
		})
	}
}

func TestMerge_OverridesReplaceWholeEntry(t *testing.T) {
	base := Default()

	merged, err := base.Merge(map[string]Entry{
		"issue_date": {Paths: []string{"MinhaData"}, Normalizer: NormalizeDate},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"MinhaData"}, merged[FieldIssueDate].Paths)
	// The receiver stays untouched.
	assert.NotEqual(t, []string{"MinhaData"}, base[FieldIssueDate].Paths)
}

func TestMerge_RejectsInvalidOverride(t *testing.T) {
	_, err := Default().Merge(map[string]Entry{
		"campo_inventado": {Paths: []string{"X"}},
	})
	assert.Error(t, err)

	// An override pointing a typed field at an incompatible normalizer fails
	// at load time instead of being ignored during normalization.
	_, err = Default().Merge(map[string]Entry{
		"issue_date": {Paths: []string{"MinhaData"}, Normalizer: NormalizeDigits},
	})
	assert.Error(t, err)
}

func TestValidate_TextFieldsMayDigitize(t *testing.T) {
	merged, err := Default().Merge(map[string]Entry{
		"service_code": {Paths: []string{"CodigoServico"}, Normalizer: NormalizeDigits},
	})
	require.NoError(t, err)
	assert.Equal(t, NormalizeDigits, merged[FieldServiceCode].Normalizer)
}
