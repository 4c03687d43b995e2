// Package dialect describes how logical invoice fields map onto the element
// paths of the many municipal ABRASF variants. Schema drift is handled here as
// data: each logical field carries an ordered list of candidate paths, most
// specific municipal variant first, generic ABRASF path last. The normalizer
// walks that list without any per-municipality branching, so supporting a new
// dialect means adding paths, not code.
package dialect

import (
	"fmt"
	"sort"
)

// Field names the logical fields of a canonical invoice.
type Field string

// Logical fields resolvable through a field map.
const (
	FieldIssueDate        Field = "issue_date"
	FieldServiceCode      Field = "service_code"
	FieldIssuerDocument   Field = "issuer_document"
	FieldPayerDocument    Field = "payer_document"
	FieldIssuerName       Field = "issuer_name"
	FieldPayerName        Field = "payer_name"
	FieldGrossAmount      Field = "gross_amount"
	FieldNetAmount        Field = "net_amount"
	FieldTaxAmount        Field = "tax_amount"
	FieldMunicipalityCode Field = "municipality_code"
)

// Normalizer names the value-normalization applied after a path resolves.
type Normalizer string

// Known normalizers.
const (
	NormalizeNone    Normalizer = ""
	NormalizeDigits  Normalizer = "digits"
	NormalizeDate    Normalizer = "date"
	NormalizeDecimal Normalizer = "decimal"
)

// Entry holds the candidate element paths for one logical field, in priority
// order, plus the normalizer applied to the resolved raw value.
type Entry struct {
	Paths      []string   `mapstructure:"paths"`
	Normalizer Normalizer `mapstructure:"normalizer"`
}

// Map is the full dialect field map. Built once at startup and read-only from
// then on, so it is safe to share across ingest workers without locking.
type Map map[Field]Entry

// Fields returns the mapped logical fields in a stable order.
func (m Map) Fields() []Field {
	out := make([]Field, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks that every entry names a known field, has at least one
// candidate path, and declares a normalizer compatible with the field's value
// type. Date and amount fields admit exactly one normalizer; document fields
// must digitize; free-text fields may digitize or pass through.
func (m Map) Validate() error {
	for f, e := range m {
		if !knownField(f) {
			return fmt.Errorf("dialect map: unknown field %q", f)
		}
		if len(e.Paths) == 0 {
			return fmt.Errorf("dialect map: field %q has no candidate paths", f)
		}
		if !normalizerAllowed(f, e.Normalizer) {
			return fmt.Errorf("dialect map: field %q cannot use normalizer %q", f, e.Normalizer)
		}
	}
	return nil
}

func normalizerAllowed(f Field, n Normalizer) bool {
	switch f {
	case FieldIssueDate:
		return n == NormalizeDate
	case FieldGrossAmount, FieldNetAmount, FieldTaxAmount:
		return n == NormalizeDecimal
	case FieldIssuerDocument, FieldPayerDocument:
		return n == NormalizeDigits
	default:
		return n == NormalizeNone || n == NormalizeDigits
	}
}

// Merge layers override entries on top of the receiver and returns a new map.
// An override replaces the whole entry for its field; the receiver is left
// untouched.
func (m Map) Merge(overrides map[string]Entry) (Map, error) {
	merged := make(Map, len(m)+len(overrides))
	for f, e := range m {
		merged[f] = e
	}
	for name, e := range overrides {
		merged[Field(name)] = e
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

func knownField(f Field) bool {
	switch f {
	case FieldIssueDate, FieldServiceCode, FieldIssuerDocument, FieldPayerDocument,
		FieldIssuerName, FieldPayerName, FieldGrossAmount, FieldNetAmount,
		FieldTaxAmount, FieldMunicipalityCode:
		return true
	}
	return false
}

// Default returns the built-in field map. The path lists were collected
// empirically from documents of real municipal emitters; extend them through
// the config file rather than editing this table.
func Default() Map {
	return Map{
		FieldIssueDate: {
			Normalizer: NormalizeDate,
			Paths: []string{
				"InfNfse/DataEmissao",
				"InfDeclaracaoPrestacaoServico/Rps/DataEmissao",
				"Nfse/DataEmissao",
				"DataEmissao",
				"DtEmissao",
				"dtEmissao",
				"InfDeclaracaoPrestacaoServico/Competencia",
				"Competencia",
			},
		},
		FieldServiceCode: {
			Paths: []string{
				"Servico/ItemListaServico",
				"Servico/CodigoTributacaoMunicipio",
				"ItemListaServico",
				"CodigoServico",
				"CodServico",
			},
		},
		FieldIssuerDocument: {
			Normalizer: NormalizeDigits,
			Paths: []string{
				"PrestadorServico/IdentificacaoPrestador/CpfCnpj/Cnpj",
				"PrestadorServico/IdentificacaoPrestador/CpfCnpj/Cpf",
				"PrestadorServico/IdentificacaoPrestador/Cnpj",
				"Prestador/CpfCnpj/Cnpj",
				"Prestador/CpfCnpj/Cpf",
				"Prestador/Cnpj",
				"CPFCNPJPrestador",
				"CnpjPrestador",
			},
		},
		FieldPayerDocument: {
			Normalizer: NormalizeDigits,
			Paths: []string{
				"TomadorServico/IdentificacaoTomador/CpfCnpj/Cnpj",
				"TomadorServico/IdentificacaoTomador/CpfCnpj/Cpf",
				"Tomador/IdentificacaoTomador/CpfCnpj/Cnpj",
				"Tomador/IdentificacaoTomador/CpfCnpj/Cpf",
				"Tomador/CpfCnpj/Cnpj",
				"Tomador/CpfCnpj/Cpf",
				"CPFCNPJTomador",
				"CnpjTomador",
			},
		},
		FieldIssuerName: {
			Paths: []string{
				"PrestadorServico/RazaoSocial",
				"Prestador/RazaoSocial",
				"RazaoSocialPrestador",
			},
		},
		FieldPayerName: {
			Paths: []string{
				"TomadorServico/RazaoSocial",
				"Tomador/RazaoSocial",
				"RazaoSocialTomador",
			},
		},
		FieldGrossAmount: {
			Normalizer: NormalizeDecimal,
			Paths: []string{
				"Servico/Valores/ValorServicos",
				"Valores/ValorServicos",
				"ValorServicos",
				"ValorTotalServicos",
				"ValorNota",
			},
		},
		FieldNetAmount: {
			Normalizer: NormalizeDecimal,
			Paths: []string{
				"ValoresNfse/ValorLiquidoNfse",
				"Valores/ValorLiquidoNfse",
				"ValorLiquidoNfse",
				"ValorLiquido",
			},
		},
		FieldTaxAmount: {
			Normalizer: NormalizeDecimal,
			Paths: []string{
				"ValoresNfse/ValorIss",
				"Servico/Valores/ValorIss",
				"Valores/ValorIss",
				"ValorIss",
				"ValorISS",
			},
		},
		FieldMunicipalityCode: {
			Paths: []string{
				"Servico/CodigoMunicipio",
				"PrestadorServico/Endereco/CodigoMunicipio",
				"InfNfse/CodigoMunicipio",
				"CodigoMunicipio",
				"MunicipioPrestacaoServico",
			},
		},
	}
}
