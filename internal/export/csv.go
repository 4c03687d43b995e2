// Package export writes the (possibly filtered) record sequence as
// semicolon-delimited CSV, formatted the way Brazilian accounting tools
// expect: comma decimal separator, dot thousands separator, dd/mm/yyyy dates.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fiscaltools/painel-nfse/internal/model"
)

// Columns is the CSV header, in output order.
var Columns = []string{
	"EMISSAO",
	"PRESTADOR_DOC",
	"PRESTADOR",
	"TOMADOR_DOC",
	"TOMADOR",
	"SERVICO",
	"MUNICIPIO",
	"VALOR_BRUTO",
	"VALOR_LIQUIDO",
	"VALOR_ISS",
	"ARQUIVO",
}

// WriteCSV writes the invoices to w. Null fields come out as empty cells,
// never as fabricated values.
func WriteCSV(w io.Writer, invoices []model.Invoice) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range invoices {
		if err := cw.Write(Row(&invoices[i])); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Row renders one invoice as CSV cells, aligned with Columns.
func Row(inv *model.Invoice) []string {
	return []string{
		FormatDate(inv.IssueDate),
		inv.IssuerDocument,
		inv.IssuerName,
		inv.PayerDocument,
		inv.PayerName,
		inv.ServiceCode,
		inv.MunicipalityCode,
		FormatAmount(inv.GrossAmount),
		FormatAmount(inv.NetAmount),
		FormatAmount(inv.TaxAmount),
		inv.SourceFile,
	}
}

// FormatDate renders a nullable date as dd/mm/yyyy, or empty when null.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

// FormatAmount renders a nullable amount in BRL notation ("1.234,56"), or
// empty when null.
func FormatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return BRL(*v)
}

// BRL formats a value with comma decimals and dot thousands separators.
func BRL(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ".") + "," + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
