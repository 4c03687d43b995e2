package common

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiscaltools/painel-nfse/internal/mask"
)

func TestMaskAttr(t *testing.T) {
	m := mask.New()

	tests := []struct {
		name string
		attr slog.Attr
		want any
	}{
		{
			name: "string value",
			attr: slog.String("detail", "CPF 123.456.789-09 rejeitado"),
			want: "CPF 123.***.***-09 rejeitado",
		},
		{
			name: "string through Any",
			attr: slog.Any("detail", "CNPJ 11.222.333/0001-81"),
			want: "CNPJ 11.2**.***/****-81",
		},
		{
			name: "string slice masks each element",
			attr: slog.Any("unresolved_paths", []string{
				"Tomador/Cpf falhou para 123.456.789-09",
				"Prestador/RazaoSocial",
			}),
			want: []string{
				"Tomador/Cpf falhou para 123.***.***-09",
				"Prestador/RazaoSocial",
			},
		},
		{
			name: "non-document digits untouched",
			attr: slog.String("path", "notas-2023.zip:nota-42.xml"),
			want: "notas-2023.zip:nota-42.xml",
		},
		{
			name: "non-string value untouched",
			attr: slog.Int("documents", 14),
			want: int64(14),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maskAttr(m, tt.attr)
			assert.Equal(t, tt.want, got.Value.Any())
		})
	}
}
