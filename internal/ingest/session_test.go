package ingest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscaltools/painel-nfse/internal/common"
	"github.com/fiscaltools/painel-nfse/internal/dialect"
	"github.com/fiscaltools/painel-nfse/internal/model"
)

func goodDoc(payerCPF, gross string) []byte {
	return []byte(fmt.Sprintf(`<Nfse>
	  <DataEmissao>2023-03-01</DataEmissao>
	  <Tomador><CpfCnpj><Cpf>%s</Cpf></CpfCnpj></Tomador>
	  <Servico><Valores><ValorServicos>%s</ValorServicos></Valores></Servico>
	</Nfse>`, payerCPF, gross))
}

func TestSession_GoodAndMalformedDocuments(t *testing.T) {
	sources := []Source{
		{Name: "boa.xml", Data: goodDoc("123.456.789-09", "100,00")},
		{Name: "quebrada.xml", Data: []byte("<Nfse><aberta")},
	}

	rs, err := NewSession(dialect.Default(), 2).Run(context.Background(), sources)
	require.NoError(t, err)

	// One record from the good document; the malformed one contributes
	// exactly one error diagnostic and no record.
	require.Len(t, rs.Invoices, 1)
	assert.Equal(t, "boa.xml", rs.Invoices[0].SourceFile)

	errored := rs.DiagnosticsFor("quebrada.xml")
	require.Len(t, errored, 1)
	assert.Equal(t, model.SeverityError, errored[0].Severity)
}

func TestSession_OrderIsDiscoveryOrderRegardlessOfWorkers(t *testing.T) {
	var sources []Source
	for i := 0; i < 40; i++ {
		sources = append(sources, Source{
			Name: fmt.Sprintf("nota-%02d.xml", i),
			Data: goodDoc("123.456.789-09", "10,00"),
		})
	}

	for _, workers := range []int{1, 4, 16} {
		rs, err := NewSession(dialect.Default(), workers).Run(context.Background(), sources)
		require.NoError(t, err)
		require.Len(t, rs.Invoices, 40)
		for i, inv := range rs.Invoices {
			assert.Equal(t, fmt.Sprintf("nota-%02d.xml", i), inv.SourceFile,
				"order must be reproducible with %d workers", workers)
		}
	}
}

func TestSession_CancellationDiscardsPartialRun(t *testing.T) {
	var sources []Source
	for i := 0; i < 200; i++ {
		sources = append(sources, Source{
			Name: fmt.Sprintf("nota-%03d.xml", i),
			Data: goodDoc("123.456.789-09", "10,00"),
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rs, err := NewSession(dialect.Default(), 4).Run(ctx, sources)
	assert.Nil(t, rs, "a canceled ingest must not hand out a partial set")
	assert.ErrorIs(t, err, common.ErrIngestCanceled)
}

func TestSession_EmptyInput(t *testing.T) {
	_, err := NewSession(dialect.Default(), 1).Run(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrNoInput)
}

func TestSession_ProgressCallbackFiresPerDocument(t *testing.T) {
	sources := []Source{
		{Name: "a.xml", Data: goodDoc("123.456.789-09", "10,00")},
		{Name: "b.xml", Data: goodDoc("123.456.789-09", "20,00")},
		{Name: "c.xml", Data: []byte("<quebrada")},
	}

	var calls atomic.Int64
	s := NewSession(dialect.Default(), 2)
	s.OnProgress = func() { calls.Add(1) }

	_, err := s.Run(context.Background(), sources)
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
}
