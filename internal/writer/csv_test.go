package writer

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/cnpj-etl/internal/catalog"
	"github.com/nexconsult/cnpj-etl/internal/logger"
	"github.com/nexconsult/cnpj-etl/internal/models"
)

func intPtr(n int) *int     { return &n }
func strP(s string) *string { return &s }

func datePtr(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCSVWriterRoundtrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	w, err := NewCSVWriter(dir, logger.Discard())
	require.NoError(t, err)

	capital := decimal.RequireFromString("1000.50")
	base := &models.CompanyBase{
		CNPJBasico:             "00345678",
		RazaoSocial:            "ACME LTDA",
		CodigoNaturezaJuridica: intPtr(2062),
		NaturezaJuridica:       strP("SOCIEDADE LIMITADA"),
		CapitalSocial:          &capital,
	}

	require.NoError(t, w.BeginDataset(ctx, catalog.CompaniesBase))
	written, failed, err := w.WriteBatch(ctx, Batch{Dataset: catalog.CompaniesBase, Records: []Record{base}})
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.Equal(t, 0, failed)
	require.NoError(t, w.EndDataset(ctx))

	regime := &models.TaxRegime{CNPJBasico: "00345678", DataOpcaoSimples: datePtr(2007, 7, 1)}
	require.NoError(t, w.BeginDataset(ctx, catalog.Simples))
	_, _, err = w.WriteBatch(ctx, Batch{Dataset: catalog.Simples, Records: []Record{regime}})
	require.NoError(t, err)
	require.NoError(t, w.EndDataset(ctx))

	// Nothing published before Commit.
	_, err = os.Stat(filepath.Join(dir, "company_base.csv"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, w.Commit(ctx))

	f, err := os.Open(filepath.Join(dir, "company_base.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.CompanyBaseColumns, rows[0])
	assert.Equal(t, "00345678", rows[1][0])
	assert.Equal(t, "1000.50", rows[1][5])
	assert.Equal(t, "", rows[1][6], "null code renders empty")

	g, err := os.Open(filepath.Join(dir, "tax_regimes.csv"))
	require.NoError(t, err)
	defer g.Close()
	regimes, err := csv.NewReader(g).ReadAll()
	require.NoError(t, err)
	require.Len(t, regimes, 2)
	assert.Equal(t, "2007-07-01", regimes[1][2], "dates render ISO")
}

func TestCSVWriterAbortLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	w, err := NewCSVWriter(dir, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, w.BeginDataset(ctx, catalog.Partners))
	_, _, err = w.WriteBatch(ctx, Batch{Dataset: catalog.Partners, Records: []Record{&models.Partner{CNPJBasico: "00345678"}}})
	require.NoError(t, err)
	require.NoError(t, w.Abort(ctx))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriterSequence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	w, err := NewCSVWriter(dir, logger.Discard())
	require.NoError(t, err)

	_, _, err = w.WriteBatch(ctx, Batch{Dataset: catalog.Partners})
	assert.Error(t, err, "write before begin")

	assert.Error(t, w.EndDataset(ctx), "end before begin")

	w2, err := NewCSVWriter(dir, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, w2.BeginDataset(ctx, catalog.Partners))
	assert.Error(t, w2.BeginDataset(ctx, catalog.Simples), "nested begin")

	_, _, err = w2.WriteBatch(ctx, Batch{Dataset: catalog.Simples})
	assert.Error(t, err, "batch from another dataset inside stream")

	assert.Error(t, w2.Commit(ctx), "commit mid-stream")
	require.NoError(t, w2.EndDataset(ctx))
	require.NoError(t, w2.Commit(ctx))
	assert.Error(t, w2.BeginDataset(ctx, catalog.Simples), "begin after commit")
}

func TestWriterSerializesConcurrentBatches(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	w, err := NewCSVWriter(dir, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, w.BeginDataset(ctx, catalog.Partners))

	const producers = 8
	const batchesPerProducer = 20

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < batchesPerProducer; j++ {
				_, _, err := w.WriteBatch(ctx, Batch{
					Dataset: catalog.Partners,
					Records: []Record{&models.Partner{CNPJBasico: "00345678"}},
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	require.NoError(t, w.EndDataset(ctx))
	require.NoError(t, w.Commit(ctx))

	f, err := os.Open(filepath.Join(dir, "partners.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1+producers*batchesPerProducer)
}

func TestColumnValueAlignment(t *testing.T) {
	assert.Len(t, (&models.Company{}).Values(), len(models.CompanyColumns))
	assert.Len(t, (&models.CompanyBase{}).Values(), len(models.CompanyBaseColumns))
	assert.Len(t, (&models.Partner{}).Values(), len(models.PartnerColumns))
	assert.Len(t, (&models.TaxRegime{}).Values(), len(models.TaxRegimeColumns))
}
