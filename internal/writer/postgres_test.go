package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/cnpj-etl/internal/catalog"
)

func TestTargets(t *testing.T) {
	for _, ds := range catalog.FactDatasets {
		tg, err := targetFor(ds)
		require.NoError(t, err, "dataset %s", ds)
		assert.NotEmpty(t, tg.Table)
		assert.NotEmpty(t, tg.Columns)
	}

	_, err := targetFor(catalog.Cnaes)
	assert.Error(t, err, "lookup datasets have no table")
}

func TestInsertSQL(t *testing.T) {
	tg, err := targetFor(catalog.Simples)
	require.NoError(t, err)

	sql := insertSQL(tg)
	assert.Equal(t,
		"INSERT INTO tax_regimes (cnpj_basico, opcao_pelo_simples, data_opcao_pelo_simples, "+
			"data_exclusao_do_simples, opcao_pelo_mei, data_opcao_pelo_mei, data_exclusao_do_mei) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7)",
		sql)
}
