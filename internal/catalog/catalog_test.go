package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCount(t *testing.T) {
	entries, err := Catalog(DefaultBaseURL, "2025-11")
	require.NoError(t, err)

	// 10 Estabelecimentos + 10 Empresas + 10 Socios + 7 singletons
	assert.Len(t, entries, 37)
}

func TestCatalogFilenamesDistinct(t *testing.T) {
	entries, err := Catalog(DefaultBaseURL, "2025-11")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, e := range entries {
		assert.False(t, seen[e.Filename], "duplicate filename %s", e.Filename)
		seen[e.Filename] = true
	}
}

func TestCatalogURLs(t *testing.T) {
	entries, err := Catalog(DefaultBaseURL, "2025-11")
	require.NoError(t, err)

	canonical := map[string]bool{}
	for _, prefix := range []string{"Estabelecimentos", "Empresas", "Socios"} {
		for _, d := range "0123456789" {
			canonical[prefix+string(d)+".zip"] = true
		}
	}
	for _, name := range []string{"Cnaes.zip", "Motivos.zip", "Municipios.zip", "Naturezas.zip", "Paises.zip", "Qualificacoes.zip", "Simples.zip"} {
		canonical[name] = true
	}

	for _, e := range entries {
		assert.True(t, strings.HasPrefix(e.URL, DefaultBaseURL+"/2025-11/"), "url %s", e.URL)
		segments := strings.Split(e.URL, "/")
		last := segments[len(segments)-1]
		assert.True(t, canonical[last], "unexpected filename %s", last)
		assert.Equal(t, e.Filename, last)
	}
}

func TestCatalogOrder(t *testing.T) {
	entries, err := Catalog(DefaultBaseURL, "2025-11")
	require.NoError(t, err)

	assert.Equal(t, "Estabelecimentos0.zip", entries[0].Filename)
	assert.Equal(t, "Estabelecimentos9.zip", entries[9].Filename)
	assert.Equal(t, "Empresas0.zip", entries[10].Filename)
	assert.Equal(t, "Socios0.zip", entries[20].Filename)
	assert.Equal(t, "Cnaes.zip", entries[30].Filename)
	assert.Equal(t, "Simples.zip", entries[36].Filename)
	assert.Equal(t, 3, entries[3].Partition)
	assert.Equal(t, NoPartition, entries[30].Partition)
}

func TestCatalogMalformedPeriod(t *testing.T) {
	for _, period := range []string{"", "2025", "2025-13", "2025-00", "202511", "25-11"} {
		_, err := Catalog(DefaultBaseURL, Period(period))
		assert.Error(t, err, "period %q", period)
	}
}

func TestCurrentPeriod(t *testing.T) {
	now := time.Date(2025, time.November, 14, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, Period("2025-11"), CurrentPeriod(now))
	require.NoError(t, CurrentPeriod(time.Now()).Validate())
}

func TestFilenames(t *testing.T) {
	entries, err := Catalog(DefaultBaseURL, "2025-11")
	require.NoError(t, err)

	assert.Len(t, Filenames(entries, Partners), 10)
	assert.Equal(t, []string{"Simples.zip"}, Filenames(entries, Simples))
}

func TestZipNames(t *testing.T) {
	assert.Len(t, ZipNames(Establishments), 10)
	assert.Equal(t, "Estabelecimentos0.zip", ZipNames(Establishments)[0])
	assert.Equal(t, []string{"Simples.zip"}, ZipNames(Simples))
	assert.Equal(t, []string{"Municipios.zip"}, ZipNames(Municipalities))

	entries, err := Catalog(DefaultBaseURL, "2025-11")
	require.NoError(t, err)
	assert.Equal(t, Filenames(entries, Partners), ZipNames(Partners))
}
