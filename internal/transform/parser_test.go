package transform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/cnpj-etl/internal/catalog"
	"github.com/nexconsult/cnpj-etl/internal/logger"
	"github.com/nexconsult/cnpj-etl/internal/lookup"
)

func testLookups(t *testing.T) *lookup.Lookups {
	t.Helper()
	dir := t.TempDir()
	tables := map[catalog.Dataset]string{
		catalog.Cnaes:          "4712100;COMERCIO VAREJISTA DE MERCADORIAS\n",
		catalog.Motives:        "0;SEM MOTIVO\n1;EXTINCAO POR ENCERRAMENTO\n",
		catalog.Municipalities: "7107;SAO PAULO\n",
		catalog.LegalNatures:   "2062;SOCIEDADE EMPRESARIA LIMITADA\n",
		catalog.Countries:      "105;BRASIL\n249;ESTADOS UNIDOS\n",
		catalog.Qualifications: "49;SOCIO-ADMINISTRADOR\n",
	}
	files := make(map[catalog.Dataset][]string, len(tables))
	for ds, content := range tables {
		path := filepath.Join(dir, string(ds)+".csv")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		files[ds] = []string{path}
	}
	lookups, err := lookup.Load(files, logger.Discard())
	require.NoError(t, err)
	return lookups
}

func establishmentRow() []string {
	return []string{
		"12345678", "1", "95", // cnpj parts
		"1",            // matriz/filial
		"PADARIA BELA", // nome fantasia
		"2",            // situacao cadastral
		"20200115",     // data situacao
		"0",            // motivo
		"",             // cidade exterior
		"",             // pais
		"20150301",     // inicio atividade
		"4712100",      // cnae principal
		"",             // cnae secundaria
		"RUA", "DAS FLORES", "100", "SALA 2", "CENTRO",
		"01001-000", "SP", "7107",
		"11", "33334444", // telefone 1
		"", "", // telefone 2
		"", "", // fax
		"CONTATO@PADARIA.COM.BR",
		"",         // situacao especial
		"00000000", // data situacao especial
	}
}

func TestParseEstablishment(t *testing.T) {
	p := NewParser(testLookups(t), false)

	c, err := p.ParseEstablishment(establishmentRow())
	require.NoError(t, err)

	assert.Equal(t, "12345678000195", c.CNPJ)
	require.NotNil(t, c.SituacaoCadastral)
	assert.Equal(t, 2, *c.SituacaoCadastral)
	require.NotNil(t, c.DescricaoSituacaoCadastral)
	assert.Equal(t, "ATIVA", *c.DescricaoSituacaoCadastral)
	require.NotNil(t, c.DescricaoMatrizFilial)
	assert.Equal(t, "MATRIZ", *c.DescricaoMatrizFilial)
	require.NotNil(t, c.CNAEFiscalDescricao)
	assert.Equal(t, "COMERCIO VAREJISTA DE MERCADORIAS", *c.CNAEFiscalDescricao)
	require.NotNil(t, c.Municipio)
	assert.Equal(t, "SAO PAULO", *c.Municipio)
	require.NotNil(t, c.DataSituacaoCadastral)
	assert.Equal(t, time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC), *c.DataSituacaoCadastral)
	assert.Nil(t, c.DataSituacaoEspecial, "all-zero date maps to null")
	assert.Nil(t, c.CodigoPais, "empty code maps to null")
	assert.Nil(t, c.Pais)
	assert.Equal(t, "1133334444", c.DDDTelefone1)
	assert.Equal(t, "", c.DDDTelefone2)
	require.NotNil(t, c.Email)
	assert.Equal(t, "contato@padaria.com.br", *c.Email)
	assert.Equal(t, "01001000", c.CEP)
	assert.Nil(t, c.CodigoMunicipioIBGE)
}

func TestParseEstablishmentUnknownCodeKeepsNumeric(t *testing.T) {
	p := NewParser(testLookups(t), false)

	row := establishmentRow()
	row[5] = "99" // no such situacao cadastral
	row[11] = "9999999"

	c, err := p.ParseEstablishment(row)
	require.NoError(t, err)
	require.NotNil(t, c.SituacaoCadastral)
	assert.Equal(t, 99, *c.SituacaoCadastral)
	assert.Nil(t, c.DescricaoSituacaoCadastral)
	require.NotNil(t, c.CNAEFiscal)
	assert.Nil(t, c.CNAEFiscalDescricao)
}

func TestParseEstablishmentRejectsBadRows(t *testing.T) {
	p := NewParser(testLookups(t), false)

	_, err := p.ParseEstablishment([]string{"12345678", "1"})
	assert.Error(t, err, "wrong field count")

	row := establishmentRow()
	row[0] = "12AB5678"
	_, err = p.ParseEstablishment(row)
	assert.Error(t, err, "non-digit cnpj root")
}

func TestParseCompanyBase(t *testing.T) {
	p := NewParser(testLookups(t), false)

	b, err := p.ParseCompanyBase([]string{"345678", "ACME LTDA", "2062", "49", "10000,505", "5", ""})
	require.NoError(t, err)

	assert.Equal(t, "00345678", b.CNPJBasico, "root zero-left-padded to 8")
	require.NotNil(t, b.NaturezaJuridica)
	assert.Equal(t, "SOCIEDADE EMPRESARIA LIMITADA", *b.NaturezaJuridica)
	require.NotNil(t, b.CapitalSocial)
	assert.Equal(t, "10000.51", b.CapitalSocial.StringFixed(2))
	require.NotNil(t, b.Porte)
	assert.Equal(t, "DEMAIS", *b.Porte)

	_, err = p.ParseCompanyBase([]string{"345678", "ACME LTDA", "2062", "49", "abc", "5", ""})
	assert.Error(t, err, "malformed capital fails the row")
}

func TestParsePartnerPrivacy(t *testing.T) {
	row := []string{"345678", "2", "JOAO SILVA 12345678901", "***123456**", "49", "20180510", "", "12345678901", "MARIA SOUZA", "49", "4"}

	open, err := NewParser(testLookups(t), false).ParsePartner(row)
	require.NoError(t, err)
	assert.Equal(t, "JOAO SILVA 12345678901", open.NomeSocio)
	assert.Equal(t, "***123456**", open.CNPJCPFSocio)

	masked, err := NewParser(testLookups(t), true).ParsePartner(row)
	require.NoError(t, err)
	assert.Equal(t, "JOAO SILVA ***678***901***", masked.NomeSocio)
	assert.Equal(t, "***********", masked.CNPJCPFSocio)
	assert.Equal(t, "***********", masked.RepresentanteLegal)

	require.NotNil(t, masked.DescricaoIdentificadorSocio)
	assert.Equal(t, "PESSOA FÍSICA", *masked.DescricaoIdentificadorSocio)
	require.NotNil(t, masked.FaixaEtaria)
	require.NotNil(t, masked.QualificacaoSocio)
	assert.Equal(t, "SOCIO-ADMINISTRADOR", *masked.QualificacaoSocio)
}

func TestParseTaxRegime(t *testing.T) {
	p := NewParser(testLookups(t), false)

	r, err := p.ParseTaxRegime([]string{"345678", "S", "20070701", "00000000", "N", "", ""})
	require.NoError(t, err)

	assert.Equal(t, "00345678", r.CNPJBasico)
	require.NotNil(t, r.OpcaoSimples)
	assert.True(t, *r.OpcaoSimples)
	require.NotNil(t, r.OpcaoMEI)
	assert.False(t, *r.OpcaoMEI)
	require.NotNil(t, r.DataOpcaoSimples)
	assert.Nil(t, r.DataExclusaoSimples)

	r, err = p.ParseTaxRegime([]string{"345678", "", "", "", "", "", ""})
	require.NoError(t, err)
	assert.Nil(t, r.OpcaoSimples, "unknown flag maps to null")
}
