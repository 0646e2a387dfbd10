// Package models defines the enriched records the transform stage emits.
// Field names follow the upstream dump's vocabulary, which is also the
// relational schema's column vocabulary.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is the enriched establishment record, keyed by the full 14-digit
// CNPJ. Base-registry and fiscal-option columns are folded in by the writer
// at commit time; the streaming record carries establishment data only.
type Company struct {
	CNPJ                             string          `json:"cnpj"`
	IdentificadorMatrizFilial        *int            `json:"identificador_matriz_filial"`
	DescricaoMatrizFilial            *string         `json:"descricao_identificador_matriz_filial"`
	NomeFantasia                     string          `json:"nome_fantasia"`
	SituacaoCadastral                *int            `json:"situacao_cadastral"`
	DescricaoSituacaoCadastral       *string         `json:"descricao_situacao_cadastral"`
	DataSituacaoCadastral            *time.Time      `json:"data_situacao_cadastral"`
	MotivoSituacaoCadastral          *int            `json:"motivo_situacao_cadastral"`
	DescricaoMotivoSituacaoCadastral *string         `json:"descricao_motivo_situacao_cadastral"`
	NomeCidadeExterior               string          `json:"nome_cidade_no_exterior"`
	CodigoPais                       *int            `json:"codigo_pais"`
	Pais                             *string         `json:"pais"`
	DataInicioAtividade              *time.Time      `json:"data_inicio_atividade"`
	CNAEFiscal                       *int            `json:"cnae_fiscal"`
	CNAEFiscalDescricao              *string         `json:"cnae_fiscal_descricao"`
	TipoLogradouro                   string          `json:"descricao_tipo_de_logradouro"`
	Logradouro                       string          `json:"logradouro"`
	Numero                           string          `json:"numero"`
	Complemento                      string          `json:"complemento"`
	Bairro                           string          `json:"bairro"`
	CEP                              string          `json:"cep"`
	UF                               string          `json:"uf"`
	CodigoMunicipio                  *int            `json:"codigo_municipio"`
	CodigoMunicipioIBGE              *int            `json:"codigo_municipio_ibge"`
	Municipio                        *string         `json:"municipio"`
	DDDTelefone1                     string          `json:"ddd_telefone_1"`
	DDDTelefone2                     string          `json:"ddd_telefone_2"`
	DDDFax                           string          `json:"ddd_fax"`
	Email                            *string         `json:"email"`
	SituacaoEspecial                 string          `json:"situacao_especial"`
	DataSituacaoEspecial             *time.Time      `json:"data_situacao_especial"`
}

// CompanyBase is the base-registry record, keyed by the 8-digit CNPJ root
// shared by all establishments of one legal entity.
type CompanyBase struct {
	CNPJBasico                string           `json:"cnpj_basico"`
	RazaoSocial               string           `json:"razao_social"`
	CodigoNaturezaJuridica    *int             `json:"codigo_natureza_juridica"`
	NaturezaJuridica          *string          `json:"natureza_juridica"`
	QualificacaoResponsavel   *int             `json:"qualificacao_do_responsavel"`
	CapitalSocial             *decimal.Decimal `json:"capital_social"`
	CodigoPorte               *int             `json:"codigo_porte"`
	Porte                     *string          `json:"porte"`
	EnteFederativoResponsavel string           `json:"ente_federativo_responsavel"`
}
