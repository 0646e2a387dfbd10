package models

import "time"

// CompanyDetail is the full API projection of one establishment: the
// companies row after the base-registry and Simples folds, plus the
// ownership records sharing its CNPJ root.
type CompanyDetail struct {
	Company

	RazaoSocial               *string `json:"razao_social"`
	CodigoNaturezaJuridica    *int    `json:"codigo_natureza_juridica"`
	NaturezaJuridica          *string `json:"natureza_juridica"`
	QualificacaoResponsavel   *int    `json:"qualificacao_do_responsavel"`
	CapitalSocial             *string `json:"capital_social"`
	CodigoPorte               *int    `json:"codigo_porte"`
	Porte                     *string `json:"porte"`
	EnteFederativoResponsavel *string `json:"ente_federativo_responsavel"`

	OpcaoSimples        *bool      `json:"opcao_pelo_simples"`
	DataOpcaoSimples    *time.Time `json:"data_opcao_pelo_simples"`
	DataExclusaoSimples *time.Time `json:"data_exclusao_do_simples"`
	OpcaoMEI            *bool      `json:"opcao_pelo_mei"`
	DataOpcaoMEI        *time.Time `json:"data_opcao_pelo_mei"`
	DataExclusaoMEI     *time.Time `json:"data_exclusao_do_mei"`

	QuadroSocietario []Partner `json:"quadro_societario"`
}
