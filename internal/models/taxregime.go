package models

import "time"

// TaxRegime carries the Simples Nacional and MEI election records for one
// CNPJ root.
type TaxRegime struct {
	CNPJBasico          string     `json:"cnpj_basico"`
	OpcaoSimples        *bool      `json:"opcao_pelo_simples"`
	DataOpcaoSimples    *time.Time `json:"data_opcao_pelo_simples"`
	DataExclusaoSimples *time.Time `json:"data_exclusao_do_simples"`
	OpcaoMEI            *bool      `json:"opcao_pelo_mei"`
	DataOpcaoMEI        *time.Time `json:"data_opcao_pelo_mei"`
	DataExclusaoMEI     *time.Time `json:"data_exclusao_do_mei"`
}
