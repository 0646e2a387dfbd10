package models

import "time"

// Partner is an enriched ownership record. Partners are published against
// the 8-digit CNPJ root; the relational schema enforces the company edge.
type Partner struct {
	CNPJBasico                      string     `json:"cnpj_basico"`
	IdentificadorSocio              *int       `json:"identificador_socio"`
	DescricaoIdentificadorSocio     *string    `json:"descricao_identificador_socio"`
	NomeSocio                       string     `json:"nome_socio"`
	CNPJCPFSocio                    string     `json:"cnpj_cpf_socio"`
	CodigoQualificacaoSocio         *int       `json:"codigo_qualificacao_socio"`
	QualificacaoSocio               *string    `json:"qualificacao_socio"`
	DataEntradaSociedade            *time.Time `json:"data_entrada_sociedade"`
	CodigoPais                      *int       `json:"codigo_pais"`
	Pais                            *string    `json:"pais"`
	RepresentanteLegal              string     `json:"cpf_representante_legal"`
	NomeRepresentante               string     `json:"nome_representante_legal"`
	CodigoQualificacaoRepresentante *int       `json:"codigo_qualificacao_representante_legal"`
	QualificacaoRepresentante       *string    `json:"qualificacao_representante_legal"`
	CodigoFaixaEtaria               *int       `json:"codigo_faixa_etaria"`
	FaixaEtaria                     *string    `json:"faixa_etaria"`
}
