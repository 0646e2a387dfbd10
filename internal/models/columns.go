package models

// Column lists and value projections consumed by the writer sinks. Each
// Values slice is positionally aligned with the matching column list; the
// tests assert the lengths stay in sync.

var CompanyColumns = []string{
	"cnpj",
	"identificador_matriz_filial",
	"descricao_identificador_matriz_filial",
	"nome_fantasia",
	"situacao_cadastral",
	"descricao_situacao_cadastral",
	"data_situacao_cadastral",
	"motivo_situacao_cadastral",
	"descricao_motivo_situacao_cadastral",
	"nome_cidade_no_exterior",
	"codigo_pais",
	"pais",
	"data_inicio_atividade",
	"cnae_fiscal",
	"cnae_fiscal_descricao",
	"descricao_tipo_de_logradouro",
	"logradouro",
	"numero",
	"complemento",
	"bairro",
	"cep",
	"uf",
	"codigo_municipio",
	"codigo_municipio_ibge",
	"municipio",
	"ddd_telefone_1",
	"ddd_telefone_2",
	"ddd_fax",
	"email",
	"situacao_especial",
	"data_situacao_especial",
}

var CompanyBaseColumns = []string{
	"cnpj_basico",
	"razao_social",
	"codigo_natureza_juridica",
	"natureza_juridica",
	"qualificacao_do_responsavel",
	"capital_social",
	"codigo_porte",
	"porte",
	"ente_federativo_responsavel",
}

var PartnerColumns = []string{
	"cnpj_basico",
	"identificador_socio",
	"descricao_identificador_socio",
	"nome_socio",
	"cnpj_cpf_socio",
	"codigo_qualificacao_socio",
	"qualificacao_socio",
	"data_entrada_sociedade",
	"codigo_pais",
	"pais",
	"cpf_representante_legal",
	"nome_representante_legal",
	"codigo_qualificacao_representante_legal",
	"qualificacao_representante_legal",
	"codigo_faixa_etaria",
	"faixa_etaria",
}

var TaxRegimeColumns = []string{
	"cnpj_basico",
	"opcao_pelo_simples",
	"data_opcao_pelo_simples",
	"data_exclusao_do_simples",
	"opcao_pelo_mei",
	"data_opcao_pelo_mei",
	"data_exclusao_do_mei",
}

func (c *Company) Values() []any {
	return []any{
		c.CNPJ,
		c.IdentificadorMatrizFilial,
		c.DescricaoMatrizFilial,
		c.NomeFantasia,
		c.SituacaoCadastral,
		c.DescricaoSituacaoCadastral,
		c.DataSituacaoCadastral,
		c.MotivoSituacaoCadastral,
		c.DescricaoMotivoSituacaoCadastral,
		c.NomeCidadeExterior,
		c.CodigoPais,
		c.Pais,
		c.DataInicioAtividade,
		c.CNAEFiscal,
		c.CNAEFiscalDescricao,
		c.TipoLogradouro,
		c.Logradouro,
		c.Numero,
		c.Complemento,
		c.Bairro,
		c.CEP,
		c.UF,
		c.CodigoMunicipio,
		c.CodigoMunicipioIBGE,
		c.Municipio,
		c.DDDTelefone1,
		c.DDDTelefone2,
		c.DDDFax,
		c.Email,
		c.SituacaoEspecial,
		c.DataSituacaoEspecial,
	}
}

func (b *CompanyBase) Values() []any {
	var capital *string
	if b.CapitalSocial != nil {
		s := b.CapitalSocial.StringFixed(2)
		capital = &s
	}
	return []any{
		b.CNPJBasico,
		b.RazaoSocial,
		b.CodigoNaturezaJuridica,
		b.NaturezaJuridica,
		b.QualificacaoResponsavel,
		capital,
		b.CodigoPorte,
		b.Porte,
		b.EnteFederativoResponsavel,
	}
}

func (p *Partner) Values() []any {
	return []any{
		p.CNPJBasico,
		p.IdentificadorSocio,
		p.DescricaoIdentificadorSocio,
		p.NomeSocio,
		p.CNPJCPFSocio,
		p.CodigoQualificacaoSocio,
		p.QualificacaoSocio,
		p.DataEntradaSociedade,
		p.CodigoPais,
		p.Pais,
		p.RepresentanteLegal,
		p.NomeRepresentante,
		p.CodigoQualificacaoRepresentante,
		p.QualificacaoRepresentante,
		p.CodigoFaixaEtaria,
		p.FaixaEtaria,
	}
}

func (t *TaxRegime) Values() []any {
	return []any{
		t.CNPJBasico,
		t.OpcaoSimples,
		t.DataOpcaoSimples,
		t.DataExclusaoSimples,
		t.OpcaoMEI,
		t.DataOpcaoMEI,
		t.DataExclusaoMEI,
	}
}
