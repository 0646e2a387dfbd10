package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/cnpj-etl/internal/models"
)

// ErrCompanyNotFound marks a well-formed CNPJ with no loaded row.
var ErrCompanyNotFound = errors.New("company not found")

// CompanyServiceInterface is what the API handlers depend on.
type CompanyServiceInterface interface {
	GetCompany(ctx context.Context, cnpj string) (*models.CompanyDetail, error)
}

// CompanyService serves company lookups from the loaded registry, fronted
// by the response cache.
type CompanyService struct {
	pool   *pgxpool.Pool
	cache  *CacheService
	logger *logrus.Logger
}

func NewCompanyService(pool *pgxpool.Pool, cache *CacheService, logger *logrus.Logger) *CompanyService {
	return &CompanyService{pool: pool, cache: cache, logger: logger}
}

const selectCompany = `
SELECT cnpj, identificador_matriz_filial, descricao_identificador_matriz_filial,
       nome_fantasia, situacao_cadastral, descricao_situacao_cadastral,
       data_situacao_cadastral, motivo_situacao_cadastral,
       descricao_motivo_situacao_cadastral, nome_cidade_no_exterior,
       codigo_pais, pais, data_inicio_atividade, cnae_fiscal,
       cnae_fiscal_descricao, descricao_tipo_de_logradouro, logradouro,
       numero, complemento, bairro, cep, uf, codigo_municipio,
       codigo_municipio_ibge, municipio, ddd_telefone_1, ddd_telefone_2,
       ddd_fax, email, situacao_especial, data_situacao_especial,
       razao_social, codigo_natureza_juridica, natureza_juridica,
       qualificacao_do_responsavel, capital_social::text, codigo_porte, porte,
       ente_federativo_responsavel, opcao_pelo_simples,
       data_opcao_pelo_simples, data_exclusao_do_simples, opcao_pelo_mei,
       data_opcao_pelo_mei, data_exclusao_do_mei
FROM companies
WHERE cnpj = $1`

const selectPartners = `
SELECT cnpj_basico, identificador_socio, descricao_identificador_socio,
       nome_socio, cnpj_cpf_socio, codigo_qualificacao_socio,
       qualificacao_socio, data_entrada_sociedade, codigo_pais, pais,
       cpf_representante_legal, nome_representante_legal,
       codigo_qualificacao_representante_legal,
       qualificacao_representante_legal, codigo_faixa_etaria, faixa_etaria
FROM partners
WHERE cnpj_basico = $1
ORDER BY id`

// GetCompany returns the full detail for a normalized 14-digit CNPJ.
func (s *CompanyService) GetCompany(ctx context.Context, cnpj string) (*models.CompanyDetail, error) {
	start := time.Now()
	cacheKey := "cnpj:" + cnpj

	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var detail models.CompanyDetail
		if err := json.Unmarshal([]byte(cached), &detail); err == nil {
			return &detail, nil
		}
		// A corrupt entry is dropped and served from the database.
		s.cache.Delete(ctx, cacheKey)
	}

	detail, err := s.queryCompany(ctx, cnpj)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(detail); err == nil {
		s.cache.Set(ctx, cacheKey, string(payload))
	}

	s.logger.WithFields(logrus.Fields{
		"cnpj":     cnpj,
		"partners": len(detail.QuadroSocietario),
		"duration": time.Since(start).String(),
	}).Debug("company served from database")
	return detail, nil
}

func (s *CompanyService) queryCompany(ctx context.Context, cnpj string) (*models.CompanyDetail, error) {
	var d models.CompanyDetail
	row := s.pool.QueryRow(ctx, selectCompany, cnpj)
	err := row.Scan(
		&d.CNPJ, &d.IdentificadorMatrizFilial, &d.DescricaoMatrizFilial,
		&d.NomeFantasia, &d.SituacaoCadastral, &d.DescricaoSituacaoCadastral,
		&d.DataSituacaoCadastral, &d.MotivoSituacaoCadastral,
		&d.DescricaoMotivoSituacaoCadastral, &d.NomeCidadeExterior,
		&d.CodigoPais, &d.Pais, &d.DataInicioAtividade, &d.CNAEFiscal,
		&d.CNAEFiscalDescricao, &d.TipoLogradouro, &d.Logradouro,
		&d.Numero, &d.Complemento, &d.Bairro, &d.CEP, &d.UF, &d.CodigoMunicipio,
		&d.CodigoMunicipioIBGE, &d.Municipio, &d.DDDTelefone1, &d.DDDTelefone2,
		&d.DDDFax, &d.Email, &d.SituacaoEspecial, &d.DataSituacaoEspecial,
		&d.RazaoSocial, &d.CodigoNaturezaJuridica, &d.NaturezaJuridica,
		&d.QualificacaoResponsavel, &d.CapitalSocial, &d.CodigoPorte, &d.Porte,
		&d.EnteFederativoResponsavel, &d.OpcaoSimples,
		&d.DataOpcaoSimples, &d.DataExclusaoSimples, &d.OpcaoMEI,
		&d.DataOpcaoMEI, &d.DataExclusaoMEI,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query company")
	}

	partners, err := s.queryPartners(ctx, cnpj[:8])
	if err != nil {
		return nil, err
	}
	d.QuadroSocietario = partners
	return &d, nil
}

func (s *CompanyService) queryPartners(ctx context.Context, basico string) ([]models.Partner, error) {
	rows, err := s.pool.Query(ctx, selectPartners, basico)
	if err != nil {
		return nil, errors.Wrap(err, "query partners")
	}
	defer rows.Close()

	partners := make([]models.Partner, 0)
	for rows.Next() {
		var p models.Partner
		if err := rows.Scan(
			&p.CNPJBasico, &p.IdentificadorSocio, &p.DescricaoIdentificadorSocio,
			&p.NomeSocio, &p.CNPJCPFSocio, &p.CodigoQualificacaoSocio,
			&p.QualificacaoSocio, &p.DataEntradaSociedade, &p.CodigoPais, &p.Pais,
			&p.RepresentanteLegal, &p.NomeRepresentante,
			&p.CodigoQualificacaoRepresentante, &p.QualificacaoRepresentante,
			&p.CodigoFaixaEtaria, &p.FaixaEtaria,
		); err != nil {
			return nil, errors.Wrap(err, "scan partner")
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}
