// Package db owns the relational schema of the CNPJ registry and its
// lifecycle operations.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Connect opens a pgx pool against the given URL and verifies it. A
// non-default schema becomes the pool's search_path so every statement
// resolves tables inside it.
func Connect(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database url")
	}
	if schema != "" && schema != "public" {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return pool, nil
}

// companies holds one row per establishment keyed by the full 14-digit CNPJ,
// with the base-registry and Simples columns folded in after load.
const createCompanies = `
CREATE TABLE IF NOT EXISTS companies (
    cnpj                                   char(14) PRIMARY KEY,
    identificador_matriz_filial            integer,
    descricao_identificador_matriz_filial  text,
    nome_fantasia                          text,
    situacao_cadastral                     integer,
    descricao_situacao_cadastral           text,
    data_situacao_cadastral                date,
    motivo_situacao_cadastral              integer,
    descricao_motivo_situacao_cadastral    text,
    nome_cidade_no_exterior                text,
    codigo_pais                            integer,
    pais                                   text,
    data_inicio_atividade                  date,
    cnae_fiscal                            integer,
    cnae_fiscal_descricao                  text,
    descricao_tipo_de_logradouro           text,
    logradouro                             text,
    numero                                 text,
    complemento                            text,
    bairro                                 text,
    cep                                    text,
    uf                                     char(2),
    codigo_municipio                       integer,
    codigo_municipio_ibge                  integer,
    municipio                              text,
    ddd_telefone_1                         text,
    ddd_telefone_2                         text,
    ddd_fax                                text,
    email                                  text,
    situacao_especial                      text,
    data_situacao_especial                 date,
    razao_social                           text,
    codigo_natureza_juridica               integer,
    natureza_juridica                      text,
    qualificacao_do_responsavel            integer,
    capital_social                         numeric(20,2),
    codigo_porte                           integer,
    porte                                  text,
    ente_federativo_responsavel            text,
    opcao_pelo_simples                     boolean,
    data_opcao_pelo_simples                date,
    data_exclusao_do_simples               date,
    opcao_pelo_mei                         boolean,
    data_opcao_pelo_mei                    date,
    data_exclusao_do_mei                   date
)`

// partners keeps a surrogate key: the upstream dump has no stable partner
// identifier and the same person may appear several times per company.
const createPartners = `
CREATE TABLE IF NOT EXISTS partners (
    id                                       bigserial PRIMARY KEY,
    cnpj_basico                              char(8) NOT NULL,
    identificador_socio                      integer,
    descricao_identificador_socio            text,
    nome_socio                               text,
    cnpj_cpf_socio                           text,
    codigo_qualificacao_socio                integer,
    qualificacao_socio                       text,
    data_entrada_sociedade                   date,
    codigo_pais                              integer,
    pais                                     text,
    cpf_representante_legal                  text,
    nome_representante_legal                 text,
    codigo_qualificacao_representante_legal  integer,
    qualificacao_representante_legal         text,
    codigo_faixa_etaria                      integer,
    faixa_etaria                             text
)`

// Staging tables consumed by the writer's commit-time fold.
const createCompanyBase = `
CREATE TABLE IF NOT EXISTS company_base (
    cnpj_basico                  char(8) PRIMARY KEY,
    razao_social                 text,
    codigo_natureza_juridica     integer,
    natureza_juridica            text,
    qualificacao_do_responsavel  integer,
    capital_social               text,
    codigo_porte                 integer,
    porte                        text,
    ente_federativo_responsavel  text
)`

const createTaxRegimes = `
CREATE TABLE IF NOT EXISTS tax_regimes (
    cnpj_basico               char(8) PRIMARY KEY,
    opcao_pelo_simples        boolean,
    data_opcao_pelo_simples   date,
    data_exclusao_do_simples  date,
    opcao_pelo_mei            boolean,
    data_opcao_pelo_mei       date,
    data_exclusao_do_mei      date
)`

var createIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_companies_cnpj_basico ON companies (left(cnpj, 8))`,
	`CREATE INDEX IF NOT EXISTS idx_companies_razao_social ON companies (razao_social)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_nome_fantasia ON companies (nome_fantasia)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_uf ON companies (uf)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_municipio ON companies (codigo_municipio)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_cnae ON companies (cnae_fiscal)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_situacao ON companies (situacao_cadastral)`,
	`CREATE INDEX IF NOT EXISTS idx_partners_cnpj_basico ON partners (cnpj_basico)`,
	`CREATE INDEX IF NOT EXISTS idx_partners_nome_socio ON partners (nome_socio)`,
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS partners`,
	`DROP TABLE IF EXISTS tax_regimes`,
	`DROP TABLE IF EXISTS company_base`,
	`DROP TABLE IF EXISTS companies`,
}

// Create builds the schema. Statements are idempotent so re-running against
// an existing database is safe.
func Create(ctx context.Context, pool *pgxpool.Pool, schema string, logger *logrus.Logger) error {
	if schema != "" && schema != "public" {
		if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
			return errors.Wrapf(err, "create schema %s", schema)
		}
	}
	statements := []string{createCompanies, createPartners, createCompanyBase, createTaxRegimes}
	statements = append(statements, createIndexes...)
	for _, sql := range statements {
		if _, err := pool.Exec(ctx, sql); err != nil {
			return errors.Wrap(err, "create schema")
		}
	}
	logger.Info("schema created")
	return nil
}

// Drop removes the schema and all loaded data.
func Drop(ctx context.Context, pool *pgxpool.Pool, logger *logrus.Logger) error {
	for _, sql := range dropStatements {
		if _, err := pool.Exec(ctx, sql); err != nil {
			return errors.Wrap(err, "drop schema")
		}
	}
	logger.Info("schema dropped")
	return nil
}
