package writer

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/cnpj-etl/internal/catalog"
	"github.com/nexconsult/cnpj-etl/internal/db"
)

// PostgresWriter streams batches into Postgres. Each dataset loads inside
// its own transaction via COPY; a batch that COPY rejects is retried row by
// row under savepoints so one bad row costs one row, not the batch. Commit
// folds the company_base and tax_regimes staging tables into companies with
// set-based updates, keeping the merge memory-bounded on the server.
type PostgresWriter struct {
	sequence

	pool   *pgxpool.Pool
	logger *logrus.Logger

	tx     pgx.Tx
	target target
}

func NewPostgresWriter(ctx context.Context, databaseURL, schema string, logger *logrus.Logger) (*PostgresWriter, error) {
	pool, err := db.Connect(ctx, databaseURL, schema)
	if err != nil {
		return nil, err
	}
	return &PostgresWriter{pool: pool, logger: logger}, nil
}

func (p *PostgresWriter) BeginDataset(ctx context.Context, ds catalog.Dataset) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ds); err != nil {
		return err
	}
	t, err := targetFor(ds)
	if err != nil {
		return err
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE %s CASCADE", t.Table)); err != nil {
		tx.Rollback(ctx)
		return errors.Wrapf(err, "truncate %s", t.Table)
	}
	p.tx = tx
	p.target = t
	p.logger.WithFields(logrus.Fields{"dataset": ds, "table": t.Table}).Info("dataset load started")
	return nil
}

func (p *PostgresWriter) WriteBatch(ctx context.Context, batch Batch) (int, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.write(batch.Dataset); err != nil {
		return 0, 0, err
	}
	rows := make([][]any, 0, len(batch.Records))
	for _, rec := range batch.Records {
		rows = append(rows, rec.Values())
	}

	if _, err := p.tx.Exec(ctx, "SAVEPOINT batch"); err != nil {
		return 0, 0, errors.Wrap(err, "savepoint")
	}
	n, err := p.tx.CopyFrom(ctx, pgx.Identifier{p.target.Table}, p.target.Columns, pgx.CopyFromRows(rows))
	if err == nil {
		return int(n), 0, nil
	}

	// COPY is all-or-nothing; fall back to per-row inserts so only the
	// offending rows are lost.
	if _, rbErr := p.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT batch"); rbErr != nil {
		return 0, 0, errors.Wrap(rbErr, "rollback batch savepoint")
	}
	p.logger.WithError(err).WithField("table", p.target.Table).Warn("copy rejected, retrying batch row by row")
	return p.writeRows(ctx, rows)
}

func (p *PostgresWriter) writeRows(ctx context.Context, rows [][]any) (int, int, error) {
	sql := insertSQL(p.target)
	var written, failed int
	for _, row := range rows {
		if _, err := p.tx.Exec(ctx, "SAVEPOINT row"); err != nil {
			return written, failed, errors.Wrap(err, "savepoint")
		}
		if _, err := p.tx.Exec(ctx, sql, row...); err != nil {
			if _, rbErr := p.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT row"); rbErr != nil {
				return written, failed, errors.Wrap(rbErr, "rollback row savepoint")
			}
			failed++
			continue
		}
		written++
	}
	return written, failed, nil
}

func (p *PostgresWriter) EndDataset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.end(); err != nil {
		return err
	}
	if err := p.tx.Commit(ctx); err != nil {
		return errors.Wrapf(err, "commit %s", p.target.Table)
	}
	p.tx = nil
	return nil
}

// foldCompanyBase and foldTaxRegimes merge the staging tables onto the
// companies rows sharing the same 8-digit CNPJ root.
const foldCompanyBase = `
UPDATE companies c SET
    razao_social                = b.razao_social,
    codigo_natureza_juridica    = b.codigo_natureza_juridica,
    natureza_juridica           = b.natureza_juridica,
    qualificacao_do_responsavel = b.qualificacao_do_responsavel,
    capital_social              = b.capital_social::numeric,
    codigo_porte                = b.codigo_porte,
    porte                       = b.porte,
    ente_federativo_responsavel = b.ente_federativo_responsavel
FROM company_base b
WHERE left(c.cnpj, 8) = b.cnpj_basico`

const foldTaxRegimes = `
UPDATE companies c SET
    opcao_pelo_simples       = t.opcao_pelo_simples,
    data_opcao_pelo_simples  = t.data_opcao_pelo_simples,
    data_exclusao_do_simples = t.data_exclusao_do_simples,
    opcao_pelo_mei           = t.opcao_pelo_mei,
    data_opcao_pelo_mei      = t.data_opcao_pelo_mei,
    data_exclusao_do_mei     = t.data_exclusao_do_mei
FROM tax_regimes t
WHERE left(c.cnpj, 8) = t.cnpj_basico`

func (p *PostgresWriter) Commit(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.finish(); err != nil {
		return err
	}
	for name, sql := range map[string]string{
		"company_base": foldCompanyBase,
		"tax_regimes":  foldTaxRegimes,
	} {
		tag, err := p.pool.Exec(ctx, sql)
		if err != nil {
			return errors.Wrapf(err, "fold %s", name)
		}
		p.logger.WithFields(logrus.Fields{"staging": name, "rows": tag.RowsAffected()}).Info("staging table folded")
		if _, err := p.pool.Exec(ctx, fmt.Sprintf("TRUNCATE %s", name)); err != nil {
			return errors.Wrapf(err, "truncate %s", name)
		}
	}
	return nil
}

func (p *PostgresWriter) Abort(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tx != nil {
		p.tx.Rollback(ctx)
		p.tx = nil
	}
	p.state = stateDone
	return nil
}

func (p *PostgresWriter) Close() {
	p.pool.Close()
}

func insertSQL(t target) string {
	placeholders := make([]string, len(t.Columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Table, strings.Join(t.Columns, ", "), strings.Join(placeholders, ", "))
}
