// Package transform turns the downloaded archives into enriched relational
// records and streams them into a writer sink.
package transform

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nexconsult/cnpj-etl/internal/archive"
	"github.com/nexconsult/cnpj-etl/internal/catalog"
	"github.com/nexconsult/cnpj-etl/internal/config"
	"github.com/nexconsult/cnpj-etl/internal/lookup"
	"github.com/nexconsult/cnpj-etl/internal/writer"
)

// DatasetStats are the per-dataset counters reported after a run. Read
// always equals Written plus Rejected plus Failed.
type DatasetStats struct {
	Read     int64
	Written  int64
	Rejected int64
	Failed   int64
}

// Transformer drives the two-phase load: phase A extracts and loads the six
// lookup tables, phase B streams the fact datasets in dependency order
// through partition workers into a single writer goroutine.
type Transformer struct {
	cfg    config.TransformConfig
	sink   writer.Writer
	logger *logrus.Logger

	stats map[catalog.Dataset]*DatasetStats
}

func New(cfg config.TransformConfig, sink writer.Writer, logger *logrus.Logger) (*Transformer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Transformer{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		stats:  make(map[catalog.Dataset]*DatasetStats),
	}, nil
}

// Stats returns the counters of the last Run.
func (t *Transformer) Stats() map[catalog.Dataset]DatasetStats {
	out := make(map[catalog.Dataset]DatasetStats, len(t.stats))
	for ds, s := range t.stats {
		out[ds] = *s
	}
	return out
}

// Run executes the full transform. Any error aborts the sink so no partial
// snapshot is published.
func (t *Transformer) Run(ctx context.Context) error {
	if err := t.run(ctx); err != nil {
		t.sink.Abort(context.WithoutCancel(ctx))
		return err
	}
	return t.sink.Commit(ctx)
}

func (t *Transformer) run(ctx context.Context) error {
	lookups, err := t.loadLookups(ctx)
	if err != nil {
		return err
	}
	parser := NewParser(lookups, t.cfg.PrivacyMode)

	for _, ds := range catalog.FactDatasets {
		if err := t.processDataset(ctx, ds, parser); err != nil {
			return errors.Wrapf(err, "dataset %s", ds)
		}
	}
	return nil
}

// loadLookups extracts the six singleton lookup archives and loads their
// code tables. A missing table is fatal: enrichment cannot proceed without
// the complete set.
func (t *Transformer) loadLookups(ctx context.Context) (*lookup.Lookups, error) {
	files := make(map[catalog.Dataset][]string, len(catalog.LookupDatasets))
	for _, ds := range catalog.LookupDatasets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		extracted, err := t.extract(ds, catalog.ZipNames(ds)[0])
		if err != nil {
			return nil, err
		}
		files[ds] = extracted
	}
	return lookup.Load(files, t.logger)
}

// extract unpacks one archive into the dataset's staging directory and
// returns the extracted file paths.
func (t *Transformer) extract(ds catalog.Dataset, zipName string) ([]string, error) {
	src := filepath.Join(t.cfg.DataDir, zipName)
	dest := filepath.Join(t.cfg.DataDir, "staging", string(ds))
	if err := archive.ExtractZip(src, dest); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		return nil, errors.Wrap(err, "read staging dir")
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() {
			paths = append(paths, filepath.Join(dest, e.Name()))
		}
	}
	return paths, nil
}

// processDataset streams one fact dataset: partition workers parse rows into
// batches feeding a bounded channel; a single goroutine drains it into the
// sink, keeping writer calls serialized and memory bounded.
func (t *Transformer) processDataset(ctx context.Context, ds catalog.Dataset, parser *Parser) error {
	stats := &DatasetStats{}
	t.stats[ds] = stats

	if err := t.sink.BeginDataset(ctx, ds); err != nil {
		return err
	}

	var read, rejected atomic.Int64
	batches := make(chan writer.Batch, t.cfg.QueueDepth)

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	sinkErr := make(chan error, 1)
	go func() {
		defer close(sinkErr)
		for batch := range batches {
			written, failed, err := t.sink.WriteBatch(ctx, batch)
			stats.Written += int64(written)
			stats.Failed += int64(failed)
			if err != nil {
				sinkErr <- err
				// Stop the workers and drain so none block on a dead sink.
				cancelWorkers()
				for range batches {
				}
				return
			}
		}
	}()

	g, gctx := errgroup.WithContext(workerCtx)
	g.SetLimit(t.cfg.MaxParallel)
	for _, zipName := range catalog.ZipNames(ds) {
		zipName := zipName
		g.Go(func() error {
			return t.processPartition(gctx, ds, zipName, parser, batches, &read, &rejected)
		})
	}
	workerErr := g.Wait()
	close(batches)
	writeErr := <-sinkErr

	stats.Read = read.Load()
	stats.Rejected = rejected.Load()

	// A sink failure cancels the workers, so report it ahead of the
	// cancellation errors it induced.
	if writeErr != nil {
		return errors.Wrap(writeErr, "write batch")
	}
	if workerErr != nil {
		return workerErr
	}
	if err := t.sink.EndDataset(ctx); err != nil {
		return err
	}
	t.logger.WithFields(logrus.Fields{
		"dataset":  ds,
		"read":     stats.Read,
		"written":  stats.Written,
		"rejected": stats.Rejected,
		"failed":   stats.Failed,
	}).Info("dataset loaded")
	return nil
}

// processPartition extracts one archive and parses every file inside it.
func (t *Transformer) processPartition(ctx context.Context, ds catalog.Dataset, zipName string, parser *Parser, batches chan<- writer.Batch, read, rejected *atomic.Int64) error {
	src := filepath.Join(t.cfg.DataDir, zipName)
	dest := filepath.Join(t.cfg.DataDir, "staging", string(ds), zipName[:len(zipName)-len(".zip")])
	if err := archive.ExtractZip(src, dest); err != nil {
		return err
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		return errors.Wrap(err, "read staging dir")
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() {
			continue
		}
		if err := t.processFile(ctx, ds, filepath.Join(dest, e.Name()), parser, batches, read, rejected); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transformer) processFile(ctx context.Context, ds catalog.Dataset, path string, parser *Parser, batches chan<- writer.Batch, read, rejected *atomic.Int64) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open csv")
	}
	defer f.Close()

	r := csv.NewReader(lookup.DecodeReader(f))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	batch := writer.Batch{Dataset: ds, Records: make([]writer.Record, 0, t.cfg.BatchSize)}
	flush := func() error {
		if len(batch.Records) == 0 {
			return nil
		}
		select {
		case batches <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
		batch = writer.Batch{Dataset: ds, Records: make([]writer.Record, 0, t.cfg.BatchSize)}
		return nil
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A row the csv reader cannot tokenize is a rejected row, not a
			// fatal file error.
			read.Add(1)
			rejected.Add(1)
			continue
		}
		read.Add(1)

		rec, err := t.parseRow(ds, parser, row)
		if err != nil {
			rejected.Add(1)
			t.logger.WithError(err).WithField("dataset", ds).Debug("row rejected")
			continue
		}
		batch.Records = append(batch.Records, rec)
		if len(batch.Records) >= t.cfg.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func (t *Transformer) parseRow(ds catalog.Dataset, parser *Parser, row []string) (writer.Record, error) {
	switch ds {
	case catalog.Establishments:
		return parser.ParseEstablishment(row)
	case catalog.CompaniesBase:
		return parser.ParseCompanyBase(row)
	case catalog.Partners:
		return parser.ParsePartner(row)
	case catalog.Simples:
		return parser.ParseTaxRegime(row)
	default:
		return nil, errors.Errorf("no parser for dataset %s", ds)
	}
}
