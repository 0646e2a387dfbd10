package writer

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/cnpj-etl/internal/catalog"
)

// CSVWriter lands each dataset as a headered, comma-separated file under a
// single output directory. Files are written atomically: the stream goes to
// a .tmp sibling that Commit renames into place, so an aborted run leaves no
// half-written dataset behind.
type CSVWriter struct {
	sequence

	dir    string
	logger *logrus.Logger

	file *os.File
	w    *csv.Writer

	tmpPaths map[string]string
}

func NewCSVWriter(dir string, logger *logrus.Logger) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create output dir")
	}
	return &CSVWriter{dir: dir, logger: logger, tmpPaths: make(map[string]string)}, nil
}

func (c *CSVWriter) BeginDataset(_ context.Context, ds catalog.Dataset) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ds); err != nil {
		return err
	}
	t, err := targetFor(ds)
	if err != nil {
		return err
	}

	final := filepath.Join(c.dir, t.Table+".csv")
	tmp := final + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}
	c.file = f
	c.w = csv.NewWriter(f)
	c.tmpPaths[tmp] = final
	return c.w.Write(t.Columns)
}

func (c *CSVWriter) WriteBatch(_ context.Context, batch Batch) (int, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.write(batch.Dataset); err != nil {
		return 0, 0, err
	}
	for _, rec := range batch.Records {
		row := make([]string, 0, len(rec.Values()))
		for _, v := range rec.Values() {
			row = append(row, formatValue(v))
		}
		if err := c.w.Write(row); err != nil {
			return 0, 0, errors.Wrap(err, "write row")
		}
	}
	return len(batch.Records), 0, nil
}

func (c *CSVWriter) EndDataset(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.end(); err != nil {
		return err
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return errors.Wrap(err, "flush csv")
	}
	if err := c.file.Close(); err != nil {
		return errors.Wrap(err, "close csv")
	}
	c.file, c.w = nil, nil
	return nil
}

func (c *CSVWriter) Commit(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.finish(); err != nil {
		return err
	}
	for tmp, final := range c.tmpPaths {
		if err := os.Rename(tmp, final); err != nil {
			return errors.Wrapf(err, "publish %s", final)
		}
	}
	c.logger.WithField("dir", c.dir).Info("csv output committed")
	return nil
}

func (c *CSVWriter) Abort(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file != nil {
		c.file.Close()
		c.file, c.w = nil, nil
	}
	for tmp := range c.tmpPaths {
		os.Remove(tmp)
	}
	c.state = stateDone
	return nil
}

// formatValue renders one record value for CSV output. Null pointers render
// as empty cells; dates use ISO form.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case *int:
		if x == nil {
			return ""
		}
		return fmt.Sprintf("%d", *x)
	case *bool:
		if x == nil {
			return ""
		}
		if *x {
			return "true"
		}
		return "false"
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", x)
	}
}
