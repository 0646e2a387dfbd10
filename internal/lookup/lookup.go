// Package lookup loads the six small code tables distributed alongside the
// fact dumps and exposes them as immutable code-to-label maps.
package lookup

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/cnpj-etl/internal/catalog"
)

// Lookups holds the shared read-only code tables. Built once during phase A
// of the transform and handed out by reference; never mutated afterwards.
type Lookups struct {
	tables map[catalog.Dataset]map[int]string
}

// Load parses the extracted CSV files of each lookup dataset. The files map
// carries, per dataset, the paths of its extracted table files.
func Load(files map[catalog.Dataset][]string, logger *logrus.Logger) (*Lookups, error) {
	l := &Lookups{tables: make(map[catalog.Dataset]map[int]string, len(catalog.LookupDatasets))}

	for _, ds := range catalog.LookupDatasets {
		paths := files[ds]
		if len(paths) == 0 {
			return nil, errors.Errorf("no table files for lookup %s", ds)
		}

		table := make(map[int]string)
		for _, path := range paths {
			if err := loadTable(table, path); err != nil {
				return nil, errors.Wrapf(err, "loading lookup %s", ds)
			}
		}
		l.tables[ds] = table

		logger.WithFields(logrus.Fields{
			"lookup":  ds,
			"entries": len(table),
		}).Info("Lookup table loaded")
	}

	return l, nil
}

// loadTable reads one semicolon-separated, headerless, two-column file into
// table. Wider rows are tolerated; only the first two columns are used.
func loadTable(table map[int]string, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(DecodeReader(f))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading table row")
		}
		if len(row) < 2 {
			continue
		}

		code, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}
		table[code] = strings.TrimSpace(row[1])
	}
}

// Get resolves a code in the named table. The second return is false when
// the code has no entry; callers surface that as a null label, never a
// fabricated string.
func (l *Lookups) Get(ds catalog.Dataset, code int) (string, bool) {
	label, ok := l.tables[ds][code]
	return label, ok
}

// Len returns the number of entries in the named table.
func (l *Lookups) Len(ds catalog.Dataset) int {
	return len(l.tables[ds])
}

// Convenience getters for the individual tables.

func (l *Lookups) CNAE(code int) (string, bool)          { return l.Get(catalog.Cnaes, code) }
func (l *Lookups) Motive(code int) (string, bool)        { return l.Get(catalog.Motives, code) }
func (l *Lookups) Municipality(code int) (string, bool)  { return l.Get(catalog.Municipalities, code) }
func (l *Lookups) LegalNature(code int) (string, bool)   { return l.Get(catalog.LegalNatures, code) }
func (l *Lookups) Country(code int) (string, bool)       { return l.Get(catalog.Countries, code) }
func (l *Lookups) Qualification(code int) (string, bool) { return l.Get(catalog.Qualifications, code) }
