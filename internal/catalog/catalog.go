// Package catalog enumerates the artifacts published by the Federal Revenue
// for one monthly period of the CNPJ open-data dump.
package catalog

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultBaseURL is the Federal Revenue open-data origin.
const DefaultBaseURL = "https://arquivos.receitafederal.gov.br/dados/cnpj/dados_abertos_cnpj"

// Dataset names the logical dataset an artifact belongs to.
type Dataset string

const (
	Establishments Dataset = "establishments"
	CompaniesBase  Dataset = "companies-base"
	Partners       Dataset = "partners"
	Simples        Dataset = "simples"
	Cnaes          Dataset = "cnaes"
	Motives        Dataset = "motives"
	Municipalities Dataset = "municipalities"
	LegalNatures   Dataset = "legal-natures"
	Countries      Dataset = "countries"
	Qualifications Dataset = "qualifications"
)

// FactDatasets lists the fact datasets in the order the transformer must
// load them so foreign keys stay valid at any committed snapshot.
var FactDatasets = []Dataset{CompaniesBase, Establishments, Partners, Simples}

// LookupDatasets lists the six code tables loaded during phase A.
var LookupDatasets = []Dataset{Cnaes, Motives, Municipalities, LegalNatures, Countries, Qualifications}

// Partitions is the number of slices the origin shards each fact dump into.
const Partitions = 10

// NoPartition marks singleton artifacts.
const NoPartition = -1

// Entry is one remote artifact: where to fetch it, which dataset it feeds,
// which partition slice it is (NoPartition for singletons), and the local
// filename it is staged under. Entries are immutable after construction.
type Entry struct {
	URL       string
	Dataset   Dataset
	Partition int
	Filename  string
}

// Period is a year-month snapshot key in YYYY-MM form.
type Period string

var periodRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// CurrentPeriod derives the period from the given wall-clock time.
func CurrentPeriod(now time.Time) Period {
	return Period(now.UTC().Format("2006-01"))
}

// Validate reports whether the period is a well-formed YYYY-MM key.
func (p Period) Validate() error {
	if !periodRe.MatchString(string(p)) {
		return errors.Errorf("malformed period %q, want YYYY-MM", string(p))
	}
	return nil
}

// zipName maps a dataset and partition to the canonical upstream filename.
func zipName(ds Dataset, partition int) string {
	prefix := map[Dataset]string{
		Establishments: "Estabelecimentos",
		CompaniesBase:  "Empresas",
		Partners:       "Socios",
		Simples:        "Simples",
		Cnaes:          "Cnaes",
		Motives:        "Motivos",
		Municipalities: "Municipios",
		LegalNatures:   "Naturezas",
		Countries:      "Paises",
		Qualifications: "Qualificacoes",
	}[ds]

	if partition == NoPartition {
		return prefix + ".zip"
	}
	return fmt.Sprintf("%s%d.zip", prefix, partition)
}

// Catalog produces the fixed 37-entry artifact list for the given period:
// ten partitions each of establishments, companies-base and partners, then
// the seven singletons. Filename is the final path segment of the URL.
func Catalog(baseURL string, period Period) ([]Entry, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(baseURL, "/")

	entries := make([]Entry, 0, 37)
	add := func(ds Dataset, partition int) {
		name := zipName(ds, partition)
		entries = append(entries, Entry{
			URL:       fmt.Sprintf("%s/%s/%s", base, period, name),
			Dataset:   ds,
			Partition: partition,
			Filename:  name,
		})
	}

	for _, ds := range []Dataset{Establishments, CompaniesBase, Partners} {
		for i := 0; i < Partitions; i++ {
			add(ds, i)
		}
	}
	for _, ds := range []Dataset{Cnaes, Motives, Municipalities, LegalNatures, Countries, Qualifications, Simples} {
		add(ds, NoPartition)
	}

	return entries, nil
}

// ZipNames returns the canonical archive filenames of one dataset in
// partition order, independent of period. Local staging directories use
// these names.
func ZipNames(ds Dataset) []string {
	for _, lookup := range LookupDatasets {
		if ds == lookup {
			return []string{zipName(ds, NoPartition)}
		}
	}
	if ds == Simples {
		return []string{zipName(ds, NoPartition)}
	}
	names := make([]string, 0, Partitions)
	for i := 0; i < Partitions; i++ {
		names = append(names, zipName(ds, i))
	}
	return names
}

// Filenames returns the local filenames for the entries of one dataset, in
// partition order.
func Filenames(entries []Entry, ds Dataset) []string {
	var names []string
	for _, e := range entries {
		if e.Dataset == ds {
			names = append(names, e.Filename)
		}
	}
	return names
}
