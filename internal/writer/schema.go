package writer

import (
	"github.com/pkg/errors"

	"github.com/nexconsult/cnpj-etl/internal/catalog"
	"github.com/nexconsult/cnpj-etl/internal/models"
)

// target names the physical destination of one dataset. The base registry
// and tax regimes land in staging tables that Commit folds into companies.
type target struct {
	Table   string
	Columns []string
}

var targets = map[catalog.Dataset]target{
	catalog.CompaniesBase:  {Table: "company_base", Columns: models.CompanyBaseColumns},
	catalog.Establishments: {Table: "companies", Columns: models.CompanyColumns},
	catalog.Partners:       {Table: "partners", Columns: models.PartnerColumns},
	catalog.Simples:        {Table: "tax_regimes", Columns: models.TaxRegimeColumns},
}

func targetFor(ds catalog.Dataset) (target, error) {
	t, ok := targets[ds]
	if !ok {
		return target{}, errors.Errorf("no table for dataset %s", ds)
	}
	return t, nil
}
