package ports

import (
	"context"

	"ecttool/domain/category"
	"ecttool/domain/cohort"
)

// CohortReaderPort loads the cohort table once at startup.
// The returned table is shared read-only by every request.
type CohortReaderPort interface {
	ReadCohort(ctx context.Context) (*cohort.Table, error)
}

// CatalogLoaderPort loads the category metadata
type CatalogLoaderPort interface {
	LoadCatalog() (*category.Catalog, error)
}
