package container

import (
	"context"
	"fmt"

	"ecttool/adapters/catalog"
	"ecttool/adapters/excel"
	"ecttool/adapters/stats/lifetable"
	"ecttool/app"
	"ecttool/domain/category"
	"ecttool/domain/cohort"
	"ecttool/internal"
	"ecttool/internal/config"
	"ecttool/internal/metrics"
	"ecttool/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Options selects the data sources and analysis settings
type Options struct {
	CohortFile      string
	CohortSheet     string
	CatalogFile     string // empty selects the built-in catalog
	ConfidenceLevel float64
	OverviewWorkers int
	Logger          *internal.Logger
}

// Container holds all application dependencies
type Container struct {
	Logger *internal.Logger

	// Read-only data shared by every request
	Catalog *category.Catalog
	Cohort  *cohort.Table

	// Statistical adapters
	Estimator ports.SurvivalEstimatorPort
	Tester    ports.SignificanceTesterPort
	RiskTable ports.RiskTableBuilderPort

	// Services
	Plots      *app.SurvivalPlotService
	Population *app.PopulationService
	Reports    *app.ReportService

	Registry *prometheus.Registry
}

// FromConfig builds a container from environment configuration
func FromConfig(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return New(ctx, Options{
		CohortFile:      cfg.Data.CohortFile,
		CohortSheet:     cfg.Data.CohortSheet,
		CatalogFile:     cfg.Data.CatalogFile,
		ConfidenceLevel: cfg.Analysis.ConfidenceLevel,
		OverviewWorkers: cfg.Analysis.OverviewWorkers,
		Logger:          logger,
	})
}

// New loads the catalog and cohort and wires the services over them
func New(ctx context.Context, opts Options) (*Container, error) {
	logger := opts.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if opts.ConfidenceLevel == 0 {
		opts.ConfidenceLevel = lifetable.DefaultConfidenceLevel
	}

	cat, err := LoadCatalog(opts.CatalogFile)
	if err != nil {
		return nil, err
	}

	readerConfig := excel.DefaultReaderConfig(opts.CohortFile)
	if opts.CohortSheet != "" {
		readerConfig.Sheet = opts.CohortSheet
	}
	data, err := loadCohort(ctx, excel.NewCohortReader(readerConfig, logger))
	if err != nil {
		return nil, err
	}

	estimator, err := lifetable.NewKaplanMeierWithLevel(opts.ConfidenceLevel)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Logger:    logger,
		Catalog:   cat,
		Cohort:    data,
		Estimator: estimator,
		Tester:    lifetable.NewLogRankTest(),
		RiskTable: lifetable.RiskTableBuilder{},
	}
	c.Plots = app.NewSurvivalPlotService(cat, c.Estimator, c.Tester, c.RiskTable, logger)
	c.Population = app.NewPopulationService(cat)
	c.Reports = app.NewReportService(cat, c.Plots, c.Population, opts.OverviewWorkers, logger)

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(c.Registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	logger.With("Container").Info("%d patients, %d attributes, %.0f%% confidence bands",
		data.Len(), len(cat.Keys()), 100*estimator.ConfidenceLevel())
	return c, nil
}

// Status summarises the loaded data for health checks
func (c *Container) Status() map[string]interface{} {
	return map[string]interface{}{
		"patients":   c.Cohort.Len(),
		"attributes": len(c.Catalog.Keys()),
	}
}

// LoadCatalog reads category metadata from path, or the built-in catalog
// when path is empty.
func LoadCatalog(path string) (*category.Catalog, error) {
	return loadCatalog(catalog.NewLoader(path))
}

func loadCatalog(loader ports.CatalogLoaderPort) (*category.Catalog, error) {
	cat, err := loader.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load category metadata: %w", err)
	}
	return cat, nil
}

func loadCohort(ctx context.Context, reader ports.CohortReaderPort) (*cohort.Table, error) {
	data, err := reader.ReadCohort(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cohort: %w", err)
	}
	return data, nil
}
