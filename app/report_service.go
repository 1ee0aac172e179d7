package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ecttool/domain/category"
	"ecttool/domain/cohort"
	"ecttool/domain/core"
	"ecttool/domain/survival"
	"ecttool/internal"
	"ecttool/internal/metrics"
)

// Report kinds, used as metric labels
const (
	KindCategory   = "category"
	KindOverview   = "overview"
	KindPopulation = "population"
)

// ReportService composes survival charts and population histograms into the
// pages users ask for.
type ReportService struct {
	catalog    *category.Catalog
	plots      *SurvivalPlotService
	population *PopulationService
	workers    int
	logger     *internal.Logger
}

// CategoryReportRequest asks for one clinical attribute across the cohort
type CategoryReportRequest struct {
	Mode        survival.Mode
	Category    string
	FacetColumn string
	FacetRow    string
}

// CategoryReport is the survival chart and population histogram of one
// clinical attribute
type CategoryReport struct {
	ID            core.ID                `json:"id"`
	Mode          survival.Mode          `json:"mode"`
	ModeTitle     string                 `json:"mode_title"`
	Category      string                 `json:"category"`
	CategoryTitle string                 `json:"category_title"`
	Subcategories []category.Subcategory `json:"subcategories"`
	Uncatalogued  []string               `json:"uncatalogued,omitempty"` // values in the data the catalog does not list
	Survival      *survival.Plot         `json:"survival"`
	Population    *survival.CountSeries  `json:"population"`
	RuntimeMs     int64                  `json:"runtime_ms"`
}

// OverviewRequest asks for every other attribute within one subcategory
type OverviewRequest struct {
	Mode        survival.Mode
	Category    string
	Subcategory string
	Targets     []string // optional, every catalog attribute when empty
}

// OverviewPanel is one target attribute of an overview
type OverviewPanel struct {
	Category      string                `json:"category"`
	CategoryTitle string                `json:"category_title"`
	Survival      *survival.Plot        `json:"survival"`
	Population    *survival.CountSeries `json:"population"`
}

// Overview breaks one subcategory down by every other attribute
type Overview struct {
	ID               core.ID         `json:"id"`
	Mode             survival.Mode   `json:"mode"`
	ModeTitle        string          `json:"mode_title"`
	Category         string          `json:"category"`
	Subcategory      string          `json:"subcategory"`
	SubcategoryTitle string          `json:"subcategory_title"`
	Patients         int             `json:"patients"`
	Panels           []OverviewPanel `json:"panels"`
	RuntimeMs        int64           `json:"runtime_ms"`
}

// NewReportService creates a report composer. workers bounds how many
// overview panels are built at once.
func NewReportService(catalog *category.Catalog, plots *SurvivalPlotService, population *PopulationService, workers int, logger *internal.Logger) *ReportService {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ReportService{
		catalog:    catalog,
		plots:      plots,
		population: population,
		workers:    workers,
		logger:     logger.With("Report"),
	}
}

// Catalog returns the category metadata the service was built with.
func (s *ReportService) Catalog() *category.Catalog {
	return s.catalog
}

// CategoryReport builds the chart of one attribute over the whole cohort.
func (s *ReportService) CategoryReport(ctx context.Context, data *cohort.Table, req CategoryReportRequest) (report *CategoryReport, err error) {
	start := time.Now()
	defer func() { metrics.ObserveReport(KindCategory, time.Since(start), err) }()

	modeTitle, err := s.modeTitle(req.Mode)
	if err != nil {
		return nil, err
	}
	attr, err := s.catalog.Attribute(req.Category)
	if err != nil {
		return nil, err
	}

	plot, err := s.plots.Assemble(ctx, PlotRequest{
		Cohort:      data,
		Mode:        req.Mode,
		GroupColumn: attr.Key,
		FacetColumn: req.FacetColumn,
		FacetRow:    req.FacetRow,
		Title:       survival.Title{Main: "EC " + modeTitle, Sub: "by " + attr.Label},
	})
	if err != nil {
		return nil, err
	}
	hist, err := s.population.Histogram(HistogramRequest{
		Cohort: data,
		Column: attr.Key,
		Title:  survival.Title{Main: "EC Population", Sub: "by " + attr.Label},
	})
	if err != nil {
		return nil, err
	}

	report = &CategoryReport{
		ID:            core.NewID(),
		Mode:          req.Mode,
		ModeTitle:     modeTitle,
		Category:      attr.Key,
		CategoryTitle: attr.Label,
		Subcategories: attr.Subcategories,
		Uncatalogued:  uncatalogued(data, attr),
		Survival:      plot,
		Population:    hist,
		RuntimeMs:     time.Since(start).Milliseconds(),
	}
	if len(report.Uncatalogued) > 0 {
		s.logger.Warn("category report %s: %s values left out of every chart: %v", report.ID, attr.Key, report.Uncatalogued)
	}
	s.logger.Info("category report %s: %s by %s, %d strata", report.ID, req.Mode, attr.Key, len(plot.Strata))
	return report, nil
}

// Population counts the whole cohort by one attribute in catalog order.
func (s *ReportService) Population(data *cohort.Table, categoryKey string) (series *survival.CountSeries, err error) {
	start := time.Now()
	defer func() { metrics.ObserveReport(KindPopulation, time.Since(start), err) }()

	label, err := s.catalog.Label(categoryKey)
	if err != nil {
		return nil, err
	}
	return s.population.Histogram(HistogramRequest{
		Cohort: data,
		Column: categoryKey,
		Title:  survival.Title{Main: "EC Population", Sub: "by " + label},
	})
}

// Overview restricts the cohort to one subcategory and charts it by every
// target attribute. Panels keep target order.
func (s *ReportService) Overview(ctx context.Context, data *cohort.Table, req OverviewRequest) (overview *Overview, err error) {
	start := time.Now()
	defer func() { metrics.ObserveReport(KindOverview, time.Since(start), err) }()

	modeTitle, err := s.modeTitle(req.Mode)
	if err != nil {
		return nil, err
	}
	attr, err := s.catalog.Attribute(req.Category)
	if err != nil {
		return nil, err
	}
	if !attr.Has(req.Subcategory) {
		return nil, core.NewUnknownCategoryError("subcategory", req.Category+"="+req.Subcategory)
	}
	if data == nil {
		return nil, core.NewInvalidInputError("cohort", "no cohort table")
	}
	if !data.HasColumn(attr.Key) {
		return nil, core.NewUnknownCategoryError("column", attr.Key)
	}

	targets, err := s.overviewTargets(attr.Key, req.Targets)
	if err != nil {
		return nil, err
	}
	subTitle, err := s.subcategoryTitle(attr, req.Subcategory)
	if err != nil {
		return nil, err
	}
	subset := data.Where(attr.Key, req.Subcategory)
	mode, err := survival.ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	withEndpoint := subset.WithEndpoint(mode.Endpoint())

	panels := make([]OverviewPanel, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, target := range targets {
		g.Go(func() error {
			p, err := s.overviewPanel(gctx, subset, withEndpoint, mode, modeTitle, subTitle, target)
			if err != nil {
				return fmt.Errorf("%s: %w", target, err)
			}
			panels[i] = *p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	overview = &Overview{
		ID:               core.NewID(),
		Mode:             mode,
		ModeTitle:        modeTitle,
		Category:         attr.Key,
		Subcategory:      req.Subcategory,
		SubcategoryTitle: subTitle,
		Patients:         subset.Len(),
		Panels:           panels,
		RuntimeMs:        time.Since(start).Milliseconds(),
	}
	s.logger.Info("overview %s: %s %s=%s, %d panels", overview.ID, mode, attr.Key, req.Subcategory, len(panels))
	return overview, nil
}

// overviewPanel charts subset by target. The order is narrowed to the strata
// that will actually be fitted so chart and histogram line up.
func (s *ReportService) overviewPanel(ctx context.Context, subset, withEndpoint *cohort.Table, mode survival.Mode, modeTitle, subTitle, target string) (*OverviewPanel, error) {
	attr, err := s.catalog.Attribute(target)
	if err != nil {
		return nil, err
	}
	if !subset.HasColumn(target) {
		return nil, core.NewUnknownCategoryError("column", target)
	}
	eligible := category.Present(attr.Values(), func(v string) bool {
		return withEndpoint.Count(target, v) >= MinStratumSize
	})
	if len(eligible) == 0 {
		return nil, fmt.Errorf("%w: %s by %s", core.ErrEmptyCohort, mode, target)
	}

	plot, err := s.plots.Assemble(ctx, PlotRequest{
		Cohort:      subset,
		Mode:        mode,
		GroupColumn: target,
		GroupOrder:  eligible,
		Title:       survival.Title{Main: "EC " + subTitle + " " + modeTitle, Sub: "by " + attr.Label},
	})
	if err != nil {
		return nil, err
	}
	hist, err := s.population.Histogram(HistogramRequest{
		Cohort: subset,
		Column: target,
		Order:  eligible,
		Title:  survival.Title{Main: "EC " + subTitle + " Population", Sub: "by " + attr.Label},
	})
	if err != nil {
		return nil, err
	}
	return &OverviewPanel{
		Category:      target,
		CategoryTitle: attr.Label,
		Survival:      plot,
		Population:    hist,
	}, nil
}

func (s *ReportService) overviewTargets(exclude string, requested []string) ([]string, error) {
	if len(requested) == 0 {
		requested = s.catalog.Keys()
	}
	targets := make([]string, 0, len(requested))
	seen := make(map[string]bool, len(requested))
	for _, t := range requested {
		if _, err := s.catalog.Attribute(t); err != nil {
			return nil, err
		}
		if t == exclude || seen[t] {
			continue
		}
		seen[t] = true
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		return nil, core.NewInvalidInputError("targets", "no attribute left to break down by")
	}
	return targets, nil
}

// uncatalogued lists the values of attr's column that the catalog does not
// know, in first-seen order.
func uncatalogued(data *cohort.Table, attr category.Attribute) []string {
	var out []string
	for _, v := range data.Distinct(attr.Key) {
		if !attr.Has(v) {
			out = append(out, v)
		}
	}
	return out
}

// subcategoryTitle names a subcategory in titles. Yes/no values say nothing on
// their own, so they are qualified with the attribute label.
func (s *ReportService) subcategoryTitle(attr category.Attribute, value string) (string, error) {
	label, err := s.catalog.SubcategoryLabel(attr.Key, value)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(value) {
	case "yes", "no":
		return fmt.Sprintf("%s (%s)", attr.Label, label), nil
	}
	return label, nil
}

func (s *ReportService) modeTitle(m survival.Mode) (string, error) {
	mode, err := survival.ParseMode(string(m))
	if err != nil {
		return "", err
	}
	entry, err := s.catalog.Mode(string(mode))
	if err != nil {
		return "", err
	}
	return entry.Label, nil
}
