package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"

	"ecttool/domain/category"
	"ecttool/domain/cohort"
	"ecttool/domain/core"
	"ecttool/domain/survival"
	"ecttool/internal"
	"ecttool/ports"
)

// MinStratumSize is the smallest number of rows a stratum needs to be fitted.
// Strata of this size or smaller are listed but never drawn.
const MinStratumSize = 3

// SurvivalPlotService partitions a cohort into strata and assembles the
// survival chart, annotations and risk table for one request.
type SurvivalPlotService struct {
	catalog   *category.Catalog
	estimator ports.SurvivalEstimatorPort
	tester    ports.SignificanceTesterPort
	riskTable ports.RiskTableBuilderPort
	logger    *internal.Logger
}

// PlotRequest defines the inputs of one chart
type PlotRequest struct {
	Cohort      *cohort.Table
	Mode        survival.Mode
	GroupColumn string
	GroupOrder  []string // optional, catalog order when empty
	FacetColumn string   // optional, one panel per value side by side
	FacetRow    string   // optional, one panel per value stacked
	FacetOrder  []string // optional, catalog order of the facet attribute when empty
	Title       survival.Title
}

// FacetMode reports which layout the request asks for.
func (r PlotRequest) FacetMode() survival.FacetMode {
	switch {
	case r.FacetColumn != "" && r.FacetRow != "":
		return survival.FacetGrid
	case r.FacetColumn != "":
		return survival.FacetColumn
	case r.FacetRow != "":
		return survival.FacetRow
	}
	return survival.FacetNone
}

func (r PlotRequest) facetColumn() string {
	if r.FacetColumn != "" {
		return r.FacetColumn
	}
	return r.FacetRow
}

// errSingleGroup marks a panel with nothing to compare against.
var errSingleGroup = errors.New("single group")

// panel is one facet of the chart, or the whole chart when facet is empty.
type panel struct {
	facet     string
	data      *cohort.Table
	estimates []*survival.Estimate
	followUp  []float64
}

// NewSurvivalPlotService creates a plot assembler
func NewSurvivalPlotService(catalog *category.Catalog, estimator ports.SurvivalEstimatorPort, tester ports.SignificanceTesterPort, riskTable ports.RiskTableBuilderPort, logger *internal.Logger) *SurvivalPlotService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SurvivalPlotService{
		catalog:   catalog,
		estimator: estimator,
		tester:    tester,
		riskTable: riskTable,
		logger:    logger.With("SurvivalPlot"),
	}
}

// Assemble fits one curve per eligible stratum and lays out the chart.
// Errors are returned as detected; nothing is partially drawn.
func (s *SurvivalPlotService) Assemble(ctx context.Context, req PlotRequest) (*survival.Plot, error) {
	if req.Cohort == nil {
		return nil, core.NewInvalidInputError("cohort", "no cohort table")
	}
	mode, err := survival.ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	layout := req.FacetMode()
	if layout == survival.FacetGrid {
		return nil, fmt.Errorf("%w: combined row and column facets", core.ErrNotImplemented)
	}

	groupOrder, err := s.resolveOrder(req.Cohort, req.GroupColumn, req.GroupOrder)
	if err != nil {
		return nil, err
	}
	ep := mode.Endpoint()
	data := req.Cohort.WithEndpoint(ep)
	if !req.Cohort.HasColumn(ep.TimeColumn) || !req.Cohort.HasColumn(ep.StatusColumn) {
		return nil, core.NewUnknownCategoryError("endpoint", string(mode))
	}

	panels := []*panel{{data: data}}
	facetColumn := ""
	if layout != survival.FacetNone {
		facetColumn = req.facetColumn()
		if facetColumn == req.GroupColumn {
			return nil, core.NewInvalidInputError("facet", "facet and group columns must differ")
		}
		facetOrder, err := s.resolveOrder(req.Cohort, facetColumn, req.FacetOrder)
		if err != nil {
			return nil, err
		}
		panels = panels[:0]
		for _, v := range category.Present(facetOrder, func(v string) bool { return data.Count(facetColumn, v) > 0 }) {
			panels = append(panels, &panel{facet: v, data: data.Where(facetColumn, v)})
		}
	}

	fitted := panels[:0]
	for _, p := range panels {
		if err := s.fitPanel(ctx, p, ep, req.GroupColumn, groupOrder); err != nil {
			return nil, err
		}
		if len(p.estimates) > 0 {
			fitted = append(fitted, p)
		}
	}
	if len(fitted) == 0 {
		return nil, fmt.Errorf("%w: %s by %s", core.ErrEmptyCohort, mode, req.GroupColumn)
	}

	significance := make([]survival.Significance, 0, len(fitted))
	for _, p := range fitted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := s.compare(p, ep, req.GroupColumn)
		if errors.Is(err, errSingleGroup) {
			s.logger.Debug("%s by %s: facet %q has a single drawn stratum, no comparison", mode, req.GroupColumn, p.facet)
			continue
		}
		if err != nil {
			if p.facet != "" {
				return nil, fmt.Errorf("facet %q: %w", p.facet, err)
			}
			return nil, err
		}
		significance = append(significance, survival.Significance{Facet: p.facet, Result: *result})
	}

	plot := &survival.Plot{
		Mode:         mode,
		GroupColumn:  req.GroupColumn,
		FacetColumn:  facetColumn,
		FacetMode:    layout,
		Title:        req.Title,
		Significance: significance,
		Annotations:  LayoutAnnotations(layout, facetColumn, facetLabels(fitted), significance),
	}
	s.collect(plot, fitted, groupOrder)

	s.logger.Debug("%s by %s: %d panels, %d strata", mode, req.GroupColumn, len(fitted), len(plot.Strata))
	return plot, nil
}

// resolveOrder validates column against the catalog and returns the order to
// use, either the caller's or the catalog's.
func (s *SurvivalPlotService) resolveOrder(data *cohort.Table, column string, order []string) ([]string, error) {
	if column == "" {
		return nil, core.NewInvalidInputError("column", "no column given")
	}
	if len(order) == 0 {
		catalogOrder, err := s.catalog.Order(column)
		if err != nil {
			return nil, err
		}
		order = catalogOrder
	} else if err := s.catalog.CheckOrder(column, order); err != nil {
		return nil, err
	}
	if !data.HasColumn(column) {
		return nil, core.NewUnknownCategoryError("column", column)
	}
	return order, nil
}

// fitPanel fits every stratum of the panel with more than two rows, in order.
func (s *SurvivalPlotService) fitPanel(ctx context.Context, p *panel, ep cohort.Endpoint, groupColumn string, order []string) error {
	eligible := category.Present(order, func(v string) bool {
		return p.data.Count(groupColumn, v) >= MinStratumSize
	})
	for _, value := range eligible {
		if err := ctx.Err(); err != nil {
			return err
		}
		durations, events, err := p.data.Where(groupColumn, value).Observations(ep)
		if err != nil {
			return err
		}
		est, err := s.estimator.Fit(durations, events, value)
		if err != nil {
			return err
		}
		median, _ := stats.Median(durations)
		p.estimates = append(p.estimates, est)
		p.followUp = append(p.followUp, median)
	}
	return nil
}

// compare runs the log-rank test over the strata drawn in the panel. Strata
// too small to fit stay out of the test, so it matches the curves shown. A
// panel holding a single drawn stratum is skipped rather than tested.
func (s *SurvivalPlotService) compare(p *panel, ep cohort.Endpoint, groupColumn string) (*survival.LogRankResult, error) {
	if len(p.estimates) < 2 {
		return nil, errSingleGroup
	}
	fitted := make(map[string]bool, len(p.estimates))
	for _, est := range p.estimates {
		fitted[est.Label] = true
	}
	durations, groups, events, err := p.data.GroupedObservations(ep, groupColumn)
	if err != nil {
		return nil, err
	}
	n := 0
	for i := range groups {
		if !fitted[groups[i]] {
			continue
		}
		durations[n], groups[n], events[n] = durations[i], groups[i], events[i]
		n++
	}
	return s.tester.Test(durations[:n], groups[:n], events[:n])
}

// collect flattens the fitted panels into the chart series, legend, risk
// table and stratum summaries. Colors follow legend position.
func (s *SurvivalPlotService) collect(plot *survival.Plot, panels []*panel, order []string) {
	drawn := make(map[string]bool)
	for _, p := range panels {
		for _, est := range p.estimates {
			drawn[est.Label] = true
		}
	}
	color := make(map[string]string, len(drawn))
	for _, v := range order {
		if drawn[v] {
			c := survival.ColorAt(len(plot.Series.Legend))
			color[v] = c
			plot.Series.Legend = append(plot.Series.Legend, survival.LegendEntry{Label: v, Color: c})
		}
	}

	var rows []survival.RiskRow
	for _, p := range panels {
		if p.facet != "" {
			plot.Series.Facets = append(plot.Series.Facets, p.facet)
		}
		for i, est := range p.estimates {
			for j, t := range est.Timeline {
				plot.Series.Rows = append(plot.Series.Rows, survival.SeriesRow{
					Time:     t,
					Survival: est.Survival[j],
					Stratum:  est.Label,
					Facet:    p.facet,
				})
			}

			row := s.riskTable.Row(est.Label, est.EventTable)
			row.Facet = p.facet
			rows = append(rows, row)

			summary := survival.StratumSummary{
				Label:          est.Label,
				Facet:          p.facet,
				Color:          color[est.Label],
				Subjects:       est.Subjects(),
				Events:         est.Events(),
				Censored:       est.Censored(),
				MedianFollowUp: p.followUp[i],
			}
			if m, ok := est.Median(); ok {
				summary.MedianSurvival = &m
			}
			plot.Strata = append(plot.Strata, summary)
		}
	}
	plot.RiskTable = s.riskTable.Table(rows...)
}

func facetLabels(panels []*panel) []string {
	out := make([]string, len(panels))
	for i, p := range panels {
		out[i] = p.facet
	}
	return out
}
