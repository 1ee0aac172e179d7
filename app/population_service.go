package app

import (
	"ecttool/domain/category"
	"ecttool/domain/cohort"
	"ecttool/domain/core"
	"ecttool/domain/survival"
)

// PopulationService builds count-by-category bar summaries.
type PopulationService struct {
	catalog *category.Catalog
}

// HistogramRequest defines the inputs of one bar chart
type HistogramRequest struct {
	Cohort *cohort.Table
	Column string
	Order  []string // optional, catalog order when empty
	Title  survival.Title
}

// NewPopulationService creates a histogram builder
func NewPopulationService(catalog *category.Catalog) *PopulationService {
	return &PopulationService{catalog: catalog}
}

// Histogram counts rows per value in order. Values absent from the cohort are
// left out rather than drawn as empty bars; colors follow bar position.
func (s *PopulationService) Histogram(req HistogramRequest) (*survival.CountSeries, error) {
	if req.Cohort == nil {
		return nil, core.NewInvalidInputError("cohort", "no cohort table")
	}
	attr, err := s.catalog.Attribute(req.Column)
	if err != nil {
		return nil, err
	}
	order := req.Order
	if len(order) == 0 {
		order = attr.Values()
	} else if err := s.catalog.CheckOrder(req.Column, order); err != nil {
		return nil, err
	}
	if !req.Cohort.HasColumn(req.Column) {
		return nil, core.NewUnknownCategoryError("column", req.Column)
	}

	series := &survival.CountSeries{
		Column: req.Column,
		Title:  req.Title,
		XTitle: attr.Label,
		Rows:   []survival.CountRow{},
	}
	for _, v := range order {
		n := req.Cohort.Count(req.Column, v)
		if n == 0 {
			continue
		}
		label, err := s.catalog.SubcategoryLabel(req.Column, v)
		if err != nil {
			return nil, err
		}
		series.Rows = append(series.Rows, survival.CountRow{
			Category: v,
			Label:    label,
			Count:    n,
			Color:    survival.ColorAt(len(series.Rows)),
		})
	}
	return series, nil
}
