package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecttool/domain/core"
	"ecttool/domain/survival"
)

func TestHistogram_OrderedAndAbsentOmitted(t *testing.T) {
	service := NewPopulationService(testCatalog(t))
	data := newCohort(t, concat(
		group(4, "G3", "Stage I", "", 4),
		group(2, "G1", "Stage I", "", 5),
	))

	series, err := service.Histogram(HistogramRequest{
		Cohort: data,
		Column: "grade",
		Title:  survival.Title{Main: "EC Population", Sub: "by Grade"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Grade", series.XTitle)
	assert.Equal(t, []survival.CountRow{
		{Category: "G1", Label: "Grade-1", Count: 2, Color: "blue"},
		{Category: "G3", Label: "Grade-3", Count: 4, Color: "red"},
	}, series.Rows)
}

func TestHistogram_ExplicitOrder(t *testing.T) {
	service := NewPopulationService(testCatalog(t))
	data := newCohort(t, concat(
		group(1, "G1", "Stage I", "", 4),
		group(2, "G2", "Stage I", "", 5),
		group(3, "G3", "Stage I", "", 5),
	))

	series, err := service.Histogram(HistogramRequest{Cohort: data, Column: "grade", Order: []string{"G3", "G2"}})
	require.NoError(t, err)
	require.Len(t, series.Rows, 2)
	assert.Equal(t, "G3", series.Rows[0].Category)
	assert.Equal(t, 3, series.Rows[0].Count)
	assert.Equal(t, "G2", series.Rows[1].Category)
}

func TestHistogram_Errors(t *testing.T) {
	service := NewPopulationService(testCatalog(t))
	data := newCohort(t, group(1, "G1", "Stage I", "", 4))

	_, err := service.Histogram(HistogramRequest{Cohort: data, Column: "histology"})
	assert.True(t, errors.Is(err, core.ErrUnknownCategory))

	_, err = service.Histogram(HistogramRequest{Cohort: data, Column: "grade", Order: []string{"G7"}})
	assert.True(t, errors.Is(err, core.ErrUnknownCategory))

	_, err = service.Histogram(HistogramRequest{Column: "grade"})
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestHistogram_EmptyCohortGivesNoBars(t *testing.T) {
	service := NewPopulationService(testCatalog(t))
	data := newCohort(t, nil)

	series, err := service.Histogram(HistogramRequest{Cohort: data, Column: "stage"})
	require.NoError(t, err)
	assert.NotNil(t, series.Rows)
	assert.Empty(t, series.Rows)
}
