package survival

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// LogRankResult is the outcome of a multi-group log-rank test.
type LogRankResult struct {
	Statistic        float64  `json:"statistic"`
	DegreesOfFreedom int      `json:"degrees_of_freedom"`
	PValue           float64  `json:"p_value"`
	Groups           []string `json:"groups"`
}

// Formatted renders the p-value in scientific notation, unrounded beyond
// six significant decimals (e.g. "3.141593e-02").
func (r LogRankResult) Formatted() string {
	return fmt.Sprintf("%e", r.PValue)
}

// Rounded renders the p-value in fixed notation with the given decimals.
func (r LogRankResult) Rounded(decimals int) string {
	return strconv.FormatFloat(r.PValue, 'f', decimals, 64)
}

// RiskTableHeader is the literal first row of every risk table.
var RiskTableHeader = []string{"Months", "0", "10", "20", "30", "40", "50", "60"}

// RiskRow holds the at-risk counts of one stratum: start, by 10/20/30/40/50
// months and end. A nil count means no observed time fell before the checkpoint.
type RiskRow struct {
	Label  string `json:"label"`
	Facet  string `json:"facet,omitempty"`
	Counts []*int `json:"counts"`
}

// RiskTable is the number-at-risk table rendered under a survival chart.
type RiskTable struct {
	Header []string  `json:"header"`
	Rows   []RiskRow `json:"rows"`
}

// Records flattens the table into string rows, header first. Missing counts
// render as empty cells.
func (t RiskTable) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Header...))
	for _, r := range t.Rows {
		rec := make([]string, 0, len(r.Counts)+1)
		rec = append(rec, r.Label)
		for _, c := range r.Counts {
			if c == nil {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.Itoa(*c))
		}
		out = append(out, rec)
	}
	return out
}

// FacetMode is the faceting layout of an assembled chart.
type FacetMode int

const (
	FacetNone FacetMode = iota
	FacetColumn
	FacetRow
	// FacetGrid combines row and column facets and is not supported.
	FacetGrid
)

func (m FacetMode) String() string {
	switch m {
	case FacetNone:
		return "none"
	case FacetColumn:
		return "column"
	case FacetRow:
		return "row"
	case FacetGrid:
		return "grid"
	}
	return "unknown"
}

// MarshalJSON encodes the mode by name.
func (m FacetMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// SeriesRow is one point of the long-form chart table.
type SeriesRow struct {
	Time     float64 `json:"time"`
	Survival float64 `json:"survival_probability"`
	Stratum  string  `json:"stratum"`
	Facet    string  `json:"facet,omitempty"`
}

// LegendEntry pairs a stratum label with its trace color.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// ChartSeries is the structure handed to the rendering layer.
type ChartSeries struct {
	Rows   []SeriesRow   `json:"rows"`
	Legend []LegendEntry `json:"legend"`
	Facets []string      `json:"facets,omitempty"`
}

// Annotation is a positioned text label. Paper-referenced annotations use
// fractions of the figure; row annotations use data coordinates of a subplot.
type Annotation struct {
	Facet string  `json:"facet,omitempty"`
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	XRef  string  `json:"xref"`
	YRef  string  `json:"yref"`
	Row   int     `json:"row,omitempty"`
	Col   int     `json:"col,omitempty"`
}

// AnnotationSet holds the annotations of one chart.
type AnnotationSet struct {
	Mode  FacetMode    `json:"mode"`
	Items []Annotation `json:"items"`
}

// Significance is the log-rank result of one facet, or of the whole chart
// when Facet is empty.
type Significance struct {
	Facet  string        `json:"facet,omitempty"`
	Result LogRankResult `json:"result"`
}

// StratumSummary describes one fitted stratum.
type StratumSummary struct {
	Label          string   `json:"label"`
	Facet          string   `json:"facet,omitempty"`
	Color          string   `json:"color"`
	Subjects       int      `json:"subjects"`
	Events         int      `json:"events"`
	Censored       int      `json:"censored"`
	MedianSurvival *float64 `json:"median_survival"`
	MedianFollowUp float64  `json:"median_follow_up"`
}

// Title is a chart title with its subtitle.
type Title struct {
	Main string `json:"main"`
	Sub  string `json:"sub"`
}

// Plot is an assembled survival chart with its companion risk table.
type Plot struct {
	Mode         Mode             `json:"mode"`
	GroupColumn  string           `json:"group_column"`
	FacetColumn  string           `json:"facet_column,omitempty"`
	FacetMode    FacetMode        `json:"facet_mode"`
	Title        Title            `json:"title"`
	Series       ChartSeries      `json:"series"`
	Annotations  AnnotationSet    `json:"annotations"`
	RiskTable    RiskTable        `json:"risk_table"`
	Significance []Significance   `json:"significance"`
	Strata       []StratumSummary `json:"strata"`
}

// CountRow is one bar of a population histogram.
type CountRow struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Count    int    `json:"count"`
	Color    string `json:"color"`
}

// CountSeries is a population histogram.
type CountSeries struct {
	Column string     `json:"column"`
	Title  Title      `json:"title"`
	XTitle string     `json:"x_title"`
	Rows   []CountRow `json:"rows"`
}

// Palette colors traces by position, not by category.
var Palette = []string{"blue", "red", "green", "purple", "darkorange"}

// ColorAt returns the palette color for position i, wrapping around.
func ColorAt(i int) string {
	return Palette[i%len(Palette)]
}
