package lifetable

import (
	"github.com/montanaflynn/stats"

	"ecttool/domain/survival"
)

// Checkpoints are the month marks between the first and last column of a
// risk table. A checkpoint includes event times equal to it.
var Checkpoints = []float64{10, 20, 30, 40, 50}

// AtRiskRow summarizes an event table as [start, by 10..50, end]. "By T" is
// the lowest number at risk over event times <= T; start and end are the
// highest and lowest over the whole table.
func AtRiskRow(label string, events []survival.EventRow) survival.RiskRow {
	all := make(stats.Float64Data, len(events))
	for i, e := range events {
		all[i] = float64(e.AtRisk)
	}

	counts := make([]*int, 0, len(Checkpoints)+2)
	counts = append(counts, reduce(all, stats.Max))
	for _, checkpoint := range Checkpoints {
		var upTo stats.Float64Data
		for _, e := range events {
			if e.Time <= checkpoint {
				upTo = append(upTo, float64(e.AtRisk))
			}
		}
		counts = append(counts, reduce(upTo, stats.Min))
	}
	counts = append(counts, reduce(all, stats.Min))

	return survival.RiskRow{Label: label, Counts: counts}
}

// NewRiskTable prefixes rows with the literal checkpoint header.
func NewRiskTable(rows ...survival.RiskRow) survival.RiskTable {
	header := make([]string, len(survival.RiskTableHeader))
	copy(header, survival.RiskTableHeader)
	if rows == nil {
		rows = []survival.RiskRow{}
	}
	return survival.RiskTable{Header: header, Rows: rows}
}

func reduce(data stats.Float64Data, fn func(stats.Float64Data) (float64, error)) *int {
	v, err := fn(data)
	if err != nil {
		return nil
	}
	n := int(v)
	return &n
}

// RiskTableBuilder exposes AtRiskRow and NewRiskTable behind
// ports.RiskTableBuilderPort.
type RiskTableBuilder struct{}

// Row builds the at-risk row of one fitted stratum.
func (RiskTableBuilder) Row(label string, events []survival.EventRow) survival.RiskRow {
	return AtRiskRow(label, events)
}

// Table prefixes rows with the checkpoint header.
func (RiskTableBuilder) Table(rows ...survival.RiskRow) survival.RiskTable {
	return NewRiskTable(rows...)
}
