package ports

import (
	"ecttool/domain/survival"
)

// SurvivalEstimatorPort fits one survival curve per stratum
type SurvivalEstimatorPort interface {
	Fit(durations []float64, events []bool, label string) (*survival.Estimate, error)
	ConfidenceLevel() float64
}

// SignificanceTesterPort compares time-to-event distributions across groups
type SignificanceTesterPort interface {
	Test(durations []float64, groups []string, events []bool) (*survival.LogRankResult, error)
}

// RiskTableBuilderPort derives number-at-risk rows from fitted event tables
type RiskTableBuilderPort interface {
	Row(label string, events []survival.EventRow) survival.RiskRow
	Table(rows ...survival.RiskRow) survival.RiskTable
}
