package survival

import (
	"sort"
)

// EventRow is one line of a fitted estimate's event history. Time 0 is always
// the first row.
type EventRow struct {
	Time     float64 `json:"time"`
	Removed  int     `json:"removed"`
	Observed int     `json:"observed"`
	Censored int     `json:"censored"`
	Entrance int     `json:"entrance"`
	AtRisk   int     `json:"at_risk"`
}

// Point is one step of a survival curve with its confidence band.
type Point struct {
	Time     float64 `json:"time"`
	Survival float64 `json:"survival"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// Estimate is a fitted Kaplan-Meier estimate for one stratum. All slices are
// indexed by Timeline; Survival is a right-continuous step function that is
// not defined past the last timeline entry.
type Estimate struct {
	Label             string     `json:"label"`
	ConfidenceLevel   float64    `json:"confidence_level"`
	Timeline          []float64  `json:"timeline"`
	Survival          []float64  `json:"survival"`
	SurvivalLower     []float64  `json:"survival_lower"`
	SurvivalUpper     []float64  `json:"survival_upper"`
	CumulativeDensity []float64  `json:"cumulative_density"`
	DensityLower      []float64  `json:"density_lower"`
	DensityUpper      []float64  `json:"density_upper"`
	EventTable        []EventRow `json:"event_table"`
}

// Subjects returns the number of patients the estimate was fitted on.
func (e *Estimate) Subjects() int {
	if len(e.EventTable) == 0 {
		return 0
	}
	return e.EventTable[0].Entrance
}

// Events returns the number of observed events.
func (e *Estimate) Events() int {
	n := 0
	for _, r := range e.EventTable {
		n += r.Observed
	}
	return n
}

// Censored returns the number of censored observations.
func (e *Estimate) Censored() int {
	n := 0
	for _, r := range e.EventTable {
		n += r.Censored
	}
	return n
}

// LastTime returns the largest observed time.
func (e *Estimate) LastTime() float64 {
	if len(e.Timeline) == 0 {
		return 0
	}
	return e.Timeline[len(e.Timeline)-1]
}

// SurvivalAt evaluates the step function at t. ok is false before zero or
// past the last observed time.
func (e *Estimate) SurvivalAt(t float64) (float64, bool) {
	if len(e.Timeline) == 0 || t < 0 || t > e.LastTime() {
		return 0, false
	}
	i := sort.Search(len(e.Timeline), func(i int) bool { return e.Timeline[i] > t }) - 1
	if i < 0 {
		return 1, true
	}
	return e.Survival[i], true
}

// Median returns the first time at which survival drops to 0.5 or below.
func (e *Estimate) Median() (float64, bool) {
	for i, s := range e.Survival {
		if s <= 0.5 {
			return e.Timeline[i], true
		}
	}
	return 0, false
}

// Points zips the survival curve with its band.
func (e *Estimate) Points() []Point {
	out := make([]Point, len(e.Timeline))
	for i := range e.Timeline {
		out[i] = Point{
			Time:     e.Timeline[i],
			Survival: e.Survival[i],
			Lower:    e.SurvivalLower[i],
			Upper:    e.SurvivalUpper[i],
		}
	}
	return out
}
