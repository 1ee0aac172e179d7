package lifetable

import (
	"fmt"
	"math"
	"sort"

	"ecttool/domain/core"
	"ecttool/domain/survival"
)

// DefaultConfidenceLevel is the level of the pointwise bands.
const DefaultConfidenceLevel = 0.95

// KaplanMeier fits non-parametric survival functions with log-log
// (exponential Greenwood) confidence bands.
type KaplanMeier struct {
	confidenceLevel float64
	dist            *Distributions
}

// NewKaplanMeier creates an estimator with 95% bands.
func NewKaplanMeier() *KaplanMeier {
	return &KaplanMeier{confidenceLevel: DefaultConfidenceLevel, dist: NewDistributions()}
}

// NewKaplanMeierWithLevel creates an estimator with bands at level, which
// must lie strictly between 0 and 1.
func NewKaplanMeierWithLevel(level float64) (*KaplanMeier, error) {
	if !(level > 0 && level < 1) {
		return nil, core.NewInvalidInputError("confidence_level", fmt.Sprintf("%v is outside (0, 1)", level))
	}
	return &KaplanMeier{confidenceLevel: level, dist: NewDistributions()}, nil
}

// ConfidenceLevel returns the band level.
func (k *KaplanMeier) ConfidenceLevel() float64 {
	return k.confidenceLevel
}

type tally struct {
	observed int
	censored int
}

// Fit estimates S(t) for one stratum. Callers drop strata of two patients or
// fewer beforehand; Fit itself only rejects empty input.
func (k *KaplanMeier) Fit(durations []float64, events []bool, label string) (*survival.Estimate, error) {
	if len(durations) != len(events) {
		return nil, core.NewInvalidInputError("events",
			fmt.Sprintf("%d durations but %d event flags", len(durations), len(events)))
	}
	if len(durations) == 0 {
		return nil, fmt.Errorf("stratum %q: %w", label, core.ErrInsufficientData)
	}

	counts := make(map[float64]*tally, len(durations))
	for i, d := range durations {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return nil, core.NewInvalidInputError("durations", fmt.Sprintf("observation %d: %v is not a non-negative time", i+1, d))
		}
		c, ok := counts[d]
		if !ok {
			c = &tally{}
			counts[d] = c
		}
		if events[i] {
			c.observed++
		} else {
			c.censored++
		}
	}

	timeline := make([]float64, 0, len(counts)+1)
	for t := range counts {
		timeline = append(timeline, t)
	}
	sort.Float64s(timeline)
	if timeline[0] != 0 {
		timeline = append([]float64{0}, timeline...)
	}

	n := len(durations)
	z := k.dist.CriticalValue(k.confidenceLevel)
	est := &survival.Estimate{
		Label:             label,
		ConfidenceLevel:   k.confidenceLevel,
		Timeline:          timeline,
		Survival:          make([]float64, len(timeline)),
		SurvivalLower:     make([]float64, len(timeline)),
		SurvivalUpper:     make([]float64, len(timeline)),
		CumulativeDensity: make([]float64, len(timeline)),
		DensityLower:      make([]float64, len(timeline)),
		DensityUpper:      make([]float64, len(timeline)),
		EventTable:        make([]survival.EventRow, len(timeline)),
	}

	atRisk := n
	s := 1.0
	greenwood := 0.0
	for i, t := range timeline {
		var observed, censored int
		if c, ok := counts[t]; ok {
			observed, censored = c.observed, c.censored
		}
		row := survival.EventRow{
			Time:     t,
			Removed:  observed + censored,
			Observed: observed,
			Censored: censored,
			AtRisk:   atRisk,
		}
		if i == 0 {
			row.Entrance = n
		}

		if observed > 0 {
			s *= float64(atRisk-observed) / float64(atRisk)
			if atRisk > observed {
				greenwood += float64(observed) / (float64(atRisk) * float64(atRisk-observed))
			}
		}
		lower, upper := logLogBounds(s, greenwood, z)

		est.Survival[i] = s
		est.SurvivalLower[i] = lower
		est.SurvivalUpper[i] = upper
		est.CumulativeDensity[i] = 1 - s
		est.DensityLower[i] = 1 - upper
		est.DensityUpper[i] = 1 - lower
		est.EventTable[i] = row

		atRisk -= row.Removed
	}

	return est, nil
}

// logLogBounds returns the band for S on the log(-log S) scale, which keeps
// both ends inside [0, 1].
func logLogBounds(s, greenwood, z float64) (float64, float64) {
	if s >= 1 {
		return 1, 1
	}
	if s <= 0 {
		return 0, 0
	}
	logS := math.Log(s)
	se := math.Sqrt(greenwood) / math.Abs(logS)
	center := math.Log(-logS)
	lower := math.Exp(-math.Exp(center + z*se))
	upper := math.Exp(-math.Exp(center - z*se))
	return lower, upper
}
