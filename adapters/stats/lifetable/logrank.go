package lifetable

import (
	"fmt"
	"math"
	"sort"

	"ecttool/domain/core"
	"ecttool/domain/survival"

	"gonum.org/v1/gonum/mat"
)

// LogRankTest compares time-to-event distributions across k groups with the
// multivariate log-rank statistic (chi-square, k-1 degrees of freedom).
type LogRankTest struct {
	dist *Distributions
}

// NewLogRankTest creates a new log-rank tester
func NewLogRankTest() *LogRankTest {
	return &LogRankTest{dist: NewDistributions()}
}

// Test runs the multivariate log-rank test. Groups are reported in order of
// first appearance. It fails with ErrDegenerateInput when fewer than two
// groups have data or when a group has no events.
func (l *LogRankTest) Test(durations []float64, groups []string, events []bool) (*survival.LogRankResult, error) {
	if len(durations) != len(groups) || len(durations) != len(events) {
		return nil, core.NewInvalidInputError("groups",
			fmt.Sprintf("length mismatch: %d durations, %d groups, %d events", len(durations), len(groups), len(events)))
	}

	index := make(map[string]int)
	var labels []string
	for _, g := range groups {
		if _, ok := index[g]; !ok {
			index[g] = len(labels)
			labels = append(labels, g)
		}
	}
	k := len(labels)
	if k < 2 {
		return nil, core.NewDegenerateInputError(fmt.Sprintf("need at least 2 groups with data, got %d", k))
	}

	size := make([]int, k)
	eventCount := make([]int, k)
	for i, g := range groups {
		d := durations[i]
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return nil, core.NewInvalidInputError("durations", fmt.Sprintf("observation %d: %v is not a non-negative time", i+1, d))
		}
		size[index[g]]++
		if events[i] {
			eventCount[index[g]]++
		}
	}
	for j, c := range eventCount {
		if c == 0 {
			return nil, core.NewDegenerateInputError(fmt.Sprintf("group %q has no events", labels[j]))
		}
	}

	order := make([]int, len(durations))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return durations[order[a]] < durations[order[b]] })

	atRisk := make([]float64, k)
	for j := range size {
		atRisk[j] = float64(size[j])
	}
	observedMinusExpected := make([]float64, k)
	covariance := mat.NewDense(k, k, nil)

	deaths := make([]float64, k)
	removed := make([]float64, k)
	for start := 0; start < len(order); {
		t := durations[order[start]]
		for j := range deaths {
			deaths[j], removed[j] = 0, 0
		}
		end := start
		for end < len(order) && durations[order[end]] == t {
			j := index[groups[order[end]]]
			removed[j]++
			if events[order[end]] {
				deaths[j]++
			}
			end++
		}

		var n, d float64
		for j := 0; j < k; j++ {
			n += atRisk[j]
			d += deaths[j]
		}
		if d > 0 {
			for j := 0; j < k; j++ {
				observedMinusExpected[j] += deaths[j] - d*atRisk[j]/n
			}
			if n > 1 {
				scale := d * (n - d) / (n - 1)
				for j := 0; j < k; j++ {
					for m := 0; m < k; m++ {
						delta := 0.0
						if j == m {
							delta = 1
						}
						v := covariance.At(j, m) + scale*(atRisk[j]/n)*(delta-atRisk[m]/n)
						covariance.Set(j, m, v)
					}
				}
			}
		}

		for j := 0; j < k; j++ {
			atRisk[j] -= removed[j]
		}
		start = end
	}

	// One group is redundant: the O-E scores sum to zero.
	reduced := covariance.Slice(0, k-1, 0, k-1)
	inv, err := pseudoInverse(reduced)
	if err != nil {
		return nil, err
	}
	score := mat.NewVecDense(k-1, observedMinusExpected[:k-1])
	var weighted mat.VecDense
	weighted.MulVec(inv, score)
	statistic := mat.Dot(score, &weighted)
	if statistic < 0 {
		statistic = 0
	}

	return &survival.LogRankResult{
		Statistic:        statistic,
		DegreesOfFreedom: k - 1,
		PValue:           l.dist.ChiSquarePValue(statistic, k-1),
		Groups:           labels,
	}, nil
}

// pseudoInverse computes the Moore-Penrose inverse through an SVD, zeroing
// singular values below a relative cutoff.
func pseudoInverse(a mat.Matrix) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, core.NewDegenerateInputError("log-rank covariance could not be factorized")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	largest := 0.0
	for _, s := range values {
		largest = math.Max(largest, s)
	}
	cutoff := 1e-15 * largest

	inverted := mat.NewDiagDense(len(values), nil)
	for i, s := range values {
		if s > cutoff {
			inverted.SetDiag(i, 1/s)
		}
	}

	var scaled, out mat.Dense
	scaled.Mul(&v, inverted)
	out.Mul(&scaled, u.T())
	return &out, nil
}
