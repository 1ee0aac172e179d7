package lifetable

import (
	"errors"
	"testing"

	"ecttool/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allEvents(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}

func TestLogRank_TwoGroups(t *testing.T) {
	result, err := NewLogRankTest().Test(
		[]float64{1, 3, 5, 2, 4, 6},
		[]string{"A", "A", "A", "B", "B", "B"},
		allEvents(6),
	)
	require.NoError(t, err)

	assert.InDelta(t, 0.48487626031164066, result.Statistic, 1e-9)
	assert.InDelta(t, 0.4862218338852325, result.PValue, 1e-9)
	assert.Equal(t, 1, result.DegreesOfFreedom)
	assert.Equal(t, []string{"A", "B"}, result.Groups)
}

// Two interleaved strata with the same shape are indistinguishable.
func TestLogRank_InterleavedSimilarProfiles(t *testing.T) {
	result, err := NewLogRankTest().Test(
		[]float64{1, 4, 5, 8, 2, 3, 6, 7},
		[]string{"A", "A", "A", "A", "B", "B", "B", "B"},
		allEvents(8),
	)
	require.NoError(t, err)

	assert.InDelta(t, 0.7817886862980049, result.PValue, 1e-9)
	assert.Greater(t, result.PValue, 0.75)
}

func TestLogRank_IdenticalProfiles(t *testing.T) {
	result, err := NewLogRankTest().Test(
		[]float64{2, 5, 9, 2, 5, 9},
		[]string{"A", "A", "A", "B", "B", "B"},
		allEvents(6),
	)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, result.PValue, 1e-9)
}

func TestLogRank_SeparatedGroups(t *testing.T) {
	result, err := NewLogRankTest().Test(
		[]float64{1, 2, 3, 4, 10, 11, 12, 13},
		[]string{"A", "A", "A", "A", "B", "B", "B", "B"},
		allEvents(8),
	)
	require.NoError(t, err)

	assert.InDelta(t, 7.344406814715234, result.Statistic, 1e-9)
	assert.Equal(t, "6.727173e-03", result.Formatted())
}

func TestLogRank_ThreeGroupsWithCensoring(t *testing.T) {
	result, err := NewLogRankTest().Test(
		[]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		[]string{"A", "A", "A", "A", "B", "B", "B", "B", "C", "C", "C", "C"},
		[]bool{true, true, false, true, true, true, true, false, true, true, true, true},
	)
	require.NoError(t, err)

	assert.Equal(t, 2, result.DegreesOfFreedom)
	assert.InDelta(t, 12.380369751688779, result.Statistic, 1e-9)
	assert.InDelta(t, 0.0020494478248528074, result.PValue, 1e-12)
}

func TestLogRank_GroupOrderDoesNotMatter(t *testing.T) {
	durations := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	events := []bool{true, true, false, true, true, true, true, false, true, true, true, true}
	groups := []string{"A", "A", "A", "A", "B", "B", "B", "B", "C", "C", "C", "C"}

	forward, err := NewLogRankTest().Test(durations, groups, events)
	require.NoError(t, err)

	rd := make([]float64, len(durations))
	rg := make([]string, len(groups))
	re := make([]bool, len(events))
	for i := range durations {
		j := len(durations) - 1 - i
		rd[i], rg[i], re[i] = durations[j], groups[j], events[j]
	}
	backward, err := NewLogRankTest().Test(rd, rg, re)
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "B", "A"}, backward.Groups)
	assert.InDelta(t, forward.Statistic, backward.Statistic, 1e-9)
}

func TestLogRank_Degenerate(t *testing.T) {
	tester := NewLogRankTest()

	_, err := tester.Test([]float64{1, 2, 3}, []string{"A", "A", "A"}, allEvents(3))
	assert.True(t, errors.Is(err, core.ErrDegenerateInput), "single group")

	_, err = tester.Test(nil, nil, nil)
	assert.True(t, errors.Is(err, core.ErrDegenerateInput), "no groups")

	_, err = tester.Test(
		[]float64{1, 2, 3, 4},
		[]string{"A", "A", "B", "B"},
		[]bool{true, true, false, false},
	)
	assert.True(t, errors.Is(err, core.ErrDegenerateInput), "group without events")

	_, err = tester.Test([]float64{1, 2}, []string{"A"}, allEvents(2))
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}
