package cohort

import (
	"errors"
	"testing"

	"ecttool/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var osEndpoint = Endpoint{TimeColumn: "os_months", StatusColumn: "os_status"}

func sampleTable(t *testing.T) *Table {
	t.Helper()
	headers := []string{"patient", "grade", "os_months", "os_status"}
	rows := []Row{
		{"patient": "p1", "grade": "G2", "os_months": "12.5", "os_status": "1:DECEASED"},
		{"patient": "p2", "grade": "G1", "os_months": "40", "os_status": "0:LIVING"},
		{"patient": "p3", "grade": "G2", "os_months": "", "os_status": "1"},
		{"patient": "p4", "grade": "G3", "os_months": "7", "os_status": "0"},
		{"patient": "p5", "grade": "[Not Available]", "os_months": "3", "os_status": "true"},
	}
	table, err := New(headers, rows, osEndpoint)
	require.NoError(t, err)
	return table
}

func TestNew_RejectsBadHeaders(t *testing.T) {
	_, err := New([]string{"a", "a"}, nil)
	assert.True(t, errors.Is(err, core.ErrInvalidInput))

	_, err = New([]string{"a", " "}, nil)
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestNew_ValidatesEndpointCells(t *testing.T) {
	headers := []string{"os_months", "os_status"}

	_, err := New(headers, []Row{{"os_months": "-1", "os_status": "0"}}, osEndpoint)
	assert.True(t, errors.Is(err, core.ErrInvalidInput), "negative time must be rejected")

	_, err = New(headers, []Row{{"os_months": "3", "os_status": "maybe"}}, osEndpoint)
	assert.True(t, errors.Is(err, core.ErrInvalidInput), "non-binary status must be rejected")

	_, err = New(headers, []Row{{"os_months": "NA", "os_status": ""}}, osEndpoint)
	assert.NoError(t, err, "missing cells are allowed")
}

func TestNew_CopiesRows(t *testing.T) {
	rows := []Row{{"grade": "G1"}}
	table, err := New([]string{"grade"}, rows)
	require.NoError(t, err)

	rows[0]["grade"] = "G3"
	assert.Equal(t, 1, table.Count("grade", "G1"))
	assert.Equal(t, 0, table.Count("grade", "G3"))
}

func TestWhereAndCount(t *testing.T) {
	table := sampleTable(t)

	g2 := table.Where("grade", "G2")
	assert.Equal(t, 2, g2.Len())
	assert.Equal(t, 2, table.Count("grade", "G2"))
	assert.Equal(t, 0, table.Count("grade", "G9"))
	assert.Equal(t, 5, table.Len(), "filtering must not shrink the parent")
}

func TestDistinct_SkipsMissing(t *testing.T) {
	table := sampleTable(t)
	assert.Equal(t, []string{"G2", "G1", "G3"}, table.Distinct("grade"))
}

func TestWithEndpoint(t *testing.T) {
	table := sampleTable(t)
	assert.Equal(t, 4, table.WithEndpoint(osEndpoint).Len())
}

func TestObservations(t *testing.T) {
	table := sampleTable(t)

	durations, events, err := table.Observations(osEndpoint)
	require.NoError(t, err)
	assert.Equal(t, []float64{12.5, 40, 7, 3}, durations)
	assert.Equal(t, []bool{true, false, false, true}, events)

	_, groups, _, err := table.GroupedObservations(osEndpoint, "grade")
	require.NoError(t, err)
	assert.Equal(t, []string{"G2", "G1", "G3", "[Not Available]"}, groups)

	_, _, err = table.Observations(Endpoint{TimeColumn: "pfs_months", StatusColumn: "pfs_status"})
	assert.True(t, errors.Is(err, core.ErrUnknownCategory))

	_, _, _, err = table.GroupedObservations(osEndpoint, "stage")
	assert.True(t, errors.Is(err, core.ErrUnknownCategory))
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in    string
		event bool
		ok    bool
		err   bool
	}{
		{"1", true, true, false},
		{"0.0", false, true, false},
		{"TRUE", true, true, false},
		{"No", false, true, false},
		{"1:PROGRESSION", true, true, false},
		{"0:CENSORED", false, true, false},
		{"", false, false, false},
		{"2", false, false, true},
	}
	for _, tt := range tests {
		event, ok, err := ParseStatus(tt.in)
		assert.Equal(t, tt.event, event, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.err, err != nil, tt.in)
	}
}

func TestIsMissing(t *testing.T) {
	for _, cell := range []string{"", "  ", "NA", "nan", "[Not Available]", "[discrepancy]", " [unknown] "} {
		assert.True(t, IsMissing(cell), "%q", cell)
	}
	for _, cell := range []string{"0", "G1", "Stage I", "[other]"} {
		assert.False(t, IsMissing(cell), "%q", cell)
	}
}
