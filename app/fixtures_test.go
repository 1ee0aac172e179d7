package app

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ecttool/adapters/stats/lifetable"
	"ecttool/domain/category"
	"ecttool/domain/cohort"
	"ecttool/domain/survival"
	"ecttool/internal"
)

var testHeaders = []string{"patient", "grade", "stage", "bmi_status", "radiotherapy", "os_months", "os_status"}

type patient struct {
	grade, stage, bmi, radio string
	months, status           string
}

func subs(values ...string) []category.Subcategory {
	out := make([]category.Subcategory, len(values))
	for i, v := range values {
		out[i] = category.Subcategory{Value: v}
	}
	return out
}

func testCatalog(t *testing.T) *category.Catalog {
	t.Helper()
	c, err := category.NewCatalog(
		[]category.Mode{
			{Key: "os", Label: "Overall Survival"},
			{Key: "pfs", Label: "Progression-Free Survival"},
		},
		[]category.Attribute{
			{Key: "grade", Label: "Grade", Subcategories: []category.Subcategory{
				{Value: "G1", Label: "Grade-1"}, {Value: "G2", Label: "Grade-2"}, {Value: "G3", Label: "Grade-3"},
			}},
			{Key: "stage", Label: "Stage", Subcategories: subs("Stage I", "Stage II", "Stage III")},
			{Key: "bmi_status", Label: "BMI", Subcategories: subs("Underweight", "Healthy Weight", "Overweight", "Obesity", "Severe Obesity")},
			{Key: "radiotherapy", Label: "Radiation Therapy", Subcategories: subs("Yes", "No")},
		},
	)
	require.NoError(t, err)
	return c
}

func newCohort(t *testing.T, patients []patient) *cohort.Table {
	t.Helper()
	rows := make([]cohort.Row, len(patients))
	for i, p := range patients {
		rows[i] = cohort.Row{
			"patient":      fmt.Sprintf("TCGA-%03d", i+1),
			"grade":        p.grade,
			"stage":        p.stage,
			"bmi_status":   p.bmi,
			"radiotherapy": p.radio,
			"os_months":    p.months,
			"os_status":    p.status,
		}
	}
	table, err := cohort.New(testHeaders, rows, survival.Endpoints()...)
	require.NoError(t, err)
	return table
}

// group returns n patients sharing grade, stage and bmi. The first patient
// always has an event; every third one after it is censored.
func group(n int, grade, stage, bmi string, base float64) []patient {
	out := make([]patient, n)
	for i := range out {
		status := "1"
		if i > 0 && i%3 == 2 {
			status = "0"
		}
		out[i] = patient{
			grade:  grade,
			stage:  stage,
			bmi:    bmi,
			radio:  "No",
			months: fmt.Sprintf("%g", base+float64(i)*4),
			status: status,
		}
	}
	return out
}

func concat(groups ...[]patient) []patient {
	var out []patient
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func newPlotService(t *testing.T) *SurvivalPlotService {
	t.Helper()
	return NewSurvivalPlotService(
		testCatalog(t),
		lifetable.NewKaplanMeier(),
		lifetable.NewLogRankTest(),
		lifetable.RiskTableBuilder{},
		internal.NewLogger(internal.LogLevelError),
	)
}

// Port doubles

type mockEstimator struct {
	mock.Mock
}

func (m *mockEstimator) Fit(durations []float64, events []bool, label string) (*survival.Estimate, error) {
	args := m.Called(durations, events, label)
	if est, ok := args.Get(0).(*survival.Estimate); ok {
		return est, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEstimator) ConfidenceLevel() float64 {
	return lifetable.DefaultConfidenceLevel
}

type mockTester struct {
	mock.Mock
}

func (m *mockTester) Test(durations []float64, groups []string, events []bool) (*survival.LogRankResult, error) {
	args := m.Called(durations, groups, events)
	if r, ok := args.Get(0).(*survival.LogRankResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
