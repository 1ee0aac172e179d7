package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cohortCSV = `patient,grade,stage,os_months,os_status
TCGA-1,G1,Stage I,5,1:DECEASED
TCGA-2,G1,Stage I,9,1:DECEASED
TCGA-3,G1,Stage I,14,0:LIVING
TCGA-4,G2,Stage I,3,1:DECEASED
TCGA-5,G2,Stage I,6,1:DECEASED
TCGA-6,G2,Stage I,20,0:LIVING
`

func run(t *testing.T, args ...string) (map[string]interface{}, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	return body, nil
}

func writeCohort(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cohort.csv")
	require.NoError(t, os.WriteFile(path, []byte(cohortCSV), 0o644))
	return path
}

func TestCategories(t *testing.T) {
	body, err := run(t, "categories")
	require.NoError(t, err)
	assert.Len(t, body["modes"], 2)
	assert.Len(t, body["categories"], 7)
}

func TestSurvival(t *testing.T) {
	body, err := run(t, "survival", "grade", "--file", writeCohort(t))
	require.NoError(t, err)
	assert.Equal(t, "grade", body["category"])
	assert.Equal(t, "Overall Survival", body["mode_title"])

	plot := body["survival"].(map[string]interface{})
	assert.Len(t, plot["strata"], 2)
	assert.Len(t, plot["significance"], 1)
}

func TestPopulation(t *testing.T) {
	body, err := run(t, "population", "stage", "--file", writeCohort(t))
	require.NoError(t, err)
	assert.Len(t, body["rows"], 1)
}

func TestOverview(t *testing.T) {
	body, err := run(t, "overview", "stage", "Stage I", "--targets", "grade", "--file", writeCohort(t))
	require.NoError(t, err)
	assert.Equal(t, float64(6), body["patients"])
	assert.Len(t, body["panels"], 1)
}

func TestErrors(t *testing.T) {
	_, err := run(t, "survival", "grade")
	assert.ErrorContains(t, err, "--file is required")

	_, err = run(t, "survival", "grade", "--file", writeCohort(t), "--mode", "dfs")
	assert.Error(t, err)

	_, err = run(t, "survival", "nonexistent", "--file", writeCohort(t))
	assert.Error(t, err)
}
