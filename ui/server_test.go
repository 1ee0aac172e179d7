package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecttool/adapters/catalog"
	"ecttool/adapters/stats/lifetable"
	"ecttool/app"
	"ecttool/domain/cohort"
	"ecttool/domain/survival"
	"ecttool/internal"
	"ecttool/ui/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testCohort(t *testing.T) *cohort.Table {
	t.Helper()
	headers := []string{"patient", "grade", "stage", "os_months", "os_status"}
	var rows []cohort.Row
	add := func(n int, grade, stage string, base float64) {
		for i := 0; i < n; i++ {
			status := "1:DECEASED"
			if i%3 == 2 {
				status = "0:LIVING"
			}
			rows = append(rows, cohort.Row{
				"patient":   fmt.Sprintf("TCGA-%03d", len(rows)+1),
				"grade":     grade,
				"stage":     stage,
				"os_months": fmt.Sprintf("%g", base+float64(i)*5),
				"os_status": status,
			})
		}
	}
	add(4, "G1", "Stage I", 6)
	add(4, "G2", "Stage I", 3)
	add(3, "G1", "Stage II", 8)
	add(3, "G2", "Stage II", 4)
	add(2, "G3", "Stage II", 2)

	table, err := cohort.New(headers, rows, survival.Endpoints()...)
	require.NoError(t, err)
	return table
}

func newTestServer(t *testing.T, timeout time.Duration) *Server {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	logger := internal.NewLogger(internal.LogLevelError)
	plots := app.NewSurvivalPlotService(c, lifetable.NewKaplanMeier(), lifetable.NewLogRankTest(), lifetable.RiskTableBuilder{}, logger)
	reports := app.NewReportService(c, plots, app.NewPopulationService(c), 2, logger)

	server, err := NewServer(ServerConfig{GinMode: gin.TestMode, RequestTimeout: timeout}, reports, testCohort(t), logger)
	require.NoError(t, err)
	return server
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestServer_Metadata(t *testing.T) {
	s := newTestServer(t, time.Minute)

	w := do(t, s, http.MethodGet, "/api/modes", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Progression-Free Survival")

	w = do(t, s, http.MethodGet, "/api/categories", "")
	assert.Equal(t, http.StatusOK, w.Code)
	categories := decode(t, w)["categories"].([]interface{})
	assert.Len(t, categories, 7)
	assert.Equal(t, "grade", categories[0].(map[string]interface{})["key"])
}

func TestServer_Survival(t *testing.T) {
	s := newTestServer(t, time.Minute)

	w := do(t, s, http.MethodPost, "/api/survival", `{"mode":"os","category":"grade"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	body := decode(t, w)
	assert.Equal(t, "Overall Survival", body["mode_title"])
	plot := body["survival"].(map[string]interface{})
	assert.Equal(t, "none", plot["facet_mode"])
	legend := plot["series"].(map[string]interface{})["legend"].([]interface{})
	assert.Len(t, legend, 2)
	risk := plot["risk_table"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Months", "0", "10", "20", "30", "40", "50", "60"}, risk["header"])
	annotations := plot["annotations"].(map[string]interface{})["items"].([]interface{})
	require.Len(t, annotations, 1)
	assert.True(t, strings.HasPrefix(annotations[0].(map[string]interface{})["text"].(string), "logrank pValue: "))
}

func TestServer_SurvivalFacetedByStage(t *testing.T) {
	s := newTestServer(t, time.Minute)

	w := do(t, s, http.MethodPost, "/api/survival", `{"mode":"os","category":"grade","facet_column":"stage"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	plot := decode(t, w)["survival"].(map[string]interface{})
	assert.Equal(t, "column", plot["facet_mode"])
	assert.Len(t, plot["annotations"].(map[string]interface{})["items"], 2)
}

func TestServer_Errors(t *testing.T) {
	s := newTestServer(t, time.Minute)
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"mode":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing category", `{"mode":"os"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown mode", `{"mode":"dfs","category":"grade"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown category", `{"mode":"os","category":"histology"}`, http.StatusNotFound, "UNKNOWN_CATEGORY"},
		{"grid", `{"mode":"os","category":"grade","facet_column":"stage","facet_row":"bmi_status"}`, http.StatusNotImplemented, "NOT_IMPLEMENTED"},
		{"absent column", `{"mode":"os","category":"mol_subtype"}`, http.StatusNotFound, "UNKNOWN_CATEGORY"},
		{"missing endpoint", `{"mode":"pfs","category":"grade"}`, http.StatusNotFound, "UNKNOWN_CATEGORY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/survival", tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			body := decode(t, w)
			assert.Equal(t, tc.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestServer_Overview(t *testing.T) {
	s := newTestServer(t, time.Minute)

	w := do(t, s, http.MethodPost, "/api/overview", `{"mode":"os","category":"stage","subcategory":"Stage II","targets":["grade"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Stage II", body["subcategory_title"])
	assert.Equal(t, float64(8), body["patients"])
	panels := body["panels"].([]interface{})
	require.Len(t, panels, 1)
	assert.Equal(t, "grade", panels[0].(map[string]interface{})["category"])

	w = do(t, s, http.MethodPost, "/api/overview", `{"mode":"os","category":"stage","subcategory":"Stage IX"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Population(t *testing.T) {
	s := newTestServer(t, time.Minute)

	w := do(t, s, http.MethodGet, "/api/population/grade", "")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)["rows"].([]interface{})
	require.Len(t, rows, 3)
	first := rows[0].(map[string]interface{})
	assert.Equal(t, "G1", first["category"])
	assert.Equal(t, "Grade-1", first["label"])
	assert.Equal(t, float64(7), first["count"])

	w = do(t, s, http.MethodGet, "/api/population/histology", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Pages(t *testing.T) {
	s := newTestServer(t, time.Minute)

	w := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<h1")
	assert.Contains(t, w.Body.String(), "<table>")
	assert.Contains(t, w.Body.String(), "16 patients loaded")

	w = do(t, s, http.MethodGet, "/cite-us", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<blockquote>")
}

func TestServer_RequestIDPassthrough(t *testing.T) {
	s := newTestServer(t, time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/api/modes", nil)
	req.Header.Set(middleware.RequestIDHeader, "trace-42")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "trace-42", w.Header().Get(middleware.RequestIDHeader))
}

func TestServer_Timeout(t *testing.T) {
	s := newTestServer(t, time.Nanosecond)

	w := do(t, s, http.MethodPost, "/api/survival", `{"mode":"os","category":"grade"}`)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code, w.Body.String())
	assert.Equal(t, "TIMEOUT", decode(t, w)["code"])
}

func TestServer_UnknownRoute(t *testing.T) {
	s := newTestServer(t, time.Minute)

	w := do(t, s, http.MethodGet, "/api/histology", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.Equal(t, "route GET /api/histology not found", body["error"])
}

func TestServer_PanicBecomesInternalError(t *testing.T) {
	s := newTestServer(t, time.Minute)
	s.router.GET("/api/boom", func(c *gin.Context) { panic("boom") })

	w := do(t, s, http.MethodGet, "/api/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.Equal(t, "panic: boom", body["error"])
}

func TestServer_PageRenderFailure(t *testing.T) {
	s := newTestServer(t, time.Minute)
	s.pages.layout = template.Must(template.New("page").Parse(`{{.Missing}}`))

	w := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.Equal(t, "failed to render home page", body["error"])
}

func TestServer_BlankRequestIDReplaced(t *testing.T) {
	s := newTestServer(t, time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/api/modes", nil)
	req.Header.Set(middleware.RequestIDHeader, "   ")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	id := w.Header().Get(middleware.RequestIDHeader)
	assert.NotEmpty(t, strings.TrimSpace(id))
	assert.NotEqual(t, "   ", id)
}
