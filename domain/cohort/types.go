package cohort

import (
	"math"
	"strconv"
	"strings"
)

// Row is one patient record keyed by column header.
type Row map[string]string

// Endpoint names the time-to-event and event-status columns of one survival endpoint.
type Endpoint struct {
	TimeColumn   string `json:"time_column"`
	StatusColumn string `json:"status_column"`
}

// missingTokens are cell values treated as absent.
var missingTokens = map[string]bool{
	"":                 true,
	"na":               true,
	"nan":              true,
	"null":             true,
	"none":             true,
	"[not available]":  true,
	"[not applicable]": true,
	"[discrepancy]":    true,
	"[unknown]":        true,
	"[not evaluated]":  true,
}

// IsMissing reports whether a raw cell carries no value.
func IsMissing(cell string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(cell))]
}

// ParseTime parses a time-to-event cell. ok is false for missing cells.
func ParseTime(cell string) (value float64, ok bool, err error) {
	if IsMissing(cell) {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false, strconv.ErrRange
	}
	return v, true, nil
}

// ParseStatus parses an event-status cell. Accepts numeric 0/1, booleans,
// yes/no and the "1:DECEASED" / "0:LIVING" style used by TCGA exports.
func ParseStatus(cell string) (event bool, ok bool, err error) {
	if IsMissing(cell) {
		return false, false, nil
	}
	s := strings.ToLower(strings.TrimSpace(cell))
	if i := strings.Index(s, ":"); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	switch s {
	case "1", "1.0", "true", "yes":
		return true, true, nil
	case "0", "0.0", "false", "no":
		return false, true, nil
	}
	return false, false, strconv.ErrSyntax
}
