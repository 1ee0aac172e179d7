package excel

// RawRowData represents one spreadsheet row as header to cell text
type RawRowData map[string]string

// SheetData represents a whole sheet before it becomes a cohort
type SheetData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}
