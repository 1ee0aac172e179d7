package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"ecttool/domain/cohort"
	"ecttool/domain/core"
	"ecttool/domain/survival"
	"ecttool/internal"
)

// CohortReader loads the patient table from an Excel or delimited text file
type CohortReader struct {
	config ReaderConfig
	logger *internal.Logger
}

// NewCohortReader creates a reader for the configured file
func NewCohortReader(config ReaderConfig, logger *internal.Logger) *CohortReader {
	if config.Sheet == "" {
		config.Sheet = "Sheet1"
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CohortReader{config: config, logger: logger.With("CohortReader")}
}

// ReadCohort reads the file and validates the endpoint columns.
func (r *CohortReader) ReadCohort(ctx context.Context) (*cohort.Table, error) {
	data, err := r.ReadData(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]cohort.Row, len(data.Rows))
	for i, raw := range data.Rows {
		rows[i] = cohort.Row(raw)
	}
	table, err := cohort.New(data.Headers, rows, survival.Endpoints()...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.config.FilePath, err)
	}
	r.logger.Info("cohort loaded: %d patients, %d columns", table.Len(), len(data.Headers))
	return table, nil
}

// ReadData reads the raw sheet
func (r *CohortReader) ReadData(ctx context.Context) (*SheetData, error) {
	fileType := r.config.fileType()
	r.logger.Debug("reading %s file: %s", fileType, r.config.FilePath)

	if _, err := os.Stat(r.config.FilePath); os.IsNotExist(err) {
		return nil, core.NewInvalidInputError("file", fmt.Sprintf("%s file not found: %s", strings.ToUpper(fileType), r.config.FilePath))
	}

	var (
		rows [][]string
		err  error
	)
	switch fileType {
	case "csv", "tsv":
		rows, err = r.readDelimited()
	default:
		rows, err = r.readExcel()
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, core.NewInvalidInputError("file", "need a header row and at least one patient")
	}
	return r.processRows(rows), nil
}

func (r *CohortReader) readExcel() ([][]string, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.config.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.config.Sheet, err)
	}
	r.logger.Debug("%s read in %.2fms (%d rows)", r.config.Sheet, float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *CohortReader) readDelimited() ([][]string, error) {
	file, err := os.Open(r.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", r.config.FilePath, err)
	}
	defer file.Close()

	start := time.Now()
	reader := csv.NewReader(file)
	reader.Comma = r.config.comma()
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.config.FilePath, err)
	}
	r.logger.Debug("delimited file read in %.2fms (%d rows)", float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// processRows keys every cell by its header. Short rows leave the trailing
// columns empty; cells past the last header are dropped.
func (r *CohortReader) processRows(rows [][]string) *SheetData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rowData := make(RawRowData, len(headers))
		for j, header := range headers {
			if j < len(row) {
				rowData[header] = strings.TrimSpace(row[j])
			} else {
				rowData[header] = ""
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Debug("%d columns, %d rows", len(headers), len(dataRows))
	return &SheetData{Headers: headers, Rows: dataRows}
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
