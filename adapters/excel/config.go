package excel

import (
	"path/filepath"
	"strings"
)

// ReaderConfig holds configuration for the cohort file source
type ReaderConfig struct {
	FilePath string `json:"file_path"`
	Sheet    string `json:"sheet"` // xlsx only
	Comma    rune   `json:"comma"` // csv/tsv only, derived from the extension when zero
}

// DefaultReaderConfig returns the defaults for path
func DefaultReaderConfig(path string) ReaderConfig {
	return ReaderConfig{FilePath: path, Sheet: "Sheet1"}
}

func (c ReaderConfig) fileType() string {
	switch strings.ToLower(filepath.Ext(c.FilePath)) {
	case ".csv":
		return "csv"
	case ".tsv", ".txt":
		return "tsv"
	}
	return "xlsx"
}

func (c ReaderConfig) comma() rune {
	if c.Comma != 0 {
		return c.Comma
	}
	if c.fileType() == "tsv" {
		return '\t'
	}
	return ','
}
