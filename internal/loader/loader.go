// Package loader reads a sales export into an in-memory dataset.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/models"
)

type Format string

const (
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// headerScanRows bounds how far down a sheet the header row may sit.
const headerScanRows = 10

type options struct {
	sheet string
}

type Option func(*options)

// WithSheet reads the named worksheet instead of searching for one.
func WithSheet(name string) Option {
	return func(o *options) {
		o.sheet = name
	}
}

// DetectFormat resolves FormatAuto from the file extension.
func DetectFormat(path string, format Format) (Format, error) {
	switch format {
	case FormatCSV, FormatXLSX:
		return format, nil
	case FormatAuto, "":
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads path and returns the parsed dataset. Any failure is a
// *LoadError.
func Load(ctx context.Context, path string, format Format, opts ...Option) (*models.Dataset, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	resolved, err := DetectFormat(path, format)
	if err != nil {
		return nil, loadErr(path, "detect format", err)
	}

	var rows [][]string
	switch resolved {
	case FormatCSV:
		rows, err = readCSVFile(path)
	case FormatXLSX:
		rows, err = readWorkbook(path, o.sheet)
	}
	if err != nil {
		return nil, loadErr(path, "read", err)
	}

	ds, err := Parse(ctx, rows)
	if err != nil {
		return nil, loadErr(path, "parse", err)
	}
	ds.Path = path
	return ds, nil
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV reads every row from r. Rows may have differing widths.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadSheet(f, sheet)
}

// ReadSheet returns the rows of the named sheet, or of the first sheet
// whose leading rows contain a recognizable header.
func ReadSheet(f *excelize.File, sheet string) ([][]string, error) {
	if sheet != "" {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		return rows, nil
	}

	var first [][]string
	for i, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if i == 0 {
			first = rows
		}
		if _, _, ok := findHeader(rows); ok {
			slog.Debug("found sales data sheet", "sheet", name, "rows", len(rows))
			return rows, nil
		}
	}
	return first, nil
}

// Parse turns raw rows into a dataset. The header is the first of the
// leading rows that names at least one expected column.
func Parse(ctx context.Context, rows [][]string) (*models.Dataset, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	headerRow, cols, ok := findHeader(rows)
	if !ok {
		return nil, ErrNoHeader
	}

	records, err := parseRecords(ctx, rows[headerRow+1:], cols)
	if err != nil {
		return nil, err
	}

	present := make(map[models.Column]bool, len(cols))
	for c := range cols {
		present[c] = true
	}

	return &models.Dataset{
		Records:  records,
		Present:  present,
		LoadedAt: time.Now(),
	}, nil
}

func findHeader(rows [][]string) (int, map[models.Column]int, bool) {
	limit := min(len(rows), headerScanRows)
	for i := range limit {
		cols := make(map[models.Column]int)
		for j, cell := range rows[i] {
			c, ok := models.MatchColumn(cell)
			if !ok {
				continue
			}
			if _, dup := cols[c]; !dup {
				cols[c] = j
			}
		}
		if len(cols) > 0 {
			return i, cols, true
		}
	}
	return -1, nil, false
}

// IsLoadError reports whether err came from Load.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
