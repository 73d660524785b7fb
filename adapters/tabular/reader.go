package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"creditdash/domain/core"
	"creditdash/domain/dataset"
	apperrors "creditdash/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Format is the on-disk layout of a tabular source
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// FormatFor picks the format from a file name; unknown extensions are read as CSV
func FormatFor(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return FormatXLSX
	case ".json":
		return FormatJSON
	}
	return FormatCSV
}

// RawTable is the header and string cells of a source before type inference
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// Reader parses CSV, Excel and JSON-records bytes into typed datasets
type Reader struct {
	coercer *TypeCoercer
	logger  *slog.Logger
}

// NewReader creates a reader using the given coercion rules
func NewReader(config CoercionConfig) *Reader {
	return &Reader{
		coercer: NewTypeCoercer(config),
		logger:  slog.Default().With("component", "tabular"),
	}
}

// Decode parses raw bytes and runs the type-inference pass. No partial dataset
// is returned on failure.
func (r *Reader) Decode(src dataset.Source, data []byte) (*dataset.Dataset, error) {
	start := time.Now()
	raw, err := r.Parse(src.Name, data)
	if err != nil {
		return nil, err
	}
	ds, err := r.Build(core.DatasetID(core.NewSourceID(src.Key)), src, raw)
	if err != nil {
		return nil, err
	}
	r.logger.Info("dataset decoded",
		"source", src.Name,
		"columns", ds.NumColumns(),
		"rows", ds.NumRows(),
		"duration_ms", float64(time.Since(start).Microseconds())/1000)
	return ds, nil
}

// Parse splits bytes into a header and string rows according to the file format
func (r *Reader) Parse(name string, data []byte) (*RawTable, error) {
	switch FormatFor(name) {
	case FormatXLSX:
		return r.readExcelData(data)
	case FormatJSON:
		return r.readJSONData(data)
	default:
		return r.readCSVData(data)
	}
}

// Build runs the explicit per-column type-inference pass over a raw table
func (r *Reader) Build(id core.DatasetID, src dataset.Source, raw *RawTable) (*dataset.Dataset, error) {
	columns := make([]*dataset.Column, len(raw.Headers))
	cells := make([]string, len(raw.Rows))
	for j, header := range raw.Headers {
		for i, row := range raw.Rows {
			cells[i] = row[j]
		}
		columns[j] = r.coercer.InferColumn(header, cells)
	}
	ds, err := dataset.New(id, src, columns)
	if err != nil {
		return nil, apperrors.ParseError("inconsistent table shape", err)
	}
	return ds, nil
}

// readCSVData reads comma-separated text with a header row
func (r *Reader) readCSVData(data []byte) (*RawTable, error) {
	if !utf8.Valid(data) {
		return nil, apperrors.ParseError("file is not UTF-8 encoded text", nil)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.ParseError("malformed CSV", err)
		}
		rows = append(rows, rec)
	}

	return r.processRows(rows)
}

// readExcelData reads the first sheet of an .xlsx workbook
func (r *Reader) readExcelData(data []byte) (*RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.ParseError("malformed Excel workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.ParseError("workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.ParseError(fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}

	// GetRows keeps interior blank rows as empty slices; CSV readers skip them
	kept := rows[:0]
	for _, row := range rows {
		if len(row) > 0 {
			kept = append(kept, row)
		}
	}
	return r.processRows(kept)
}

// processRows normalizes headers and row widths
func (r *Reader) processRows(rows [][]string) (*RawTable, error) {
	if len(rows) == 0 {
		return nil, apperrors.ParseError("missing header row", nil)
	}

	headers := normalizeHeaders(rows[0])
	width := len(headers)

	dataRows := make([][]string, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) > width {
			if !trailingBlank(row[width:]) {
				return nil, apperrors.ParseError(
					fmt.Sprintf("expected %d fields in line %d, saw %d", width, i+2, len(row)), nil)
			}
			row = row[:width]
		}
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		}
		dataRows = append(dataRows, row)
	}

	return &RawTable{Headers: headers, Rows: dataRows}, nil
}

// normalizeHeaders trims names, names blanks "Unnamed: i" and suffixes duplicates with .1, .2, ...
func normalizeHeaders(headerRow []string) []string {
	headers := make([]string, len(headerRow))
	seen := make(map[string]int, len(headerRow))
	for i, header := range headerRow {
		name := strings.TrimSpace(header)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if _, dup := seen[name]; dup {
			base := name
			for {
				seen[base]++
				name = fmt.Sprintf("%s.%d", base, seen[base])
				if _, taken := seen[name]; !taken {
					break
				}
			}
		}
		seen[name] = 0
		headers[i] = name
	}
	return headers
}

func trailingBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
