package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal"
)

// RequestReader loads batch analysis requests from an Excel or CSV sheet. The first row is a
// header naming the columns; domains are separated by ';' or ','.
type RequestReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewRequestReader creates a reader for filePath; the extension picks the format
func NewRequestReader(filePath string, logger *internal.Logger) *RequestReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &RequestReader{filePath: filePath, fileType: fileType, logger: logger}
}

// ReadRequests parses every data row into a request. Rows are returned in file order;
// a row missing a required column fails the whole file with its 1-based line number.
func (r *RequestReader) ReadRequests() ([]hre.Request, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	for _, col := range []string{ColumnTask, ColumnGoal, ColumnDomains} {
		if !hasHeader(data.Headers, col) {
			return nil, fmt.Errorf("%s file is missing required column %q", strings.ToUpper(r.fileType), col)
		}
	}

	requests := make([]hre.Request, 0, len(data.Rows))
	for i, row := range data.Rows {
		line := i + 2
		lang, ok := hre.ParseLang(row[ColumnLang])
		if !ok {
			return nil, fmt.Errorf("line %d: unsupported lang %q", line, row[ColumnLang])
		}
		req := hre.Request{
			Task:        row[ColumnTask],
			Goal:        row[ColumnGoal],
			Constraints: row[ColumnConstraints],
			Domains:     SplitDomains(row[ColumnDomains]),
			Lang:        lang,
		}
		if req.Task == "" || req.Goal == "" || len(req.Domains) == 0 {
			return nil, fmt.Errorf("line %d: task, goal and domains are required", line)
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// ReadData reads the raw sheet
func (r *RequestReader) ReadData() (*SheetData, error) {
	r.logger.Debug("[RequestReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads the first sheet of the workbook
func (r *RequestReader) readExcelData() (*SheetData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	r.logger.Debug("[RequestReader] %s read in %.2fms (%d rows)", sheet,
		float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel file must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *RequestReader) readCSVData() (*SheetData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

// processRows converts raw string rows into SheetData, skipping fully blank rows
func (r *RequestReader) processRows(rows [][]string) (*SheetData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.ToLower(strings.TrimSpace(header))
	}

	var dataRows []RawRowData
	for _, row := range rows[1:] {
		rowData := make(RawRowData)
		blank := true
		for j, cell := range row {
			if j < len(headers) {
				v := strings.TrimSpace(cell)
				rowData[headers[j]] = v
				if v != "" {
					blank = false
				}
			}
		}
		if !blank {
			dataRows = append(dataRows, rowData)
		}
	}

	r.logger.Info("[RequestReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &SheetData{Headers: headers, Rows: dataRows}, nil
}

// SplitDomains splits a domains cell on ';' or ','
func SplitDomains(cell string) []string {
	fields := strings.FieldsFunc(cell, func(r rune) bool { return r == ';' || r == ',' })
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func hasHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}
