package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
	"sleepreport/ports"

	"github.com/xuri/excelize/v2"
)

// column aliases written by the CSV export tooling
var headerAliases = map[string]string{
	"time_utc":           sleep.FieldTime,
	"Sleep Stage (code)": sleep.FieldStageLevel,
}

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadSheet reads sheet (ignored for CSV) into header-keyed rows
func (r *DataReader) ReadSheet(sheet string) (*SheetData, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows(sheet)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("%s has no header row", r.filePath)
	}
	return r.processRows(rows), nil
}

func (r *DataReader) readExcelRows(sheet string) ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
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
	log.Printf("[DataReader] CSV file read (%d rows)", len(rows))
	return rows, nil
}

// processRows converts raw string rows into SheetData
func (r *DataReader) processRows(rows [][]string) *SheetData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		rowData := make(RawRowData, len(headers))
		for j, cell := range rows[i] {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}
	return &SheetData{Headers: headers, Rows: dataRows}
}

// WorkbookSource serves sleep data from exported workbooks or CSV files.
// Files are re-read on every fetch.
type WorkbookSource struct {
	config ExcelConfig
}

// NewWorkbookSource creates a file-backed data source
func NewWorkbookSource(config ExcelConfig) ports.SleepDataSource {
	if config.SummarySheet == "" {
		config.SummarySheet = SummarySheet
	}
	if config.IntradaySheet == "" {
		config.IntradaySheet = IntradaySheet
	}
	return &WorkbookSource{config: config}
}

// FetchAggregates implements ports.SleepDataSource
func (s *WorkbookSource) FetchAggregates(ctx context.Context, start, end core.Instant) ([]sleep.AggregateRecord, error) {
	data, err := NewDataReader(s.config.SummaryPath).ReadSheet(s.config.SummarySheet)
	if err != nil {
		return nil, err
	}

	records := make([]sleep.AggregateRecord, 0, len(data.Rows))
	skipped := 0
	for _, row := range data.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := sleep.AggregateFromFields(normalizeRow(row))
		if err != nil {
			skipped++
			continue
		}
		if inWindow(rec.Timestamp, start, end) {
			records = append(records, rec)
		}
	}
	if skipped > 0 {
		log.Printf("[WorkbookSource] skipped %d summary rows with unreadable time", skipped)
	}
	sleep.SortAggregates(records)
	return records, nil
}

// FetchSamples implements ports.SleepDataSource
func (s *WorkbookSource) FetchSamples(ctx context.Context, start, end core.Instant) ([]sleep.SamplePoint, error) {
	data, err := NewDataReader(s.config.IntradayPath).ReadSheet(s.config.IntradaySheet)
	if err != nil {
		return nil, err
	}

	samples := make([]sleep.SamplePoint, 0, len(data.Rows))
	for _, row := range data.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := sleep.SampleFromFields(normalizeRow(row))
		if inWindow(p.Timestamp, start, end) {
			samples = append(samples, p)
		}
	}
	return samples, nil
}

// normalizeRow maps export headers onto record field names. Empty cells and
// local-time display columns are dropped.
func normalizeRow(row RawRowData) map[string]any {
	fields := make(map[string]any, len(row))
	for header, cell := range row {
		if cell == "" || strings.HasPrefix(header, "time[") || header == "Sleep Stage (label)" {
			continue
		}
		if alias, ok := headerAliases[header]; ok {
			header = alias
		}
		fields[header] = cell
	}
	return fields
}

func inWindow(ts, start, end core.Instant) bool {
	return !ts.IsZero() && !ts.Before(start) && !ts.After(end)
}
