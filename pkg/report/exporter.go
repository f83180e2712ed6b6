// Package report writes the final per-region segment tables.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"rfm-segments/pkg/models"
)

// Format of the exported file
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

var header = []string{
	"customer_id", "registration_date", "email_type",
	"frequency_5y", "monetary_5y", "recency_days",
	"m_score", "f_score", "r_score", "mf_score",
	"customer_segment", "customer_group",
}

// Exporter writes one result file per region into a fixed output directory.
type Exporter struct {
	dir    string
	format Format
}

func NewExporter(dir string, format Format) *Exporter {
	return &Exporter{dir: dir, format: format}
}

// Export writes the region's rows and returns the output path.
func (e *Exporter) Export(region string, rows []models.OutputRow) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	switch e.format {
	case FormatExcel:
		path := filepath.Join(e.dir, fmt.Sprintf("rfm_segments_%s.xlsx", region))
		return path, e.writeExcel(path, rows)
	default:
		path := filepath.Join(e.dir, fmt.Sprintf("rfm_segments_%s.csv", region))
		return path, e.writeCSV(path, rows)
	}
}

func (e *Exporter) writeCSV(path string, rows []models.OutputRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = ';'
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(csvRecord(row)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (e *Exporter) writeExcel(path string, rows []models.OutputRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	cols := make([]interface{}, len(header))
	for i, h := range header {
		cols[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			row.CustomerID, formatDate(row.RegistrationDate), row.EmailType,
			row.FrequencyBlended, row.MonetaryBlended, row.RecencyDays,
			row.Scores.Monetary, row.Scores.Frequency, row.Scores.Recency, row.Scores.MF,
			string(row.Segment), row.PriorGroup,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func csvRecord(row models.OutputRow) []string {
	return []string{
		row.CustomerID,
		formatDate(row.RegistrationDate),
		row.EmailType,
		strconv.FormatFloat(row.FrequencyBlended, 'f', 0, 64),
		strconv.FormatFloat(row.MonetaryBlended, 'f', 2, 64),
		strconv.Itoa(row.RecencyDays),
		strconv.Itoa(row.Scores.Monetary),
		strconv.Itoa(row.Scores.Frequency),
		strconv.Itoa(row.Scores.Recency),
		strconv.Itoa(row.Scores.MF),
		string(row.Segment),
		row.PriorGroup,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
