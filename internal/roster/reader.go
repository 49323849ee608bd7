package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadFile reads a roster from disk, dispatching on the file extension.
// ".xlsx" is read through excelize; anything else is treated as CSV.
func ReadFile(path string) ([]StudentRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a UTF-8 roster CSV with a required header row. The header
// is validated against RequiredColumns before any data row is read; extra
// columns are ignored. Rows with empty required fields are returned as-is
// so callers can record them as per-row failures.
func ReadCSV(r io.Reader) ([]StudentRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headerRow, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("roster is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read roster header: %w", err)
	}

	header, err := ValidateHeader(headerRow)
	if err != nil {
		return nil, err
	}

	var records []StudentRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse roster row %d: %w", len(records)+1, err)
		}
		records = append(records, recordFromRow(header, row, len(records)+1))
	}
	return records, nil
}

// ReadXLSX reads the first sheet of an Excel roster. The first row is the
// header and follows the same validation as CSV input.
func ReadXLSX(path string) ([]StudentRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("roster is empty")
	}

	header, err := ValidateHeader(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]StudentRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		records = append(records, recordFromRow(header, row, i+1))
	}
	return records, nil
}

func recordFromRow(header Header, row []string, rowNumber int) StudentRecord {
	return StudentRecord{
		Name:            header.field(row, ColumnName),
		Email:           header.field(row, ColumnEmail),
		CertificateID:   header.field(row, ColumnCertificateID),
		CourseType:      header.field(row, ColumnCourseType),
		CompletionDate:  header.field(row, ColumnCompletionDate),
		CollegeName:     header.field(row, ColumnCollegeName),
		MentorName:      header.field(row, ColumnMentorName),
		MentorSignature: header.field(row, ColumnMentorSignature),
		EventType:       header.field(row, ColumnEventType),
		RowNumber:       rowNumber,
	}
}
