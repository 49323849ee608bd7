package roster

import (
	"fmt"
	"strings"
)

// Required roster columns. Matching is case-insensitive and order-independent;
// unrecognized columns pass through untouched.
const (
	ColumnName            = "name"
	ColumnEmail           = "email"
	ColumnCertificateID   = "certificate_id"
	ColumnCourseType      = "course_type"
	ColumnCompletionDate  = "completion_date"
	ColumnCollegeName     = "college_name"
	ColumnMentorName      = "mentor_name"
	ColumnMentorSignature = "mentor_signature"
	ColumnEventType       = "event_type"
)

// RequiredColumns lists every column a roster must contain.
var RequiredColumns = []string{
	ColumnName,
	ColumnEmail,
	ColumnCertificateID,
	ColumnCourseType,
	ColumnCompletionDate,
	ColumnCollegeName,
	ColumnMentorName,
	ColumnMentorSignature,
	ColumnEventType,
}

// Header maps a normalized column name to its index in the source row.
type Header map[string]int

// SchemaError reports required columns absent from a roster header.
// It is fatal to the whole batch and is raised before any row is processed.
type SchemaError struct {
	Missing []string `json:"missing"`
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("roster is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ValidateHeader checks that every required column is present in the given
// header row. Comparison is whitespace-tolerant and case-insensitive; a
// leading UTF-8 BOM on the first cell is ignored. Returns the column→index
// mapping on success or a *SchemaError naming each missing column.
func ValidateHeader(columns []string) (Header, error) {
	header := make(Header, len(columns))
	for i, col := range columns {
		if i == 0 {
			col = strings.TrimPrefix(col, "\uFEFF")
		}
		name := NormalizeColumn(col)
		if name == "" {
			continue
		}
		if _, ok := header[name]; !ok {
			header[name] = i
		}
	}

	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := header[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return header, nil
}

// NormalizeColumn lowercases and trims a column name for comparison.
func NormalizeColumn(col string) string {
	return strings.ToLower(strings.TrimSpace(col))
}

// field returns the trimmed cell for a named column, or "" when the row is
// short or the column is absent.
func (h Header) field(row []string, column string) string {
	idx, ok := h[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
