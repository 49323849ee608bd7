package roster

import (
	"fmt"
	"strings"
)

// StudentRecord is one validated roster row. All fields are required and
// trimmed of surrounding whitespace.
type StudentRecord struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	CertificateID   string `json:"certificate_id"`
	CourseType      string `json:"course_type"`
	CompletionDate  string `json:"completion_date"`
	CollegeName     string `json:"college_name"`
	MentorName      string `json:"mentor_name"`
	MentorSignature string `json:"mentor_signature"`
	EventType       string `json:"event_type"`

	// RowNumber is the 1-based data row in the source file (header excluded).
	RowNumber int `json:"row_number"`
}

// Validate reports the first empty required field, if any. Records with
// empty fields are carried through reading so the orchestrator can record
// them as per-row failures instead of dropping them silently.
func (r *StudentRecord) Validate() error {
	fields := []struct {
		column string
		value  string
	}{
		{ColumnName, r.Name},
		{ColumnEmail, r.Email},
		{ColumnCertificateID, r.CertificateID},
		{ColumnCourseType, r.CourseType},
		{ColumnCompletionDate, r.CompletionDate},
		{ColumnCollegeName, r.CollegeName},
		{ColumnMentorName, r.MentorName},
		{ColumnMentorSignature, r.MentorSignature},
		{ColumnEventType, r.EventType},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("row %d: missing required field %q", r.RowNumber, f.column)
		}
	}
	return nil
}

// FileStem returns the base name for this record's output file, preferring
// the certificate id and falling back to the student name.
func (r *StudentRecord) FileStem() string {
	if s := strings.TrimSpace(r.CertificateID); s != "" {
		return SanitizeFileName(s)
	}
	return SanitizeFileName(strings.TrimSpace(r.Name))
}

// SanitizeFileName replaces path separators and any character outside
// [A-Za-z0-9._-] with underscores so ids and names are safe on disk.
func SanitizeFileName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '.' || c == '-' || c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "certificate"
	}
	return b.String()
}
