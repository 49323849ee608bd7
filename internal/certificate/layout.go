package certificate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/phpdave11/gofpdi"
	"go.uber.org/zap"

	"plutus-education/certificate-runner/internal/roster"
)

// Static layout constants in points on a landscape A4 page. Baselines are
// measured from the bottom edge to match the template design.
const (
	columnWidth    = 500.0
	nameMaxWidth   = 400.0
	bodyLeading    = 20.0
	edgeMargin     = 50.0
	titleBaseline  = 470.0
	subBaseline    = 340.0
	nameBaseline   = 290.0
	bodyTopLine    = 260.0
	collegeBase    = 205.0
	signatureBase  = 152.0
	mentorBaseline = 122.0
	certIDBaseline = 40.0
	certIDX        = 60.0
)

// Pinned so that regenerating a certificate yields byte-identical output.
var pdfCreationDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// LayoutOptions configures certificate rendering.
type LayoutOptions struct {
	TitleText    string `json:"title_text"`
	SubtitleText string `json:"subtitle_text"`
	Compression  bool   `json:"compression"`
}

// DefaultLayoutOptions returns the standard certificate layout.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		TitleText:    "Certificate of Participation",
		SubtitleText: "This certificate is proudly presented to",
		Compression:  true,
	}
}

// Renderer draws one certificate per student record onto a template.
type Renderer struct {
	fonts   FontTable
	options LayoutOptions
	logger  *zap.Logger
}

// NewRenderer creates a renderer bound to a resolved font table.
func NewRenderer(fonts FontTable, options LayoutOptions, logger *zap.Logger) *Renderer {
	return &Renderer{fonts: fonts, options: options, logger: logger}
}

// Render produces one certificate PDF for a record. The template (background
// PDF page 1, or a PNG/JPG image) is drawn full-bleed, then each text field
// is placed at its fixed position with its role font and case transform.
// A non-empty password encrypts the output. The whole document is built in
// memory; nothing is written to disk.
func (r *Renderer) Render(record roster.StudentRecord, templatePath, password string) ([]byte, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return nil, fmt.Errorf("template is not readable: %w", err)
	}

	pdf := gofpdf.New("L", "pt", "A4", "")
	pdf.SetCreationDate(pdfCreationDate)
	pdf.SetCompression(r.options.Compression)
	if password != "" {
		pdf.SetProtection(gofpdf.CnProtectPrint, password, "")
	}
	r.fonts.Register(pdf)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	if err := drawTemplate(pdf, templatePath, pageW, pageH); err != nil {
		return nil, err
	}

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTextColor(0, 0, 0)

	r.drawCentered(pdf, tr, RoleTitle, strings.ToUpper(r.options.TitleText), pageH-titleBaseline, 0)
	r.drawCentered(pdf, tr, RoleSubtitle, r.options.SubtitleText, pageH-subBaseline, 0)
	r.drawCentered(pdf, tr, RoleStudentName, strings.ToUpper(record.Name), pageH-nameBaseline, nameMaxWidth)

	body := fmt.Sprintf("The awardee has successfully completed the %s on “%s” conducted on %s at",
		record.EventType, record.CourseType, FormatCompletionDate(record.CompletionDate, r.logger))
	r.drawParagraph(pdf, tr, RoleBody, body, pageH-bodyTopLine)

	r.drawCentered(pdf, tr, RoleCollege, record.CollegeName, pageH-collegeBase, nameMaxWidth)
	r.drawInColumn(pdf, tr, RoleSignature, record.MentorSignature, pageH-signatureBase)
	r.drawInColumn(pdf, tr, RoleMentorName, strings.ToUpper(record.MentorName), pageH-mentorBaseline)

	spec := r.fonts.Apply(pdf, RoleCertificateID)
	pdf.Text(certIDX, pageH-certIDBaseline, r.encode(tr, spec, "Certificate ID: "+record.CertificateID))

	if pdf.Err() {
		return nil, fmt.Errorf("failed to compose certificate: %w", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write certificate: %w", err)
	}
	return buf.Bytes(), nil
}

// encode maps UTF-8 text to the code page of core fallback fonts; embedded
// TTF fonts take UTF-8 directly.
func (r *Renderer) encode(tr func(string) string, spec FontSpec, text string) string {
	if spec.Fallback {
		return tr(text)
	}
	return text
}

func (r *Renderer) drawCentered(pdf *gofpdf.Fpdf, tr func(string) string, role FontRole, text string, y, maxWidth float64) {
	spec := r.fonts.Apply(pdf, role)
	text = r.encode(tr, spec, text)
	if maxWidth > 0 {
		text = truncateToWidth(pdf, text, maxWidth)
	}
	pageW, _ := pdf.GetPageSize()
	x := (pageW - pdf.GetStringWidth(text)) / 2
	if x < edgeMargin {
		x = edgeMargin
	}
	pdf.Text(x, y, text)
}

// drawParagraph wraps text into the shared centered column, extending
// downward from y with fixed leading.
func (r *Renderer) drawParagraph(pdf *gofpdf.Fpdf, tr func(string) string, role FontRole, text string, y float64) {
	spec := r.fonts.Apply(pdf, role)
	text = r.encode(tr, spec, text)
	pageW, _ := pdf.GetPageSize()
	lines := wrapToWidth(pdf, text, columnWidth)
	for i, line := range lines {
		x := (pageW - pdf.GetStringWidth(line)) / 2
		pdf.Text(x, y+float64(i)*bodyLeading, line)
	}
}

// wrapToWidth breaks text on spaces so every line fits the given width; a
// single word wider than the column gets a line of its own. Widths come from
// whole-string measurement, which handles code-page translated text that the
// library splitter cannot.
func wrapToWidth(pdf *gofpdf.Fpdf, text string, width float64) []string {
	var lines []string
	line := ""
	for _, word := range strings.Split(text, " ") {
		if word == "" {
			continue
		}
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if line != "" && pdf.GetStringWidth(candidate) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// drawInColumn centers text within the same column as the body paragraph.
func (r *Renderer) drawInColumn(pdf *gofpdf.Fpdf, tr func(string) string, role FontRole, text string, y float64) {
	spec := r.fonts.Apply(pdf, role)
	text = r.encode(tr, spec, text)
	pageW, _ := pdf.GetPageSize()
	colStart := (pageW - columnWidth) / 2
	x := colStart + (columnWidth-pdf.GetStringWidth(text))/2
	pdf.Text(x, y, text)
}

func truncateToWidth(pdf *gofpdf.Fpdf, text string, maxWidth float64) string {
	if pdf.GetStringWidth(text) <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// drawTemplate puts the background asset under the text layer. The PDF
// importer panics on malformed files, so the import is isolated and the
// panic converted to a per-row error.
func drawTemplate(pdf *gofpdf.Fpdf, templatePath string, pageW, pageH float64) (err error) {
	switch strings.ToLower(filepath.Ext(templatePath)) {
	case ".png", ".jpg", ".jpeg":
		pdf.ImageOptions(templatePath, 0, 0, pageW, pageH, false, gofpdf.ImageOptions{}, 0, "")
		if pdf.Err() {
			err = fmt.Errorf("template image %q is malformed: %w", templatePath, pdf.Error())
		}
		return err
	default:
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("template %q is malformed: %v", templatePath, rec)
			}
		}()
		importPDFTemplate(pdf, templatePath, pageW, pageH)
		return err
	}
}

// importPDFTemplate imports page 1 of the template with a fresh gofpdi
// importer per document, keeping repeated renders byte-identical.
func importPDFTemplate(pdf *gofpdf.Fpdf, templatePath string, pageW, pageH float64) {
	imp := gofpdi.NewImporter()
	imp.SetSourceFile(templatePath)
	tpl := imp.ImportPage(1, "/MediaBox")
	pdf.ImportTemplates(imp.PutFormXobjectsUnordered())
	pdf.ImportObjects(imp.GetImportedObjectsUnordered())
	pdf.ImportObjPos(imp.GetImportedObjHashPos())
	tplName, scaleX, scaleY, tX, tY := imp.UseTemplate(tpl, 0, 0, pageW, pageH)
	pdf.UseImportedTemplate(tplName, scaleX, scaleY, tX, tY)
}

var completionDateLayouts = []string{"1/2/2006", "1/2/06"}

// FormatCompletionDate turns MM/DD/YYYY (or MM/DD/YY) into the display form
// used on certificates, e.g. "02nd Jul 2025". Unparseable input is returned
// verbatim with a warning.
func FormatCompletionDate(date string, logger *zap.Logger) string {
	for _, layout := range completionDateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(date)); err == nil {
			return fmt.Sprintf("%02d%s %s %d", t.Day(), ordinalSuffix(t.Day()), t.Format("Jan"), t.Year())
		}
	}
	logger.Warn("Invalid completion date, rendering as-is", zap.String("date", date))
	return date
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
