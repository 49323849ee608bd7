package certificate

import (
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

// FontRole identifies the text field a font is bound to.
type FontRole string

const (
	RoleTitle         FontRole = "title"
	RoleSubtitle      FontRole = "subtitle"
	RoleStudentName   FontRole = "student_name"
	RoleBody          FontRole = "body"
	RoleCollege       FontRole = "college"
	RoleSignature     FontRole = "signature"
	RoleMentorName    FontRole = "mentor_name"
	RoleCertificateID FontRole = "certificate_id"
)

// FontSpec binds a role to a drawable font. When the backing TTF asset is
// missing the role resolves to a built-in core font and Fallback is set.
type FontSpec struct {
	Role      FontRole `json:"role"`
	Family    string   `json:"family"`
	Style     string   `json:"style"` // "", "B", "I"
	Size      float64  `json:"size"`
	AssetFile string   `json:"asset_file,omitempty"`
	Fallback  bool     `json:"fallback"`
}

// FontTable holds the resolved font for every role. Built once at startup
// and reused for every row in a batch.
type FontTable map[FontRole]FontSpec

type fontRoleDef struct {
	role           FontRole
	family         string
	style          string
	size           float64
	asset          string
	fallbackFamily string
	fallbackStyle  string
}

// Fixed role table. Asset paths are relative to the fonts directory; the
// fallback column mirrors the branding fonts with core equivalents.
var fontRoles = []fontRoleDef{
	{RoleTitle, "Unna", "B", 34, "Unna-Bold.ttf", "Helvetica", "B"},
	{RoleSubtitle, "Unna", "I", 16, "Unna-Italic.ttf", "Helvetica", "I"},
	{RoleStudentName, "Lora", "", 28, "Lora-Regular.ttf", "Times", ""},
	{RoleBody, "Lora", "B", 14.3, "Lora-Bold.ttf", "Times", "B"},
	{RoleCollege, "Lora", "B", 14.3, "Lora-Bold.ttf", "Times", "B"},
	{RoleSignature, "AlexBrush", "", 18, "AlexBrush-Regular.ttf", "Courier", "B"},
	{RoleMentorName, "Lora", "", 12, "Lora-Regular.ttf", "Times", ""},
	{RoleCertificateID, "Lora", "", 9, "Lora-Regular.ttf", "Times", ""},
}

// ResolveFonts builds the font table for a batch. Each role's TTF asset is
// checked once under fontsDir; a missing, unreadable, or corrupt asset degrades that
// role to its core fallback with a warning. Resolution never fails.
func ResolveFonts(fontsDir string, logger *zap.Logger) FontTable {
	table := make(FontTable, len(fontRoles))
	usable := make(map[string]bool, len(fontRoles))
	for _, def := range fontRoles {
		assetPath := filepath.Join(fontsDir, def.asset)
		ok, checked := usable[assetPath]
		if !checked {
			ok = usableFontAsset(def.family, def.style, assetPath)
			usable[assetPath] = ok
		}
		if !ok {
			logger.Warn("Font asset unavailable, using fallback",
				zap.String("role", string(def.role)),
				zap.String("asset", assetPath),
				zap.String("fallback", def.fallbackFamily+def.fallbackStyle))
			table[def.role] = FontSpec{
				Role:     def.role,
				Family:   def.fallbackFamily,
				Style:    def.fallbackStyle,
				Size:     def.size,
				Fallback: true,
			}
			continue
		}
		table[def.role] = FontSpec{
			Role:      def.role,
			Family:    def.family,
			Style:     def.style,
			Size:      def.size,
			AssetFile: assetPath,
		}
	}
	return table
}

// usableFontAsset registers the TTF against a scratch document. A missing,
// unreadable, or corrupt file is rejected here so the role degrades before
// any row renders.
func usableFontAsset(family, style, path string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	scratch := gofpdf.New("P", "pt", "A4", "")
	scratch.AddUTF8Font(family, style, path)
	return !scratch.Err()
}

// Register adds every resolved TTF font to a document. Core fallbacks are
// built into gofpdf and need no registration.
func (t FontTable) Register(pdf *gofpdf.Fpdf) {
	seen := make(map[string]bool)
	for _, spec := range t {
		if spec.Fallback {
			continue
		}
		key := spec.Family + "/" + spec.Style
		if seen[key] {
			continue
		}
		seen[key] = true
		pdf.AddUTF8Font(spec.Family, spec.Style, spec.AssetFile)
	}
}

// Apply selects the role's font on the document.
func (t FontTable) Apply(pdf *gofpdf.Fpdf, role FontRole) FontSpec {
	spec := t[role]
	pdf.SetFont(spec.Family, spec.Style, spec.Size)
	return spec
}

// FallbackRoles lists roles that resolved to a core font, for reporting.
func (t FontTable) FallbackRoles() []FontRole {
	var roles []FontRole
	for _, def := range fontRoles {
		if spec, ok := t[def.role]; ok && spec.Fallback {
			roles = append(roles, def.role)
		}
	}
	return roles
}
