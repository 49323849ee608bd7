package certificate

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"plutus-education/certificate-runner/internal/roster"
	"plutus-education/certificate-runner/pkg/archive"
)

// BatchOptions configures one generation pass.
type BatchOptions struct {
	OutputDir   string `json:"output_dir"`
	Password    string `json:"password,omitempty"`     // empty = unencrypted output
	ArchivePath string `json:"archive_path,omitempty"` // empty = no ZIP archive
}

// RowResult is the outcome for one roster row.
type RowResult struct {
	Row           int    `json:"row"`
	CertificateID string `json:"certificate_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	OutputPath    string `json:"output_path,omitempty"`
	FileSize      int64  `json:"file_size,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Succeeded reports whether the row produced a certificate file.
func (r RowResult) Succeeded() bool { return r.Error == "" }

// BatchResult aggregates per-row outcomes for one pass, in roster order.
type BatchResult struct {
	Results     []RowResult `json:"results"`
	Total       int         `json:"total"`
	Succeeded   int         `json:"succeeded"`
	Failed      int         `json:"failed"`
	OutputDir   string      `json:"output_dir"`
	ArchivePath string      `json:"archive_path,omitempty"`
}

// CertificateRenderer produces one finished document per record. Satisfied
// by *Renderer.
type CertificateRenderer interface {
	Render(record roster.StudentRecord, templatePath, password string) ([]byte, error)
}

// Service runs certificate generation batches.
type Service struct {
	renderer CertificateRenderer
	logger   *zap.Logger
}

// NewService creates a batch service around a renderer.
func NewService(renderer CertificateRenderer, logger *zap.Logger) *Service {
	return &Service{renderer: renderer, logger: logger}
}

// GenerateBatch processes records strictly in roster order. Each row is
// rendered in memory and written to <output_dir>/<id>.pdf only on success,
// so a failed row never leaves a partial file. Any single row's failure is
// recorded and the batch continues; only setup problems (unusable output
// directory, archive write) fail the call itself.
func (s *Service) GenerateBatch(records []roster.StudentRecord, templatePath string, opts BatchOptions) (*BatchResult, error) {
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BatchResult{OutputDir: opts.OutputDir}
	seen := make(map[string]int)
	var outputs []string

	for _, record := range records {
		row := RowResult{
			Row:           record.RowNumber,
			CertificateID: record.CertificateID,
			Name:          record.Name,
			Email:         record.Email,
		}
		result.Total++

		if err := s.generateRow(record, templatePath, opts, seen, &row); err != nil {
			row.Error = err.Error()
			result.Failed++
			s.logger.Error("Certificate generation failed",
				zap.Int("row", record.RowNumber),
				zap.String("name", record.Name),
				zap.Error(err))
		} else {
			result.Succeeded++
			outputs = append(outputs, row.OutputPath)
			s.logger.Info("Generated certificate",
				zap.Int("row", record.RowNumber),
				zap.String("output", row.OutputPath))
		}
		result.Results = append(result.Results, row)
	}

	if opts.ArchivePath != "" {
		if err := archive.WriteZip(opts.ArchivePath, outputs); err != nil {
			return result, fmt.Errorf("failed to write archive: %w", err)
		}
		result.ArchivePath = opts.ArchivePath
		s.logger.Info("Wrote certificate archive",
			zap.String("archive", opts.ArchivePath),
			zap.Int("files", len(outputs)))
	}

	s.logger.Info("Batch completed",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *Service) generateRow(record roster.StudentRecord, templatePath string, opts BatchOptions, seen map[string]int, row *RowResult) (err error) {
	// A panic anywhere in rendering must cost only this row, not the batch.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("certificate rendering panicked: %v", rec)
		}
	}()

	if err := record.Validate(); err != nil {
		return err
	}

	stem := record.FileStem()
	if prev, dup := seen[stem]; dup {
		// Duplicate ids keep the original overwrite behavior.
		s.logger.Warn("Duplicate certificate file name, overwriting earlier output",
			zap.String("file", stem+".pdf"),
			zap.Int("earlier_row", prev),
			zap.Int("row", record.RowNumber))
	}
	seen[stem] = record.RowNumber

	data, err := s.renderer.Render(record, templatePath, opts.Password)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(opts.OutputDir, stem+".pdf")
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write certificate file: %w", err)
	}
	row.OutputPath = outputPath
	row.FileSize = int64(len(data))
	return nil
}
