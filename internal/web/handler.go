package web

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"plutus-education/certificate-runner/internal/certificate"
	"plutus-education/certificate-runner/internal/config"
	"plutus-education/certificate-runner/internal/notify"
	"plutus-education/certificate-runner/internal/roster"
)

// Handler serves the certificate workflow endpoints.
type Handler struct {
	cfg        *config.Config
	service    *certificate.Service
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
}

// NewHandler wires the workflow services into HTTP handlers.
func NewHandler(cfg *config.Config, service *certificate.Service, dispatcher *notify.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{cfg: cfg, service: service, dispatcher: dispatcher, logger: logger}
}

// Health endpoint.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunRequest mirrors the optional form fields of a run submission.
type RunRequest struct {
	OutputName string `form:"output"`
	Password   string `form:"password"`
	Send       bool   `form:"send"`
}

// RunResponse is the JSON result of a workflow run.
type RunResponse struct {
	RunID      string                   `json:"run_id"`
	Batch      *certificate.BatchResult `json:"batch"`
	Send       *notify.SendReport       `json:"send,omitempty"`
	ArchiveURL string                   `json:"archive_url,omitempty"`
}

// CreateRun accepts a multipart roster + template upload, generates the
// certificates, optionally emails them, and reports the batch summary.
// A schema failure rejects the whole run before any row is processed.
func (h *Handler) CreateRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rosterFile, err := c.FormFile("roster")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roster file is required"})
		return
	}
	templateFile, err := c.FormFile("template")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "template file is required"})
		return
	}

	runID := uuid.New().String()
	runDir := filepath.Join(h.cfg.Server.UploadsDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		h.logger.Error("Failed to create run directory", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare run"})
		return
	}

	rosterPath, err := h.saveUpload(c, rosterFile, runDir, "roster")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store roster upload"})
		return
	}
	templatePath, err := h.saveUpload(c, templateFile, runDir, "template")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store template upload"})
		return
	}

	records, err := roster.ReadFile(rosterPath)
	if err != nil {
		if schemaErr, ok := err.(*roster.SchemaError); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":           "roster schema is invalid",
				"missing_columns": schemaErr.Missing,
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outputName := strings.TrimSpace(req.OutputName)
	if outputName == "" {
		outputName = "run_" + runID
	}
	outputDir := filepath.Join(h.cfg.Output.Dir, roster.SanitizeFileName(outputName))

	batch, err := h.service.GenerateBatch(records, templatePath, certificate.BatchOptions{
		OutputDir:   outputDir,
		Password:    req.Password,
		ArchivePath: filepath.Join(runDir, "certificates.zip"),
	})
	if err != nil {
		h.logger.Error("Batch run failed", zap.String("run_id", runID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := RunResponse{
		RunID:      runID,
		Batch:      batch,
		ArchiveURL: fmt.Sprintf("/runs/%s/archive", runID),
	}
	if req.Send {
		resp.Send = h.dispatcher.SendCertificates(c.Request.Context(), batch)
	}
	c.JSON(http.StatusOK, resp)
}

// DownloadArchive streams the ZIP produced by a previous run.
func (h *Handler) DownloadArchive(c *gin.Context) {
	runID := c.Param("id")
	if _, err := uuid.Parse(runID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}
	archivePath := filepath.Join(h.cfg.Server.UploadsDir, runID, "certificates.zip")
	if _, err := os.Stat(archivePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive not found"})
		return
	}
	c.FileAttachment(archivePath, "certificates.zip")
}

func (h *Handler) saveUpload(c *gin.Context, file *multipart.FileHeader, dir, stem string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	path := filepath.Join(dir, stem+ext)
	if err := c.SaveUploadedFile(file, path); err != nil {
		h.logger.Error("Failed to save upload",
			zap.String("file", file.Filename),
			zap.Error(err))
		return "", err
	}
	return path, nil
}
