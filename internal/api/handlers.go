package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studypile/internal/auth"
	"studypile/internal/models"
	"studypile/internal/objectstore"
	"studypile/internal/pipeline"
	"studypile/internal/service/material"
	"studypile/internal/status"
)

// StatusStore records and serves the ephemeral progress documents.
type StatusStore interface {
	Set(ctx context.Context, ownerUID, fileID string, step models.StageStep, message string) error
	SetError(ctx context.Context, ownerUID, fileID, message string) error
	Get(ctx context.Context, fileID string) (*models.ProcessingStatus, error)
}

// ContentStore persists raw submission bytes.
type ContentStore interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) error
}

// Scheduler starts the background task for an accepted submission. Calls
// return immediately; outcomes surface through status and summary stores.
type Scheduler interface {
	ScheduleFile(pipeline.FileJob)
	ScheduleURL(pipeline.URLJob)
	ScheduleText(pipeline.TextJob)
}

// Handler wires HTTP routes to the intake, retrieval and scheduling services.
type Handler struct {
	materials *material.Service
	statuses  StatusStore
	content   ContentStore
	pipeline  Scheduler
	auth      *auth.Service
}

// NewHandler constructs a Handler instance.
func NewHandler(materials *material.Service, statuses StatusStore, content ContentStore, scheduler Scheduler, authService *auth.Service) *Handler {
	return &Handler{
		materials: materials,
		statuses:  statuses,
		content:   content,
		pipeline:  scheduler,
		auth:      authService,
	}
}

// RegisterRoutes attaches all HTTP routes to the router. Everything under
// /api requires a verified bearer token; /health does not.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.GET("/health", h.health)

	api := router.Group("/api")
	api.Use(h.auth.Middleware())
	api.POST("/upload", h.uploadFile)
	api.POST("/upload/url", h.uploadURL)
	api.POST("/upload/text", h.uploadText)
	api.GET("/status/:file_id", h.getStatus)
	api.GET("/materials", h.listMaterials)
	api.GET("/summary/:file_id", h.getSummary)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) identity(c *gin.Context) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok || identity.UID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return auth.Identity{}, false
	}
	return identity, true
}

// reportStage records intake-side progress. Status is feedback, not truth:
// a failed write is logged and intake carries on.
func (h *Handler) reportStage(c *gin.Context, ownerUID, fileID string, step models.StageStep, message string) {
	if err := h.statuses.Set(c.Request.Context(), ownerUID, fileID, step, message); err != nil {
		log.Printf("intake %s: write %s status: %v", fileID, step.Stage, err)
	}
}

// intakeFailure answers a store failure on an already accepted upload: the
// terminal error status makes the failure visible to pollers, then the
// request fails with 500.
func (h *Handler) intakeFailure(c *gin.Context, ownerUID, fileID string, err error) {
	if serr := h.statuses.SetError(c.Request.Context(), ownerUID, fileID, err.Error()); serr != nil {
		log.Printf("intake %s: record failure: %v", fileID, serr)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func submissionResponse(c *gin.Context, sub *models.Submission) {
	c.JSON(http.StatusOK, gin.H{
		"file_id":      sub.FileID,
		"file_name":    sub.FileName,
		"file_type":    sub.FileType,
		"storage_path": sub.StoragePath,
		"status":       "processing",
	})
}

func (h *Handler) uploadFile(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	kind, supported := models.KindForContentType(contentType)
	if !supported {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type: " + contentType})
		return
	}
	if err := h.materials.EnsureProfile(c.Request.Context(), identity.UID, identity.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	fileID := uuid.NewString()
	fileName := filepath.Base(fileHeader.Filename)
	objectPath := objectstore.ObjectPath(identity.UID, fileID, fileName, kind)

	h.reportStage(c, identity.UID, fileID, models.StepUploading, "Uploading file...")

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
		return
	}

	if err := h.content.Upload(c.Request.Context(), objectPath, data, contentType); err != nil {
		h.intakeFailure(c, identity.UID, fileID, fmt.Errorf("store file: %w", err))
		return
	}

	sub := &models.Submission{
		FileID:      fileID,
		OwnerUID:    identity.UID,
		FileName:    fileName,
		FileType:    kind,
		StoragePath: objectPath,
		UploadTime:  time.Now().UTC(),
	}
	if err := h.materials.CreateSubmission(c.Request.Context(), sub); err != nil {
		h.intakeFailure(c, identity.UID, fileID, fmt.Errorf("record submission: %w", err))
		return
	}

	h.reportStage(c, identity.UID, fileID, models.StepUploaded, "File uploaded successfully")

	h.pipeline.ScheduleFile(pipeline.FileJob{
		OwnerUID:    identity.UID,
		FileID:      fileID,
		StoragePath: objectPath,
		Kind:        kind,
	})
	submissionResponse(c, sub)
}

type urlUploadRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func (h *Handler) uploadURL(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	var req urlUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	if err := h.materials.EnsureProfile(c.Request.Context(), identity.UID, identity.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = truncateRunes(rawURL, 100)
	}
	fileID := uuid.NewString()
	sub := &models.Submission{
		FileID:      fileID,
		OwnerUID:    identity.UID,
		FileName:    title,
		FileType:    models.KindURL,
		StoragePath: rawURL,
		UploadTime:  time.Now().UTC(),
	}
	if err := h.materials.CreateSubmission(c.Request.Context(), sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reportStage(c, identity.UID, fileID, models.StepExtractingURL, "Extracting content from URL...")

	h.pipeline.ScheduleURL(pipeline.URLJob{
		OwnerUID: identity.UID,
		FileID:   fileID,
		URL:      rawURL,
	})
	submissionResponse(c, sub)
}

type textUploadRequest struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}

func (h *Handler) uploadText(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	var req textUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	if err := h.materials.EnsureProfile(c.Request.Context(), identity.UID, identity.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = textNoteTitle(req.Text)
	}
	fileID := uuid.NewString()
	sub := &models.Submission{
		FileID:      fileID,
		OwnerUID:    identity.UID,
		FileName:    title,
		FileType:    models.KindURL,
		StoragePath: "text://" + fileID,
		UploadTime:  time.Now().UTC(),
	}
	if err := h.materials.CreateSubmission(c.Request.Context(), sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reportStage(c, identity.UID, fileID, models.StepSummarizingText, "Generating summary...")

	h.pipeline.ScheduleText(pipeline.TextJob{
		OwnerUID: identity.UID,
		FileID:   fileID,
		Text:     req.Text,
	})
	submissionResponse(c, sub)
}

func (h *Handler) getStatus(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	fileID := c.Param("file_id")
	doc, err := h.statuses.Get(c.Request.Context(), fileID)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Status not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if doc.OwnerUID != identity.UID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}
	resp := gin.H{
		"file_id":  doc.FileID,
		"status":   doc.Status,
		"progress": doc.Progress,
	}
	if doc.Message != "" {
		resp["message"] = doc.Message
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listMaterials(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	subs, err := h.materials.ListSubmissions(c.Request.Context(), identity.UID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	materials := make([]gin.H, 0, len(subs))
	for _, sub := range subs {
		row := gin.H{
			"file_id":        sub.FileID,
			"file_name":      sub.FileName,
			"file_type":      sub.FileType,
			"storage_path":   sub.StoragePath,
			"upload_time":    sub.UploadTime,
			"has_summary":    false,
			"latest_summary": nil,
		}
		latest, err := h.materials.LatestSummary(c.Request.Context(), sub.FileID)
		switch {
		case err == nil:
			row["has_summary"] = true
			row["latest_summary"] = latest.SummaryText
		case errors.Is(err, material.ErrNotFound):
			// not summarized yet
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		materials = append(materials, row)
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials})
}

func (h *Handler) getSummary(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	fileID := c.Param("file_id")
	sub, err := h.materials.GetSubmission(c.Request.Context(), fileID)
	if err != nil {
		if errors.Is(err, material.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// Ownership before summary existence: non-owners learn nothing about
	// whether a summary exists.
	if sub.OwnerUID != identity.UID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}
	latest, err := h.materials.LatestSummary(c.Request.Context(), fileID)
	if err != nil {
		if errors.Is(err, material.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Summary not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, latest)
}

// textNoteTitle derives a title for an untitled text note from its opening
// characters.
func textNoteTitle(text string) string {
	preview := strings.ReplaceAll(strings.TrimSpace(truncateRunes(text, 50)), "\n", " ")
	return "Text Note: " + preview + "..."
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
