package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ferredist/catalog-service/internal/metrics"
	"github.com/ferredist/catalog-service/internal/storage"
)

// maxUploadBytes caps supplier workbook uploads. The largest real price
// list seen so far is under 5MB.
const maxUploadBytes = 32 << 20

var uploadExtensions = []string{".xlsx", ".xlsm", ".csv"}

func allowedUploadExtension(ext string) bool {
	for _, e := range uploadExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// uploadKeyFor builds the storage key for an upload. The configured key
// supplies the directory and stem; the upload's real extension is kept so
// CSV files stay recognizable downstream.
func (h *Handlers) uploadKeyFor(ext string) string {
	return strings.TrimSuffix(h.uploadKey, filepath.Ext(h.uploadKey)) + ext
}

// currentUploadKey finds the stored workbook under whichever extension the
// last upload carried.
func (h *Handlers) currentUploadKey(ctx context.Context) (string, bool, error) {
	for _, ext := range uploadExtensions {
		key := h.uploadKeyFor(ext)
		exists, err := h.uploads.Exists(ctx, key)
		if err != nil {
			return "", false, err
		}
		if exists {
			return key, true, nil
		}
	}
	return "", false, nil
}

// UploadResponse represents a successful workbook upload
type UploadResponse struct {
	Key          string `json:"key"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	Checksum     string `json:"checksum"`
}

// UploadWorkbook stores a supplier price list for later reconciliation
// @Summary Upload a supplier workbook
// @Description Accepts a multipart upload of a supplier price list (.xlsx, .xlsm or .csv) and atomically replaces the previously stored one.
// @Tags reconcile
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Supplier price list"
// @Success 200 {object} UploadResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/admin/workbooks [post]
func (h *Handlers) UploadWorkbook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		metrics.ObserveUpload(false)
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadExtension(ext) {
		metrics.ObserveUpload(false)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unsupported file type %q, expected .xlsx, .xlsm or .csv", ext),
		})
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		metrics.ObserveUpload(false)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	if len(content) == 0 {
		metrics.ObserveUpload(false)
		c.JSON(http.StatusBadRequest, gin.H{"error": "uploaded file is empty"})
		return
	}

	key := h.uploadKeyFor(ext)
	meta := &storage.Metadata{
		ContentType:  header.Header.Get("Content-Type"),
		OriginalName: header.Filename,
		UploadedAt:   time.Now().UTC(),
	}
	if err := h.uploads.Put(c.Request.Context(), key, content, meta); err != nil {
		metrics.ObserveUpload(false)
		log.Error().Err(err).Str("name", header.Filename).Msg("Failed to store workbook upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store workbook"})
		return
	}

	// A .csv replacing a .xlsm lands under a different key; drop the old
	// one so there is exactly one latest workbook
	for _, other := range uploadExtensions {
		if other == ext {
			continue
		}
		if err := h.uploads.Delete(c.Request.Context(), h.uploadKeyFor(other)); err != nil {
			log.Warn().Err(err).Str("key", h.uploadKeyFor(other)).Msg("Failed to remove superseded workbook")
		}
	}

	info, err := h.uploads.GetInfo(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stat stored workbook"})
		return
	}

	metrics.ObserveUpload(true)
	log.Info().
		Str("name", header.Filename).
		Int64("size", info.Size).
		Msg("Supplier workbook uploaded")

	c.JSON(http.StatusOK, UploadResponse{
		Key:          key,
		OriginalName: header.Filename,
		Size:         info.Size,
		Checksum:     info.Checksum,
	})
}

// GetWorkbookInfo reports the currently stored supplier workbook
// @Summary Get stored workbook info
// @Tags reconcile
// @Produce json
// @Success 200 {object} storage.FileInfo
// @Failure 404 {object} map[string]string "No workbook stored"
// @Router /internal/admin/workbooks [get]
func (h *Handlers) GetWorkbookInfo(c *gin.Context) {
	key, exists, err := h.currentUploadKey(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stat workbook"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "no supplier workbook uploaded"})
		return
	}

	info, err := h.uploads.GetInfo(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stat workbook"})
		return
	}

	c.JSON(http.StatusOK, info)
}
