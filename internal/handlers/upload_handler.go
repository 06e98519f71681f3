package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowora/glowora-api/internal/models"
	"github.com/google/uuid"
)

var allowedUploadExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

// UploadFile is the handler for POST /v1/admin/upload. The file lands in a
// local "uploads" folder under a uuid name and gets a media row so the
// dashboard library can list and delete it later.
func (h *Handlers) UploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, fail("No file uploaded"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedUploadExts[ext] {
		c.JSON(http.StatusBadRequest, fail("Unsupported file type"))
		return
	}

	uploadPath := "./uploads"
	if _, err := os.Stat(uploadPath); os.IsNotExist(err) {
		os.Mkdir(uploadPath, 0755)
	}

	newFilename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	savePath := filepath.Join(uploadPath, newFilename)

	if err := c.SaveUploadedFile(file, savePath); err != nil {
		log.Printf("upload: save failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to save file"))
		return
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	publicURL := fmt.Sprintf("%s/uploads/%s", baseURL, newFilename)

	var uploadedBy interface{}
	if raw, ok := c.Get("userID"); ok {
		uploadedBy = raw.(int64)
	}

	result, err := h.DB.Exec(
		"INSERT INTO media (url, filename, uploaded_by, created_at) VALUES (?, ?, ?, ?)",
		publicURL, newFilename, uploadedBy, time.Now())
	if err != nil {
		log.Printf("upload: media insert failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to save file"))
		return
	}
	id, _ := result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{"id": id, "url": publicURL})
}

// ListMedia is the handler for GET /v1/admin/media.
func (h *Handlers) ListMedia(c *gin.Context) {
	rows, err := h.DB.Query("SELECT id, url, filename, uploaded_by, created_at FROM media ORDER BY created_at DESC")
	if err != nil {
		log.Printf("media: query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch media"))
		return
	}
	defer rows.Close()

	media := []models.Media{}
	for rows.Next() {
		var m models.Media
		if err := rows.Scan(&m.ID, &m.URL, &m.Filename, &m.UploadedBy, &m.CreatedAt); err != nil {
			log.Printf("media: scan failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to fetch media"))
			return
		}
		media = append(media, m)
	}

	c.JSON(http.StatusOK, gin.H{"media": media})
}

// DeleteMedia is the handler for DELETE /v1/admin/media/:id. Removes the
// row first, then the file; a missing file on disk is not an error.
func (h *Handlers) DeleteMedia(c *gin.Context) {
	var filename string
	err := h.DB.QueryRow("SELECT filename FROM media WHERE id = ?", c.Param("id")).Scan(&filename)
	if err != nil {
		c.JSON(http.StatusNotFound, fail("Media not found"))
		return
	}

	if _, err := h.DB.Exec("DELETE FROM media WHERE id = ?", c.Param("id")); err != nil {
		log.Printf("media delete: exec failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to delete media"))
		return
	}

	if err := os.Remove(filepath.Join("./uploads", filename)); err != nil && !os.IsNotExist(err) {
		log.Printf("media delete: file remove failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Media deleted"})
}
