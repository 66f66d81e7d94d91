package handlers

import (
	"backend/models"
	"backend/repository"
	"backend/storage"
	"backend/utils"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const uploadDir = "uploads"

var allowedDocExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".csv":  true,
	".doc":  true,
	".docx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// UploadDocumentHandler stores a multipart file under a uuid name and
// creates the document row in status "uploaded".
// @Summary Upload document
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file"
// @Param title formData string false "Title"
// @Param doc_type formData string false "Document type"
// @Success 201 {object} models.DocumentUploadResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 402 {object} models.ErrorResponse
// @Router /api/documents [post]
func UploadDocumentHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		// Enforce the plan's document limit before touching the file.
		if sub, serr := storage.GetActiveSubscription(db, session.UserID); serr == nil {
			var docLimit int
			if db.QueryRow(`SELECT document_limit FROM plans WHERE id = $1`, sub.PlanID).Scan(&docLimit) == nil && docLimit > 0 {
				var count int
				_ = db.QueryRow(`SELECT COUNT(*) FROM documents WHERE user_id = $1`, session.UserID).Scan(&count)
				if count >= docLimit {
					c.JSON(http.StatusPaymentRequired, gin.H{"error": "Plan document limit reached"})
					return
				}
			}
		}

		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File is required", "details": err.Error()})
			return
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedDocExtensions[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type", "details": ext})
			return
		}

		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare upload directory", "details": err.Error()})
			return
		}

		storedName := uuid.New().String() + ext
		storedPath := filepath.Join(uploadDir, storedName)
		if err := c.SaveUploadedFile(file, storedPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file", "details": err.Error()})
			return
		}

		title := c.PostForm("title")
		if title == "" {
			title = strings.TrimSuffix(file.Filename, ext)
		}
		docType := c.PostForm("doc_type")
		if docType == "" {
			docType = "general"
		}

		// Plain-text uploads are readable immediately; everything else
		// gets its text during analysis.
		var contentText string
		if ext == ".txt" || ext == ".csv" {
			if raw, rerr := os.ReadFile(storedPath); rerr == nil {
				contentText = string(raw)
			}
		}

		var docID int
		err = db.QueryRow(`
			INSERT INTO documents (user_id, title, doc_type, file_name, file_path, file_size, content_text, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'uploaded', NOW(), NOW())
			RETURNING id
		`, session.UserID, title, docType, file.Filename, storedPath, file.Size, contentText).Scan(&docID)
		if err != nil {
			os.Remove(storedPath)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create document", "details": err.Error()})
			return
		}

		logActivity(db, session, userName, "Document", "Create",
			fmt.Sprintf("Uploaded document %s", file.Filename), "", "")
		c.JSON(http.StatusCreated, models.DocumentUploadResponse{
			DocumentID: docID,
			FilePath:   storedPath,
			Message:    "Document uploaded successfully",
		})
	}
}

// GetDocumentsHandler lists the caller's documents.
// @Summary List documents
// @Tags Documents
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {array} models.Document
// @Failure 401 {object} models.ErrorResponse
// @Router /api/documents [get]
func GetDocumentsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		query := `
			SELECT id, user_id, COALESCE(title, ''), COALESCE(doc_type, 'general'),
			       file_name, file_path, file_size, status,
			       COALESCE(group_id, ''), created_at, updated_at
			FROM documents
			WHERE user_id = $1
		`
		args := []interface{}{session.UserID}
		if status := c.Query("status"); status != "" {
			query += ` AND status = $2`
			args = append(args, status)
		}
		query += ` ORDER BY created_at DESC`

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch documents", "details": err.Error()})
			return
		}
		defer rows.Close()

		docs := []models.Document{}
		for rows.Next() {
			var d models.Document
			if err := rows.Scan(&d.ID, &d.UserID, &d.Title, &d.DocType, &d.FileName, &d.FilePath,
				&d.FileSize, &d.Status, &d.GroupID, &d.CreatedAt, &d.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan document", "details": err.Error()})
				return
			}
			docs = append(docs, d)
		}

		c.JSON(http.StatusOK, docs)
	}
}

// GetDocumentHandler returns one document with its latest analysis.
// @Summary Get document
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} models.Document
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/documents/{id} [get]
func GetDocumentHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		docID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
			return
		}

		doc, err := repository.FetchDocument(db, docID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		if doc.UserID != session.UserID && !isAdmin(db, session.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Document belongs to another user"})
			return
		}

		var analysis models.DocumentAnalysis
		ctx, cancel := utils.GetSlowQueryContext(c.Request.Context())
		defer cancel()
		err = db.QueryRowContext(ctx, `
			SELECT id, document_id, COALESCE(provider_id, 0), COALESCE(model, ''),
			       COALESCE(summary, ''), COALESCE(insights, ''), created_at
			FROM document_analysis
			WHERE document_id = $1
			ORDER BY created_at DESC
			LIMIT 1
		`, doc.ID).Scan(&analysis.ID, &analysis.DocumentID, &analysis.ProviderID,
			&analysis.Model, &analysis.Summary, &analysis.Insights, &analysis.CreatedAt)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"document": doc, "analysis": analysis})
			return
		}

		c.JSON(http.StatusOK, gin.H{"document": doc})
	}
}

// DeleteDocumentHandler removes a document, its file and analyses.
// @Summary Delete document
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/documents/{id} [delete]
func DeleteDocumentHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		docID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
			return
		}

		doc, err := repository.FetchDocument(db, docID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		if doc.UserID != session.UserID && !isAdmin(db, session.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Document belongs to another user"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM document_analysis WHERE document_id = $1`, doc.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete analyses", "details": err.Error()})
			return
		}
		if _, err := tx.Exec(`UPDATE quotes SET document_id = NULL WHERE document_id = $1`, doc.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unlink quotes", "details": err.Error()})
			return
		}
		if _, err := tx.Exec(`DELETE FROM documents WHERE id = $1`, doc.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document", "details": err.Error()})
			return
		}
		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit", "details": err.Error()})
			return
		}

		if doc.FilePath != "" {
			os.Remove(doc.FilePath)
		}

		logActivity(db, session, userName, "Document", "Delete",
			fmt.Sprintf("Deleted document %s", doc.FileName), "", "")
		c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
	}
}

// DownloadDocumentHandler streams the stored file back to its owner.
// @Summary Download document
// @Tags Documents
// @Produce octet-stream
// @Param id path int true "Document ID"
// @Success 200
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/documents/{id}/download [get]
func DownloadDocumentHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		docID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
			return
		}

		doc, err := repository.FetchDocument(db, docID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		if doc.UserID != session.UserID && !isAdmin(db, session.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Document belongs to another user"})
			return
		}

		if _, err := os.Stat(doc.FilePath); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stored file is missing"})
			return
		}

		c.FileAttachment(doc.FilePath, doc.FileName)
	}
}
