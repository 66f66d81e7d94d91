package handlers

import (
	"backend/repository"
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

// addLabel adds text to an image at the specified position
func addLabel(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{0, 0, 0, 255}
	face := inconsolata.Regular8x16

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

// addLabelBold adds bold text for field labels
func addLabelBold(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{30, 30, 30, 255}
	face := inconsolata.Bold8x16

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

func truncateLabel(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

// ShareDocumentHandler issues (or reuses) a share token for a document and
// returns the public link.
// @Summary Create document share link
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} object
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/documents/{id}/share [post]
func ShareDocumentHandler(db *sql.DB) gin.HandlerFunc {
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
		if doc.UserID != session.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Document belongs to another user"})
			return
		}

		var token sql.NullString
		if err := db.QueryRow(`SELECT share_token FROM documents WHERE id = $1`, doc.ID).Scan(&token); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read share token", "details": err.Error()})
			return
		}
		if !token.Valid || token.String == "" {
			token = sql.NullString{String: uuid.New().String(), Valid: true}
			if _, err := db.Exec(`UPDATE documents SET share_token = $1, updated_at = NOW() WHERE id = $2`, token.String, doc.ID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save share token", "details": err.Error()})
				return
			}
		}

		logActivity(db, session, userName, "Document", "Share",
			fmt.Sprintf("Shared document %s", doc.FileName), "", "")
		c.JSON(http.StatusOK, gin.H{
			"share_token": token.String,
			"share_url":   shareBaseURL() + "/share/" + token.String,
		})
	}
}

// GenerateDocumentQRHandler renders the document's share link as a labelled
// QR JPEG: the code on top, the document details below it.
// @Summary Generate document share QR code
// @Tags Documents
// @Produce image/jpeg
// @Param id path int true "Document ID"
// @Success 200 {file} file "JPEG image"
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/documents/{id}/share_qr [get]
func GenerateDocumentQRHandler(db *sql.DB) gin.HandlerFunc {
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
		if doc.UserID != session.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Document belongs to another user"})
			return
		}

		var token sql.NullString
		_ = db.QueryRow(`SELECT share_token FROM documents WHERE id = $1`, doc.ID).Scan(&token)
		if !token.Valid || token.String == "" {
			c.JSON(http.StatusConflict, gin.H{"error": "Document has no share link", "details": "create one via the share endpoint first"})
			return
		}

		qrPayload, err := json.Marshal(gin.H{
			"url":      shareBaseURL() + "/share/" + token.String,
			"document": doc.FileName,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to marshal share data"})
			return
		}

		qr, err := qrcode.New(string(qrPayload), qrcode.Medium)
		if err != nil {
			c.String(http.StatusInternalServerError, "QR code generation failed")
			return
		}
		qrImg := qr.Image(512)

		qrSize := qrImg.Bounds().Dy()
		padding := 30
		lineHeight := 28
		textAreaHeight := 4*lineHeight + padding
		totalHeight := qrSize + padding + textAreaHeight

		combinedImg := image.NewRGBA(image.Rect(0, 0, qrSize, totalHeight))
		draw.Draw(combinedImg, combinedImg.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

		qrRect := image.Rect(0, 0, qrSize, qrSize)
		draw.Draw(combinedImg, qrRect, qrImg, image.Point{}, draw.Src)

		// Separator line between QR code and text
		separatorY := qrSize + padding/2
		for x := 0; x < qrSize; x++ {
			combinedImg.Set(x, separatorY, color.RGBA{200, 200, 200, 255})
		}

		startY := qrSize + padding + lineHeight
		xPos := 20

		addLabelBold(combinedImg, xPos, startY, "Document:")
		addLabel(combinedImg, xPos+120, startY, truncateLabel(doc.FileName, 35))

		addLabelBold(combinedImg, xPos, startY+lineHeight, "Title:")
		addLabel(combinedImg, xPos+120, startY+lineHeight, truncateLabel(doc.Title, 35))

		addLabelBold(combinedImg, xPos, startY+2*lineHeight, "Status:")
		addLabel(combinedImg, xPos+120, startY+2*lineHeight, doc.Status)

		addLabelBold(combinedImg, xPos, startY+3*lineHeight, "Uploaded:")
		addLabel(combinedImg, xPos+120, startY+3*lineHeight, doc.CreatedAt.Format("2006-01-02"))

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, combinedImg, nil); err != nil {
			c.String(http.StatusInternalServerError, "JPEG encoding failed")
			return
		}

		c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
	}
}

// GetSharedDocumentHandler serves a shared document by token. No session
// required; the token is the capability.
// @Summary Download shared document
// @Tags Documents
// @Produce octet-stream
// @Param token path string true "Share token"
// @Success 200
// @Failure 404 {object} models.ErrorResponse
// @Router /share/{token} [get]
func GetSharedDocumentHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Share token is required"})
			return
		}

		var filePath, fileName string
		err := db.QueryRow(`SELECT file_path, file_name FROM documents WHERE share_token = $1`, token).Scan(&filePath, &fileName)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Shared document not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve share token", "details": err.Error()})
			return
		}

		if _, err := os.Stat(filePath); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stored file is missing"})
			return
		}

		c.FileAttachment(filePath, fileName)
	}
}

func shareBaseURL() string {
	if base := os.Getenv("APP_BASE_URL"); base != "" {
		return base
	}
	return "http://localhost:8080"
}
