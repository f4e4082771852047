package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"kanzlei_app_go/db"
	"kanzlei_app_go/middleware"
	"kanzlei_app_go/models"
	"kanzlei_app_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// MaxDocumentSize caps uploads at 50 MB
const MaxDocumentSize = 50 << 20

// ListDocumentsHandler returns a case's document metadata, newest first
func ListDocumentsHandler(c echo.Context) error {
	if _, err := services.GetCase(db.DB, c.Param("id")); err != nil {
		return respondServiceError(c, err)
	}

	var documents []models.Document
	if err := db.DB.Preload("UploadedBy").Where("case_id = ?", c.Param("id")).
		Order("created_at DESC").Find(&documents).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch documents")
	}

	items := make([]map[string]interface{}, 0, len(documents))
	for i := range documents {
		items = append(items, map[string]interface{}{
			"document":     documents[i],
			"download_url": documents[i].GetDownloadURL(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"documents": items})
}

// UploadDocumentHandler stores an uploaded file under the case's storage
// prefix and records its metadata
func UploadDocumentHandler(c echo.Context) error {
	kase, err := services.GetCase(db.DB, c.Param("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "File is required")
	}
	if file.Size > MaxDocumentSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File exceeds the 50 MB limit")
	}

	title := c.FormValue("title")
	if title == "" {
		title = file.Filename
	}

	var displayDate *time.Time
	if raw := c.FormValue("display_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid display_date, expected YYYY-MM-DD")
		}
		displayDate = &t
	}

	key := services.GenerateCaseDocumentKey(kase.FileNumber, file.Filename)
	result, err := services.Storage.Upload(c.Request().Context(), file, key)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store file")
	}

	doc := models.Document{
		CaseID:           kase.ID,
		Title:            title,
		FileName:         result.FileName,
		FileOriginalName: file.Filename,
		StorageKey:       result.Key,
		FileSize:         result.FileSize,
		MimeType:         result.MimeType,
		DisplayDate:      displayDate,
	}
	if user := middleware.GetCurrentUser(c); user != nil {
		doc.UploadedByID = &user.ID
	}

	if err := db.DB.Create(&doc).Error; err != nil {
		// Metadata write failed, remove the orphaned blob
		_ = services.Storage.Delete(c.Request().Context(), result.Key)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save document")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionCreate, "document", doc.ID, doc.Title,
		fmt.Sprintf("Document uploaded to case %s", kase.FileNumber), nil, doc)

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"document":     doc,
		"download_url": doc.GetDownloadURL(),
	})
}

// DownloadDocumentHandler streams a document's content
func DownloadDocumentHandler(c echo.Context) error {
	var doc models.Document
	if err := db.DB.First(&doc, "id = ? AND case_id = ?", c.Param("docID"), c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Document not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch document")
	}

	reader, contentType, err := services.Storage.Get(c.Request().Context(), doc.StorageKey)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read file")
	}
	defer reader.Close()

	if doc.MimeType != "" {
		contentType = doc.MimeType
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDownload, "document", doc.ID, doc.Title,
		"Document downloaded", nil, nil)

	filename := doc.FileOriginalName
	if filename == "" {
		filename = filepath.Base(doc.StorageKey)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))

	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(http.StatusOK)
	_, err = io.Copy(c.Response().Writer, reader)
	return err
}

// UpdateDocumentRequest is the metadata edit payload; file content is immutable
type UpdateDocumentRequest struct {
	Title       *string `json:"title"`
	DisplayDate *string `json:"display_date"`
}

// UpdateDocumentHandler edits a document's metadata
func UpdateDocumentHandler(c echo.Context) error {
	var doc models.Document
	if err := db.DB.First(&doc, "id = ? AND case_id = ?", c.Param("docID"), c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Document not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch document")
	}

	var req UpdateDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	old := doc

	if req.Title != nil {
		if *req.Title == "" {
			return respondServiceError(c, services.NewValidationError("title", "is required"))
		}
		doc.Title = *req.Title
	}
	if req.DisplayDate != nil {
		if *req.DisplayDate == "" {
			doc.DisplayDate = nil
		} else {
			t, err := time.Parse("2006-01-02", *req.DisplayDate)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid display_date, expected YYYY-MM-DD")
			}
			doc.DisplayDate = &t
		}
	}

	if err := db.DB.Save(&doc).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update document")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "document", doc.ID, doc.Title,
		"Document metadata updated", old, doc)

	return c.JSON(http.StatusOK, map[string]interface{}{"document": doc})
}

// DeleteDocumentHandler removes a document and its stored content
func DeleteDocumentHandler(c echo.Context) error {
	var doc models.Document
	if err := db.DB.First(&doc, "id = ? AND case_id = ?", c.Param("docID"), c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Document not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch document")
	}

	// Ledger positions may reference this document; detach them first
	if err := db.DB.Model(&models.FinancialPosition{}).
		Where("document_id = ?", doc.ID).
		Update("document_id", nil).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to detach ledger positions")
	}

	if err := db.DB.Delete(&doc).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete document")
	}

	if err := services.Storage.Delete(c.Request().Context(), doc.StorageKey); err != nil {
		// Metadata is gone; log and carry on
		c.Logger().Errorf("failed to delete stored file %s: %v", doc.StorageKey, err)
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDelete, "document", doc.ID, doc.Title,
		"Document deleted", doc, nil)

	return c.JSON(http.StatusOK, map[string]string{"message": "Document deleted"})
}
