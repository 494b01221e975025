package documents

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sortir-backend/internal/extract"
	"sortir-backend/internal/shared/server/middleware"
	"sortir-backend/internal/shared/server/respond"
)

// multipart framing allowance on top of the file limit
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
	rg.GET("/files", h.list)
	rg.GET("/files/:filename", h.get)
	rg.GET("/files/:filename/download", h.download)
	rg.DELETE("/delete/:filename", h.deleteByPath)
	rg.POST("/delete-file", h.deleteByBody)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit := h.Svc.maxUpload()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", tooLargeMessage(limit), nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	c.Set("fileName", fileHeader.Filename)

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	doc, err := h.Svc.Upload(c.Request.Context(), userID, UploadInput{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.writeError(c, err, limit)
		return
	}

	respond.Success(c, http.StatusCreated, gin.H{"fileName": doc.FileName})
}

func (h *Handler) list(c *gin.Context) {
	docs, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.writeError(c, err, 0)
		return
	}
	respond.OK(c, fileNames(docs))
}

func (h *Handler) get(c *gin.Context) {
	name := c.Param("filename")
	c.Set("fileName", name)

	doc, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), name)
	if err != nil {
		h.writeError(c, err, 0)
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) download(c *gin.Context) {
	name := c.Param("filename")
	c.Set("fileName", name)

	doc, rc, err := h.Svc.Open(c.Request.Context(), middleware.UserIDFromContext(c), name)
	if err != nil {
		h.writeError(c, err, 0)
		return
	}
	defer rc.Close()

	mimeType := doc.MimeType
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	c.DataFromReader(http.StatusOK, doc.SizeBytes, mimeType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.FileName),
	})
}

func (h *Handler) deleteByPath(c *gin.Context) {
	h.delete(c, c.Param("filename"))
}

func (h *Handler) deleteByBody(c *gin.Context) {
	var req deleteFileRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.FileName) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "filename is required", nil)
		return
	}
	h.delete(c, req.FileName)
}

func (h *Handler) delete(c *gin.Context, name string) {
	c.Set("fileName", name)

	found, err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), name)
	if err != nil {
		h.writeError(c, err, 0)
		return
	}
	if !found {
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		return
	}
	respond.Success(c, http.StatusOK, nil)
}

func (h *Handler) writeError(c *gin.Context, err error, limit int64) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrUnsupportedType):
		respond.Error(c, http.StatusBadRequest, "unsupported_type", "Only PDF files are supported", nil)
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", tooLargeMessage(limit), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, extract.ErrNoText):
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed",
			"No text could be extracted from this PDF. Scanned or image-only documents are not supported.", nil)
	case errors.Is(err, extract.ErrExtraction):
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed",
			"This file could not be read as a PDF. Check that it is not corrupted or password protected.", nil)
	default:
		respond.ErrorCause(c, http.StatusInternalServerError, "storage_error", "Failed to process the request", err)
	}
}

func tooLargeMessage(limit int64) string {
	if limit <= 0 {
		return "File is too large"
	}
	return fmt.Sprintf("File is too large (limit %d MB)", limit>>20)
}
