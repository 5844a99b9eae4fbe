package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"cmsapi/internal/http/middleware"
	"cmsapi/internal/service"
	"cmsapi/internal/storage"
)

// ListDocuments returns a page of documents, newest first.
//
// @Summary List documents
// @Tags documents
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "offset" default(0)
// @Success 200 {object} service.Page[model.Document]
// @Router /documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok, err := pageParams(c)
		if !ok {
			return err
		}
		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// CreateDocument registers a document with an expiry date.
//
// @Summary Create document
// @Tags documents
// @Accept json
// @Produce json
// @Param body body service.DocumentInput true "document"
// @Success 201 {object} model.Document
// @Failure 403 {object} errorPayload
// @Router /documents [post]
func CreateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.DocumentInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		doc, err := svc.Create(c.UserContext(), middleware.SessionFrom(c), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns one document.
//
// @Summary Get document
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} model.Document
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(doc)
	}
}

// UpdateDocument edits a document. Reminders already sent are kept.
//
// @Summary Update document
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "document id"
// @Param body body service.DocumentPatch true "changes"
// @Success 200 {object} model.Document
// @Router /documents/{id} [patch]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		var patch service.DocumentPatch
		if err := c.BodyParser(&patch); err != nil {
			return invalidBody(c)
		}
		doc, err := svc.Update(c.UserContext(), middleware.SessionFrom(c), id, patch)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(doc)
	}
}

// AttachDocumentFile uploads a file (multipart/form-data, field name: file)
// and attaches it to the document, replacing any previous attachment.
//
// @Summary Attach file
// @Tags documents
// @Accept mpfd
// @Produce json
// @Param id path string true "document id"
// @Param file formData file true "attachment"
// @Success 200 {object} model.Document
// @Router /documents/{id}/attachment [post]
func AttachDocumentFile(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := svc.Attach(c.UserContext(), middleware.SessionFrom(c), id, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DocumentDownloadURL returns a presigned URL for the document's attachment.
//
// @Summary Attachment download URL
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Param expiry_sec query int false "URL lifetime in seconds" default(900)
// @Success 200 {object} map[string]any
// @Router /documents/{id}/download [get]
func DocumentDownloadURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		expiry := 15 * time.Minute
		if raw := c.Query("expiry_sec"); raw != "" {
			sec, err := strconv.Atoi(raw)
			if err != nil || sec <= 0 || sec > 7*24*3600 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_EXPIRY", "expiry_sec must be between 1 and 604800")
			}
			expiry = time.Duration(sec) * time.Second
		}
		url, err := svc.DownloadURL(c.UserContext(), id, expiry)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url, "expires_in": int(expiry.Seconds())})
	}
}

// DownloadDocument streams the document's attachment.
//
// @Summary Download attachment
// @Tags documents
// @Produce octet-stream
// @Param id path string true "document id"
// @Success 200 {file} file
// @Failure 404 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /documents/{id}/attachment [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		rc, att, err := svc.Download(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		ct := att.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderContentDisposition, storage.ContentDisposition(att.Name))
		size := -1
		if att.Size > 0 {
			size = int(att.Size)
		}
		// fasthttp closes rc once the body is written.
		return c.SendStream(rc, size)
	}
}
