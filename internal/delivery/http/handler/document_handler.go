package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docuflow/internal/delivery/http/middleware"
	"docuflow/internal/domain/entity"
	"docuflow/internal/usecase"
)

type DocumentHandler struct {
	usecase usecase.DocumentUsecase
	logger  *zap.Logger
}

func NewDocumentHandler(usecase usecase.DocumentUsecase, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// Create godoc
// @Summary Create a document
// @Description Upload a PDF with its metadata; the title is generated from the per-division sequence
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} entity.APIResponse
// @Failure 400 {object} entity.APIResponse
// @Router /api/v1/documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := middleware.Actor(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondError(c, entity.ErrMissingFile)
	}
	f, err := fileHeader.Open()
	if err != nil {
		return respondError(c, entity.ErrMissingFile)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("Failed to read upload", zap.Error(err))
		return respondError(c, err)
	}

	req := &entity.CreateDocumentRequest{
		Content:  c.FormValue("content"),
		Division: c.FormValue("division"),
		Type:     c.FormValue("type"),
		Access:   c.FormValue("access"),
		Filename: fileHeader.Filename,
		File:     content,
	}
	if v := c.FormValue("date_expired"); v != "" {
		expired, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return respondError(c, fmt.Errorf("%w: date_expired must be RFC3339", entity.ErrValidation))
		}
		req.DateExpired = &expired
	}

	doc, err := h.usecase.Create(ctx, actor, req)
	if err != nil {
		h.logger.Error("Failed to create document", zap.Error(err))
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(
		entity.NewSuccessResponse(doc, "Document created"),
	)
}

// List godoc
// @Summary List documents
// @Description Filtered, paginated document list; non-admins see their own uploads
// @Tags documents
// @Produce json
// @Param status query string false "Comma separated statuses" example(saved,sent)
// @Param division query string false "Division code"
// @Param type query string false "Document type code"
// @Param q query string false "Title search"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} entity.APIResponse
// @Router /api/v1/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := middleware.Actor(c)

	filter := entity.DocumentFilter{
		Division: entity.Division(c.Query("division")),
		Type:     entity.DocType(c.Query("type")),
		Search:   c.Query("q"),
	}
	filter.Limit, _ = strconv.Atoi(c.Query("limit", "20"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset", "0"))

	if status := c.Query("status"); status != "" {
		for _, s := range strings.Split(status, ",") {
			filter.Statuses = append(filter.Statuses, entity.Status(strings.TrimSpace(s)))
		}
	}

	docs, total, err := h.usecase.List(ctx, actor, filter)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		return respondError(c, err)
	}

	meta := &entity.PageMeta{
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	return c.JSON(entity.NewPagedResponse(docs, meta, "Documents retrieved successfully"))
}

// Inbox godoc
// @Summary List documents awaiting the caller's signature
// @Tags documents
// @Produce json
// @Success 200 {object} entity.APIResponse
// @Router /api/v1/documents/inbox [get]
func (h *DocumentHandler) Inbox(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := middleware.Actor(c)

	docs, err := h.usecase.Inbox(ctx, actor)
	if err != nil {
		h.logger.Error("Failed to load inbox", zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(entity.NewSuccessResponse(docs, "Inbox retrieved successfully"))
}

// Get godoc
// @Summary Get a document
// @Tags documents
// @Produce json
// @Param id path string true "Document id"
// @Success 200 {object} entity.APIResponse
// @Failure 403 {object} entity.APIResponse
// @Failure 404 {object} entity.APIResponse
// @Router /api/v1/documents/{id} [get]
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := middleware.Actor(c)

	doc, err := h.usecase.Get(ctx, actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(entity.NewSuccessResponse(doc, "Document retrieved successfully"))
}

// GetBlob godoc
// @Summary Download the document binary
// @Description Streams the PDF; signing progress rides along in X-Meta-Info
// @Tags documents
// @Produce application/pdf
// @Param id path string true "Document id"
// @Failure 404 {object} entity.APIResponse
// @Router /api/v1/documents/{id}/blob [get]
func (h *DocumentHandler) GetBlob(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := middleware.Actor(c)

	content, meta, err := h.usecase.GetBlob(ctx, actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	metaJSON, _ := json.Marshal(meta)
	c.Set("Access-Control-Expose-Headers", "X-Meta-Info")
	c.Set("X-Meta-Info", string(metaJSON))
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(content)
}

// Audit godoc
// @Summary Get the document activity log
// @Tags documents
// @Produce json
// @Param id path string true "Document id"
// @Success 200 {object} entity.APIResponse
// @Failure 404 {object} entity.APIResponse
// @Router /api/v1/documents/{id}/audit [get]
func (h *DocumentHandler) Audit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := middleware.Actor(c)

	events, err := h.usecase.Audit(ctx, actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(entity.NewSuccessResponse(events, "Audit log retrieved successfully"))
}

// Delete godoc
// @Summary Delete a document
// @Tags documents
// @Produce json
// @Param id path string true "Document id"
// @Success 200 {object} entity.APIResponse
// @Failure 403 {object} entity.APIResponse
// @Failure 404 {object} entity.APIResponse
// @Router /api/v1/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := middleware.Actor(c)

	if err := h.usecase.Delete(ctx, actor, c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return c.JSON(entity.NewSuccessResponse(nil, "Document deleted"))
}

// SaveSignature godoc
// @Summary Upload the caller's reference signature image
// @Description PNG or JPEG; replaces any previous image
// @Tags signatures
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} entity.APIResponse
// @Failure 422 {object} entity.APIResponse
// @Router /api/v1/signatures [put]
func (h *DocumentHandler) SaveSignature(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := middleware.Actor(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondError(c, entity.ErrMissingFile)
	}
	f, err := fileHeader.Open()
	if err != nil {
		return respondError(c, entity.ErrMissingFile)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("Failed to read signature upload", zap.Error(err))
		return respondError(c, err)
	}

	if err := h.usecase.SaveSignature(ctx, actor, content); err != nil {
		return respondError(c, err)
	}

	return c.JSON(entity.NewSuccessResponse(nil, "Signature image saved"))
}
