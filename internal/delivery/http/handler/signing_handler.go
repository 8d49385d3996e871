package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docuflow/internal/delivery/http/middleware"
	"docuflow/internal/domain/entity"
	"docuflow/internal/usecase"
)

type SigningHandler struct {
	usecase usecase.SigningUsecase
	logger  *zap.Logger
}

func NewSigningHandler(usecase usecase.SigningUsecase, logger *zap.Logger) *SigningHandler {
	return &SigningHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// Route godoc
// @Summary Route a document for approval
// @Description Attaches the approval chain and sends the document (saved -> sent)
// @Tags signing
// @Accept json
// @Produce json
// @Param id path string true "Document id"
// @Param request body entity.RouteRequest true "Approval chain"
// @Success 200 {object} entity.APIResponse
// @Failure 400 {object} entity.APIResponse
// @Failure 403 {object} entity.APIResponse
// @Failure 409 {object} entity.APIResponse
// @Router /api/v1/documents/{id}/route [post]
func (h *SigningHandler) Route(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := middleware.Actor(c)

	var req entity.RouteRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Error("Failed to parse route request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid request body"),
		)
	}

	doc, err := h.usecase.Route(ctx, actor, c.Params("id"), &req)
	if err != nil {
		h.logger.Error("Failed to route document",
			zap.String("document_id", c.Params("id")),
			zap.Error(err),
		)
		return respondError(c, err)
	}

	return c.JSON(entity.NewSuccessResponse(doc, "Document routed for approval"))
}

// Sign godoc
// @Summary Sign a document
// @Description Validates eligibility, stamps the caller's signature image, advances the chain
// @Tags signing
// @Produce json
// @Param id path string true "Document id"
// @Success 200 {object} entity.APIResponse
// @Failure 403 {object} entity.APIResponse
// @Failure 409 {object} entity.APIResponse
// @Failure 422 {object} entity.APIResponse
// @Router /api/v1/documents/{id}/sign [post]
func (h *SigningHandler) Sign(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := middleware.Actor(c)

	doc, err := h.usecase.Sign(ctx, actor, c.Params("id"))
	if err != nil {
		h.logger.Warn("Signing rejected",
			zap.String("document_id", c.Params("id")),
			zap.String("actor", actor.ID),
			zap.Error(err),
		)
		return respondError(c, err)
	}

	message := "Document signed"
	if doc.Status == entity.StatusComplete {
		message = "Document signed and completed"
	}
	return c.JSON(entity.NewSuccessResponse(doc, message))
}
