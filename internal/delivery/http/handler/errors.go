package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docuflow/internal/domain/entity"
)

// respondError maps domain sentinels onto HTTP statuses. Authorization
// failures stay generic so ineligible actors learn nothing about chain state.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, entity.ErrValidation),
		errors.Is(err, entity.ErrMissingFields),
		errors.Is(err, entity.ErrMissingFile):
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("VALIDATION_ERROR", err.Error()),
		)

	case errors.Is(err, entity.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(
			entity.NewErrorResponse("NOT_FOUND", "Document not found"),
		)
	case errors.Is(err, entity.ErrFileMissing):
		return c.Status(fiber.StatusNotFound).JSON(
			entity.NewErrorResponse("FILE_MISSING", "Document file missing"),
		)

	case errors.Is(err, entity.ErrAccessDenied),
		errors.Is(err, entity.ErrNotOwner),
		errors.Is(err, entity.ErrNotEligible):
		return c.Status(fiber.StatusForbidden).JSON(
			entity.NewErrorResponse("ACCESS_DENIED", "Access denied"),
		)

	case errors.Is(err, entity.ErrAlreadySigned):
		return c.Status(fiber.StatusConflict).JSON(
			entity.NewErrorResponse("ALREADY_SIGNED", err.Error()),
		)
	case errors.Is(err, entity.ErrRankResolved):
		return c.Status(fiber.StatusConflict).JSON(
			entity.NewErrorResponse("RANK_RESOLVED", err.Error()),
		)
	case errors.Is(err, entity.ErrAlreadyComplete):
		return c.Status(fiber.StatusConflict).JSON(
			entity.NewErrorResponse("ALREADY_COMPLETE", err.Error()),
		)
	case errors.Is(err, entity.ErrAlreadyRouted),
		errors.Is(err, entity.ErrNotRouted),
		errors.Is(err, entity.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(
			entity.NewErrorResponse("CONFLICT", err.Error()),
		)

	case errors.Is(err, entity.ErrMissingSignatureImage):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(
			entity.NewErrorResponse("MISSING_SIGNATURE_IMAGE", err.Error()),
		)
	case errors.Is(err, entity.ErrUnsupportedImageFormat):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(
			entity.NewErrorResponse("UNSUPPORTED_IMAGE_FORMAT", err.Error()),
		)
	case errors.Is(err, entity.ErrInvalidPlacement):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(
			entity.NewErrorResponse("INVALID_PLACEMENT", err.Error()),
		)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(
		entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
	)
}
