package middleware

import (
	"github.com/gofiber/fiber/v2"

	"docuflow/internal/domain/entity"
)

const actorKey = "actor"

// Identity resolves the already-verified identity claim from the gateway
// headers into an entity.Actor. Credential verification happens upstream;
// requests without a claim are rejected here.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Actor-Id")
		if id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(
				entity.NewErrorResponse("UNAUTHORIZED", "Missing identity claim"),
			)
		}

		c.Locals(actorKey, entity.Actor{
			ID:   id,
			Role: entity.Role(c.Get("X-Actor-Role")),
		})
		return c.Next()
	}
}

// Actor returns the claim stored by Identity.
func Actor(c *fiber.Ctx) entity.Actor {
	actor, _ := c.Locals(actorKey).(entity.Actor)
	return actor
}
