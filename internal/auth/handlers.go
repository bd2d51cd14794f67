package auth

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, pins *PINService, authMiddleware fiber.Handler) {
	r.Post("/pin", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			PIN string `json:"pin"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user unknown")
		}
		if err := pins.SetPIN(c.Context(), userID, req.PIN); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{"updated": true})
	})
}
