package safety

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/auth"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/location", authMiddleware, func(c *fiber.Ctx) error {
		var req LocationUpdate
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		result, err := svc.UpdateLocation(c.Context(), userID(c), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(result)
	})

	r.Post("/sos", authMiddleware, func(c *fiber.Ctx) error {
		var req SOSRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		result, err := svc.ManualSOS(c.Context(), userID(c), req)
		if errors.Is(err, ErrNoContacts) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(result)
	})

	r.Get("/status", authMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(svc.Status(userID(c)))
	})

	r.Post("/sharing/start", authMiddleware, func(c *fiber.Ctx) error {
		var req SharingRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		id, err := svc.StartSharing(c.Context(), userID(c), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"session_id": id})
	})

	r.Post("/sharing/stop", authMiddleware, func(c *fiber.Ctx) error {
		var req StopRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		err := svc.StopAll(c.Context(), userID(c), req)
		if errors.Is(err, auth.ErrPINMismatch) {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"stopped": true})
	})

	r.Get("/area", func(c *fiber.Ctx) error {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		return c.JSON(svc.AreaSafety(lat, lng))
	})
}

func userID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok && id != "" {
		return id
	}
	return c.Query("user_id")
}
