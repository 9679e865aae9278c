package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"shopfront/internal/log"
	"shopfront/internal/session"
)

type HealthHandler struct {
	DB       *sqlx.DB
	Sessions *session.Store
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	if err := h.DB.PingContext(c.UserContext()); err != nil {
		log.Error(c, "health.db.error", err, nil)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "db unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok", "sessions": h.Sessions.Len()})
}
