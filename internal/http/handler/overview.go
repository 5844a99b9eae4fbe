package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"cmsapi/internal/http/middleware"
	"cmsapi/internal/service"
)

// Dashboard returns the headline counters for the caller.
//
// @Summary Dashboard totals
// @Tags dashboard
// @Produce json
// @Success 200 {object} service.Totals
// @Router /dashboard [get]
func Dashboard(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := svc.Totals(c.UserContext(), middleware.SessionFrom(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(t)
	}
}

// ListActivity returns the audit trail, newest first.
//
// @Summary Activity log
// @Tags activity
// @Produce json
// @Param limit query int false "maximum records" default(100)
// @Success 200 {array} model.AuditRecord
// @Router /activity [get]
func ListActivity(svc service.ActivityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "100"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		records, err := svc.List(c.UserContext(), limit)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"data": records})
	}
}

// GetSettings
//
// @Summary Read settings
// @Tags settings
// @Produce json
// @Success 200 {object} model.Settings
// @Router /settings [get]
func GetSettings(svc service.SettingsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := svc.Get(c.UserContext())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(s)
	}
}

// UpdateSettings
//
// @Summary Update settings
// @Tags settings
// @Accept json
// @Produce json
// @Param body body service.SettingsInput true "changes"
// @Success 200 {object} model.Settings
// @Router /settings [patch]
func UpdateSettings(svc service.SettingsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SettingsInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		s, err := svc.Update(c.UserContext(), middleware.SessionFrom(c), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(s)
	}
}
