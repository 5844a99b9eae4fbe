package handler

import (
	"github.com/gofiber/fiber/v2"

	"cmsapi/internal/http/middleware"
	"cmsapi/internal/service"
)

// ListMaintenance
//
// @Summary List maintenance records
// @Tags maintenance
// @Produce json
// @Success 200 {object} service.Page[model.Maintenance]
// @Router /maintenance [get]
func ListMaintenance(svc service.MaintenanceService) fiber.Handler {
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

// CreateMaintenance
//
// @Summary Create maintenance record
// @Tags maintenance
// @Accept json
// @Produce json
// @Param body body service.MaintenanceInput true "record"
// @Success 201 {object} model.Maintenance
// @Router /maintenance [post]
func CreateMaintenance(svc service.MaintenanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.MaintenanceInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		m, err := svc.Create(c.UserContext(), middleware.SessionFrom(c), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// ListAudits
//
// @Summary List compliance audits
// @Tags audits
// @Produce json
// @Success 200 {object} service.Page[model.Audit]
// @Router /audits [get]
func ListAudits(svc service.AuditService) fiber.Handler {
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

// CreateAudit
//
// @Summary Record a compliance audit
// @Tags audits
// @Accept json
// @Produce json
// @Param body body service.AuditInput true "audit"
// @Success 201 {object} model.Audit
// @Router /audits [post]
func CreateAudit(svc service.AuditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.AuditInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		a, err := svc.Create(c.UserContext(), middleware.SessionFrom(c), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	}
}
