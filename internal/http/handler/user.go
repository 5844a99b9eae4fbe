package handler

import (
	"github.com/gofiber/fiber/v2"

	"cmsapi/internal/http/middleware"
	"cmsapi/internal/service"
)

// ListUsers
//
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} model.PublicUser
// @Router /users [get]
func ListUsers(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.List(c.UserContext())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"data": users})
	}
}

// CreateUser
//
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param body body service.UserInput true "account"
// @Success 201 {object} model.PublicUser
// @Failure 409 {object} errorPayload
// @Router /users [post]
func CreateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.UserInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		u, err := svc.Create(c.UserContext(), middleware.SessionFrom(c), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// GetUser
//
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path string true "user id"
// @Success 200 {object} model.PublicUser
// @Router /users/{id} [get]
func GetUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		u, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(u)
	}
}

// UpdateUser
//
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "user id"
// @Param body body service.UserPatch true "changes"
// @Success 200 {object} model.PublicUser
// @Router /users/{id} [patch]
func UpdateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		var patch service.UserPatch
		if err := c.BodyParser(&patch); err != nil {
			return invalidBody(c)
		}
		u, err := svc.Update(c.UserContext(), middleware.SessionFrom(c), id, patch)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(u)
	}
}
