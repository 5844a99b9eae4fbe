package handler

import (
	"github.com/gofiber/fiber/v2"

	"cmsapi/internal/http/middleware"
	"cmsapi/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Login exchanges email and password for a bearer token.
//
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} errorPayload
// @Router /auth/login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		res, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// Logout records the end of the caller's session. Tokens are stateless and
// simply expire.
//
// @Summary Log out
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func Logout(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Logout(c.UserContext(), middleware.SessionFrom(c)); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ChangePassword
//
// @Summary Change own password
// @Tags auth
// @Accept json
// @Param body body passwordRequest true "old and new password"
// @Success 204
// @Router /auth/password [post]
func ChangePassword(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req passwordRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		if err := svc.ChangePassword(c.UserContext(), middleware.SessionFrom(c), req.OldPassword, req.NewPassword); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Me returns the caller's session.
//
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} access.Session
// @Router /auth/me [get]
func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(middleware.SessionFrom(c))
	}
}
