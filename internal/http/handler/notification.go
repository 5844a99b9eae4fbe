package handler

import (
	"github.com/gofiber/fiber/v2"

	"cmsapi/internal/http/middleware"
	"cmsapi/internal/service"
)

// Inbox returns the caller's notifications with the unread count.
//
// @Summary Notification inbox
// @Tags notifications
// @Produce json
// @Success 200 {object} service.Inbox
// @Router /notifications [get]
func Inbox(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		inbox, err := svc.Inbox(c.UserContext(), middleware.SessionFrom(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(inbox)
	}
}

// SendNotification queues a custom notification for the delivery worker.
//
// @Summary Send notification
// @Tags notifications
// @Accept json
// @Produce json
// @Param body body service.NotificationInput true "message"
// @Success 202 {object} model.Notification
// @Router /notifications [post]
func SendNotification(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.NotificationInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		n, err := svc.Send(c.UserContext(), middleware.SessionFrom(c), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(n)
	}
}

// MarkNotificationRead
//
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Param id path string true "notification id"
// @Success 200 {object} model.Notification
// @Failure 409 {object} errorPayload
// @Router /notifications/{id}/read [post]
func MarkNotificationRead(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		n, err := svc.MarkRead(c.UserContext(), middleware.SessionFrom(c), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(n)
	}
}
