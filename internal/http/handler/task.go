package handler

import (
	"github.com/gofiber/fiber/v2"

	"cmsapi/internal/http/middleware"
	"cmsapi/internal/model"
	"cmsapi/internal/service"
)

// ListTasks returns a page of tasks, newest first.
//
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "offset" default(0)
// @Success 200 {object} service.Page[model.Task]
// @Router /tasks [get]
func ListTasks(svc service.TaskService) fiber.Handler {
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

// CreateTask
//
// @Summary Create task
// @Tags tasks
// @Accept json
// @Produce json
// @Param body body service.TaskInput true "task"
// @Success 201 {object} model.Task
// @Failure 403 {object} errorPayload
// @Router /tasks [post]
func CreateTask(svc service.TaskService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.TaskInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		task, err := svc.Create(c.UserContext(), middleware.SessionFrom(c), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(task)
	}
}

// GetTask
//
// @Summary Get task
// @Tags tasks
// @Produce json
// @Param id path string true "task id"
// @Success 200 {object} model.Task
// @Router /tasks/{id} [get]
func GetTask(svc service.TaskService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		task, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(task)
	}
}

// UpdateTask
//
// @Summary Update task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "task id"
// @Param body body service.TaskPatch true "changes"
// @Success 200 {object} model.Task
// @Router /tasks/{id} [patch]
func UpdateTask(svc service.TaskService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		var patch service.TaskPatch
		if err := c.BodyParser(&patch); err != nil {
			return invalidBody(c)
		}
		task, err := svc.Update(c.UserContext(), middleware.SessionFrom(c), id, patch)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(task)
	}
}

type approvalRequest struct {
	Decision model.Approval `json:"decision"`
}

// ApproveTask sets the approval decision of a task.
//
// @Summary Approve or reject task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "task id"
// @Param body body approvalRequest true "decision: Approved, Rejected or Pending"
// @Success 200 {object} model.Task
// @Router /tasks/{id}/approval [post]
func ApproveTask(svc service.TaskService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		var req approvalRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		task, err := svc.Approve(c.UserContext(), middleware.SessionFrom(c), id, req.Decision)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(task)
	}
}
