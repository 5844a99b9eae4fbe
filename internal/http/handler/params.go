package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"cmsapi/internal/ids"
)

// pageParams reads limit and offset from the query string. It writes the error
// response itself and reports ok=false when either is malformed.
func pageParams(c *fiber.Ctx) (limit, offset int, ok bool, err error) {
	limit, convErr := strconv.Atoi(c.Query("limit", "10"))
	if convErr != nil {
		return 0, 0, false, writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
	}
	offset, convErr = strconv.Atoi(c.Query("offset", "0"))
	if convErr != nil {
		return 0, 0, false, writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
	}
	return limit, offset, true, nil
}

// pathID returns the :id route parameter if it is a well-formed identifier.
func pathID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	return id, ids.Valid(id)
}

func invalidID(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
}

func invalidBody(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
}
