package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// GetLimit reads ?limit= from the query, falling back to defaultLimit when it
// is missing or not positive and capping it at maxLimit.
func GetLimit(c *fiber.Ctx, defaultLimit, maxLimit int) int {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
