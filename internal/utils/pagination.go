package utils

import (
	"iter"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds pagination parameters. A zero Limit means no limit.
type Pagination struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// GetPagination extracts the page and limit from the query parameters.
// Invalid values fall back to the defaults.
func GetPagination(c *fiber.Ctx, defaultPage, defaultLimit int) Pagination {
	page, err := strconv.Atoi(c.Query("page", strconv.Itoa(defaultPage)))
	if err != nil || page < 1 {
		page = defaultPage
	}

	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 0 {
		limit = defaultLimit
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Collect drains seq into a slice, honoring the window described by p. It
// stops reading as soon as the window is full.
func Collect[T any](seq iter.Seq2[T, error], p Pagination) ([]T, error) {
	out := make([]T, 0)
	skipped := 0
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		if skipped < p.Offset {
			skipped++
			continue
		}
		out = append(out, item)
		if p.Limit > 0 && len(out) == p.Limit {
			break
		}
	}
	return out, nil
}
