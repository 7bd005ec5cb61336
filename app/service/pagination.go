package service

import (
	"math"

	"github.com/gofiber/fiber/v2"

	"fiber/responta/app/model"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type listQuery struct {
	Page   int
	Limit  int
	Search string
	SortBy string
	Order  string
}

func parseListQuery(c *fiber.Ctx) listQuery {
	q := listQuery{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", defaultLimit),
		Search: c.Query("search", ""),
		SortBy: c.Query("sortBy", "created_at"),
		Order:  c.Query("order", "desc"),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Order != "asc" {
		q.Order = "desc"
	}
	return q
}

func (q listQuery) meta(total int64) model.MetaInfo {
	return model.MetaInfo{
		Page:   q.Page,
		Limit:  q.Limit,
		Total:  total,
		Pages:  int(math.Ceil(float64(total) / float64(q.Limit))),
		SortBy: q.SortBy,
		Order:  q.Order,
		Search: q.Search,
	}
}
