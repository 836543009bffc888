package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps the skip offset well inside int64.
	MaxPage = math.MaxInt32
)

type Page struct {
	Page  int
	Limit int
}

func (p Page) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// NewPage clamps page and limit to usable values.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

// PageFromQuery reads ?page=&limit=, falling back to defaults on bad input.
func PageFromQuery(c *gin.Context) Page {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return NewPage(page, limit)
}

type Pagination struct {
	Current int   `json:"current"`
	Pages   int64 `json:"pages"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
}

func NewPagination(p Page, total int64) Pagination {
	pages := int64(0)
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Pagination{
		Current: p.Page,
		Pages:   pages,
		Total:   total,
		Limit:   p.Limit,
	}
}
