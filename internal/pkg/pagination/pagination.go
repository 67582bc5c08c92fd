package pagination

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Params represents pagination parameters. Limit 0 means unpaginated.
type Params struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Meta represents pagination metadata
type Meta struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

// MaxLimit is the maximum number of items per page
const MaxLimit = 100

// GetParams extracts limit/offset from the query string
func GetParams(c *fiber.Ctx) Params {
	limit, _ := strconv.Atoi(c.Query("limit", "0"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	return Normalize(limit, offset)
}

// Normalize clamps limit and offset into their valid ranges. An offset
// without a limit is dropped.
func Normalize(limit, offset int) Params {
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 || limit == 0 {
		offset = 0
	}
	return Params{Limit: limit, Offset: offset}
}

// GetMeta calculates pagination metadata
func GetMeta(params Params, total int64) *Meta {
	hasNext := false
	if params.Limit > 0 {
		hasNext = int64(params.Offset+params.Limit) < total
	}
	return &Meta{
		Limit:   params.Limit,
		Offset:  params.Offset,
		Total:   total,
		HasNext: hasNext,
		HasPrev: params.Offset > 0,
	}
}

// Response represents paginated response
type Response struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta"`
}

// NewResponse creates a new paginated response
func NewResponse(data interface{}, params Params, total int64) *Response {
	return &Response{
		Data: data,
		Meta: GetMeta(params, total),
	}
}
