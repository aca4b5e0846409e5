// Package paginate slices ordered sequences into pages.
//
// Paginate is pure: it never fails, never mutates its input and returns the
// same result for the same arguments. Out-of-range parameters are coerced
// rather than rejected (see Params.Normalize).
package paginate

import (
	"math"
	"strconv"
	"strings"
)

// Defaults and bounds applied by Params.Normalize.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params selects a page. Zero values mean "use the default".
type Params struct {
	Page  int
	Limit int
}

// Meta describes where a page sits within the full sequence.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Result is one page of items plus its metadata.
type Result[T any] struct {
	Data       []T  `json:"data"`
	Pagination Meta `json:"pagination"`
}

// ParseParams builds Params from raw query-string values. Anything that is
// not a finite number becomes 0 and is later replaced by the default;
// fractional values are truncated.
func ParseParams(page, limit string) Params {
	return Params{Page: parseInt(page), Limit: parseInt(limit)}
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

// Normalize returns p with Page >= 1 and Limit in [1, MaxLimit].
// Non-positive values fall back to DefaultPage and DefaultLimit.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Paginate returns the page of items selected by p. A page past the end
// yields empty Data with accurate metadata. Data is a copy and never nil.
func Paginate[T any](items []T, p Params) Result[T] {
	p = p.Normalize()

	total := len(items)
	totalPages := (total + p.Limit - 1) / p.Limit

	// Guard the multiplication: Page can be arbitrarily large.
	start := total
	if p.Page-1 < totalPages {
		start = (p.Page - 1) * p.Limit
	}
	end := start + p.Limit
	if end > total {
		end = total
	}

	data := make([]T, end-start)
	copy(data, items[start:end])

	return Result[T]{
		Data: data,
		Pagination: Meta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    p.Page < totalPages,
			HasPrev:    p.Page > 1,
		},
	}
}
