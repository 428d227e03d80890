package helpers

import (
	"fmt"
	"net/http"
	"strconv"

	"collabcalendar/internal/domain"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePagination reads page and page_size from the query string. Missing values
// take the defaults and page_size above MaxPageSize is capped; anything that is
// not a positive integer is an error the caller should report as 400.
func ParsePagination(r *http.Request) (domain.PaginationParams, error) {
	q := r.URL.Query()
	page, err := positiveInt(q.Get("page"), DefaultPage)
	if err != nil {
		return domain.PaginationParams{}, fmt.Errorf("page: %w", err)
	}
	size, err := positiveInt(q.Get("page_size"), DefaultPageSize)
	if err != nil {
		return domain.PaginationParams{}, fmt.Errorf("page_size: %w", err)
	}
	return domain.PaginationParams{Page: page, PageSize: min(size, MaxPageSize)}, nil
}

func positiveInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("must be a positive integer, got %q", raw)
	}
	return v, nil
}

// PaginationMeta accompanies every paginated list response.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// NewPaginationMeta describes the page p of a result set holding total rows.
func NewPaginationMeta(p domain.PaginationParams, total int) PaginationMeta {
	size := p.Limit()
	pages := (total + size - 1) / size
	return PaginationMeta{
		Page:       p.Page,
		PageSize:   size,
		Total:      total,
		TotalPages: pages,
		HasMore:    p.Page < pages,
	}
}
