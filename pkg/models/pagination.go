package models

import (
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultPageLimit = 50
	DefaultPage      = 1

	// MaxPageLimit and MaxPage bound the query window so the row offset
	// stays small.
	MaxPageLimit = 100
	MaxPage      = 100000
)

// Page selects a window of a list, 1-indexed.
type Page struct {
	Page  int
	Limit int
}

// ParsePage reads page and limit query values. Missing or non-positive
// values fall back to defaults and values above the maximums are clamped.
func ParsePage(page, limit string) Page {
	return Page{
		Page:  parseBounded(page, DefaultPage, MaxPage),
		Limit: parseBounded(limit, DefaultPageLimit, MaxPageLimit),
	}
}

func parseBounded(raw string, fallback, upper int) int {
	n, err := strconv.ParseInt(raw, 10, 64)
	switch {
	case err != nil && errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-"):
		return upper
	case err != nil, n <= 0:
		return fallback
	case n > int64(upper):
		return upper
	}
	return int(n)
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	return (min(p.Page, MaxPage) - 1) * min(p.Limit, MaxPageLimit)
}

// Pagination describes the page returned in a list response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// NewPagination computes the page count for total items.
func NewPagination(p Page, total int64) Pagination {
	var pages int64
	if limit := int64(p.Limit); limit > 0 && total > 0 {
		pages = total / limit
		if total%limit != 0 {
			pages++
		}
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// ListResponse is the data payload of every list endpoint.
type ListResponse[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}
