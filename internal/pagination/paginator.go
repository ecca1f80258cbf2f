// Package pagination windows an unbounded filtered query into bounded pages.
// A Paginator is built from two halves of the same filter: a data query that
// accepts LIMIT/OFFSET and a count query returning the total row count. It
// holds no state between calls; both queries re-execute on every page fetch.
package pagination

import "context"

// CountFunc runs the count query and returns the total number of rows the
// data query would produce without bounds.
type CountFunc func(ctx context.Context) (int, error)

// FetchFunc runs the data query bounded to limit rows starting at offset.
type FetchFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// Page is one bounded window of results plus the numbers a listing needs.
type Page[T any] struct {
	Items       []T `json:"items"`
	Total       int `json:"total"`
	MaxPerPage  int `json:"max_per_page"`
	CurrentPage int `json:"current_page"`
	PageCount   int `json:"page_count"`
}

type Paginator[T any] struct {
	fetch       FetchFunc[T]
	count       CountFunc
	maxPerPage  int
	currentPage int
}

func New[T any](fetch FetchFunc[T], count CountFunc) *Paginator[T] {
	return &Paginator[T]{
		fetch:       fetch,
		count:       count,
		maxPerPage:  10,
		currentPage: 1,
	}
}

func (p *Paginator[T]) SetMaxPerPage(n int) {
	if n < 1 {
		n = 1
	}
	p.maxPerPage = n
}

// SetCurrentPage sets the 1-indexed page. Values below 1 clamp to 1. There is
// no upper clamp: a page past the end yields an empty item slice, not an error.
func (p *Paginator[T]) SetCurrentPage(page int) {
	if page < 1 {
		page = 1
	}
	p.currentPage = page
}

func (p *Paginator[T]) CurrentPageResults(ctx context.Context) (*Page[T], error) {
	total, err := p.count(ctx)
	if err != nil {
		return nil, err
	}

	offset := (p.currentPage - 1) * p.maxPerPage
	items, err := p.fetch(ctx, p.maxPerPage, offset)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}

	return &Page[T]{
		Items:       items,
		Total:       total,
		MaxPerPage:  p.maxPerPage,
		CurrentPage: p.currentPage,
		PageCount:   (total + p.maxPerPage - 1) / p.maxPerPage,
	}, nil
}
