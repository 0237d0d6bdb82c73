// Package listing implements the search, filter and paginate steps shared by
// every list view (rooms, bookings, users, violations).
package listing

import (
	"strings"

	"golang.org/x/text/cases"
)

// Any is the filter value meaning "no constraint".
const Any = "all"

const DefaultPageSize = 9

// Accessor reads one string field from an item.
type Accessor[T any] func(T) string

// Pipeline is configured once per item type: which fields the free-text
// search looks at and which named attributes can be filtered on.
type Pipeline[T any] struct {
	SearchFields []Accessor[T]
	Attributes   map[string]Accessor[T]
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
}

// Run applies search, then attribute filters, then pagination.
func (p Pipeline[T]) Run(items []T, state State) Page[T] {
	matched := p.Filter(p.Search(items, state.Query), state.Filters)
	return Paginate(matched, state.Page, state.PageSize)
}

// Search keeps items where any search field contains query, ignoring case.
// An empty query keeps everything.
func (p Pipeline[T]) Search(items []T, query string) []T {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))
	if needle == "" {
		return append([]T(nil), items...)
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, field := range p.SearchFields {
			if strings.Contains(fold.String(field(item)), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Filter keeps items matching every active constraint. Empty values and Any
// are inactive. A constraint on an attribute the pipeline does not know
// matches nothing.
func (p Pipeline[T]) Filter(items []T, filters map[string]string) []T {
	type constraint struct {
		field Accessor[T]
		value string
	}
	active := make([]constraint, 0, len(filters))
	for name, value := range filters {
		value = strings.TrimSpace(value)
		if value == "" || strings.EqualFold(value, Any) {
			continue
		}
		field, ok := p.Attributes[name]
		if !ok {
			return []T{}
		}
		active = append(active, constraint{field: field, value: value})
	}
	if len(active) == 0 {
		return append([]T(nil), items...)
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		keep := true
		for _, c := range active {
			if !strings.EqualFold(strings.TrimSpace(c.field(item)), c.value) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}

// Paginate returns the 1-based page of items. TotalPages is never below 1;
// a page beyond the last one is empty.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(items)
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	if totalPages < 1 {
		totalPages = 1
	}

	// Bounds are clamped before multiplying so a huge page or size cannot overflow.
	start := total
	if page <= totalPages {
		start = (page - 1) * pageSize
	}
	end := total
	if pageSize < total-start {
		end = start + pageSize
	}

	return Page[T]{
		Items:      append([]T{}, items[start:end]...),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Total:      total,
	}
}
