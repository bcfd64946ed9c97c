package core

import "strconv"

const (
	DefaultPageSize = 20
	maxPageLinks    = 7
)

// PageLink is either a page number or an ellipsis; it marshals to `3` or `"..."`.
type PageLink struct {
	Number   int
	Ellipsis bool
}

func (l PageLink) MarshalJSON() ([]byte, error) {
	if l.Ellipsis {
		return []byte(`"..."`), nil
	}
	return []byte(strconv.Itoa(l.Number)), nil
}

type Page[T any] struct {
	Items      []T        `json:"items"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalItems int        `json:"total_items"`
	TotalPages int        `json:"total_pages"`
	Pages      []PageLink `json:"pages"`
}

// Paginate slices items for the given 1-based page. Out of range pages are clamped.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(items)
	totalPages := (total + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	} else if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	pageItems := make([]T, 0, end-start)
	pageItems = append(pageItems, items[start:end]...)

	return Page[T]{
		Items:      pageItems,
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: totalPages,
		Pages:      DisplayedPages(page, totalPages),
	}
}

// DisplayedPages returns the page links a pager shows:
// every page when there are at most 7, otherwise the first and last pages,
// the current page +/- 2, and ellipses for the gaps.
func DisplayedPages(current, total int) []PageLink {
	links := make([]PageLink, 0, maxPageLinks+2)
	if total <= maxPageLinks {
		for i := 1; i <= total; i++ {
			links = append(links, PageLink{Number: i})
		}
		return links
	}

	links = append(links, PageLink{Number: 1})
	if current > 4 {
		links = append(links, PageLink{Ellipsis: true})
	}

	start := current - 2
	if start < 2 {
		start = 2
	}
	end := current + 2
	if end > total-1 {
		end = total - 1
	}
	for i := start; i <= end; i++ {
		links = append(links, PageLink{Number: i})
	}

	if current < total-3 {
		links = append(links, PageLink{Ellipsis: true})
	}
	return append(links, PageLink{Number: total})
}
