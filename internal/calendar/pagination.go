package calendar

// Page is one page of a listing.
type Page[T any] struct {
	Items    []T
	Page     int // 1-based
	PageSize int
	HasNext  bool
	HasPrev  bool
	Total    int
}

const DefaultPageSize = 10

// Paginate cuts items into pages of pageSize and returns page number page.
// Out-of-range values fall back to page 1 and DefaultPageSize.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	total := len(items)
	page, pageSize = normalize(page, pageSize)

	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	return Page[T]{
		Items:    items[start:end],
		Page:     page,
		PageSize: pageSize,
		HasNext:  end < total,
		HasPrev:  page > 1,
		Total:    total,
	}
}

// Bounds turns a page request into LIMIT and OFFSET for a database query.
func Bounds(page, pageSize int) (limit, offset int) {
	page, pageSize = normalize(page, pageSize)
	return pageSize, (page - 1) * pageSize
}

// FromQuery wraps a page that was already cut by the database.
func FromQuery[T any](items []T, page, pageSize, total int) Page[T] {
	page, pageSize = normalize(page, pageSize)
	return Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasNext:  (page-1)*pageSize+len(items) < total,
		HasPrev:  page > 1,
		Total:    total,
	}
}

func normalize(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize
}
