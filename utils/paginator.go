package utils

import "strconv"

// PageSize is the fixed number of posts per feed page.
const PageSize = 10

// Page describes one window of an ordered sequence, with enough metadata for
// UI navigation without recomputation.
type Page struct {
	Number      int   `json:"page"`
	Size        int   `json:"page_size"`
	TotalItems  int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Paginate resolves a raw page token against the total item count.
// A missing or non-numeric token defaults to page 1; a page past the end
// clamps to the last valid page. An empty sequence still has one (empty) page.
func Paginate(pageToken string, total int64) Page {
	totalPages := int((total + PageSize - 1) / PageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	number := 1
	if n, err := strconv.Atoi(pageToken); err == nil && n > 0 {
		number = n
	}
	if number > totalPages {
		number = totalPages
	}

	return Page{
		Number:      number,
		Size:        PageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     number < totalPages,
		HasPrevious: number > 1,
	}
}

// Offset returns the item offset of the page start.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}
