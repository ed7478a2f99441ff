package menu

// Pagination describes where the current page sits in the server result.
type Pagination struct {
	TotalCount  int  `json:"total_count"`
	PageSize    int  `json:"page_size"`
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	Offset      int  `json:"offset"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// Paginate derives page metadata. Out-of-range pages are reported as they are;
// HasPrevious and HasNext are what callers use to stay in range.
func Paginate(total, pageSize, currentPage int) Pagination {
	p := Pagination{
		TotalCount:  total,
		PageSize:    pageSize,
		CurrentPage: currentPage,
	}
	if pageSize > 0 {
		p.Offset = (currentPage - 1) * pageSize
		if total > 0 {
			p.TotalPages = (total + pageSize - 1) / pageSize
		}
	}
	p.HasPrevious = currentPage > 1
	p.HasNext = currentPage < p.TotalPages
	return p
}
