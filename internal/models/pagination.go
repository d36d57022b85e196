package models

// Pagination describes list response paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// HasNext reports whether a further page exists.
func (p Pagination) HasNext() bool {
	return p.Page*p.PageSize < p.TotalCount
}

// HasPrevious reports whether an earlier page exists.
func (p Pagination) HasPrevious() bool {
	return p.Page > 1
}
