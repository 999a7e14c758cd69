package models

import "time"

// IssueFilter narrows issue queries. Zero values are ignored.
type IssueFilter struct {
	IssueType  string
	Status     string
	Statuses   []string
	Priority   string
	ReporterID int64

	CreatedFrom  *time.Time // inclusive
	CreatedTo    *time.Time // exclusive
	ResolvedFrom *time.Time // inclusive, on actual_resolution_date
	ResolvedTo   *time.Time // exclusive

	HasResolutionDate bool
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role        string
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Page is a 1-based page request.
type Page struct {
	Page    int
	PerPage int
}

// MaxPage bounds the page number so the skip offset stays well inside int64.
const MaxPage = 1_000_000

func (p Page) Skip() int64 {
	page := min(max(p.Page, 1), MaxPage)
	return int64(page-1) * int64(max(p.PerPage, 0))
}

// Pagination is the envelope returned alongside paged collections.
type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

func NewPagination(p Page, total int64) Pagination {
	pages := 0
	if p.PerPage > 0 {
		pages = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}
	return Pagination{
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   total,
		Pages:   pages,
		HasNext: p.Page < pages,
		HasPrev: p.Page > 1,
	}
}

// CommentFilter narrows comment queries. Zero values are ignored.
type CommentFilter struct {
	IssueID     int64
	AuthorID    int64
	CreatedFrom *time.Time
}
