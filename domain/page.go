package domain

import "time"

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// SortBySentAt is the only sort field messages can be paged by.
const SortBySentAt = "sentAt"

// PageRequest is a 0-based page query over a conversation log.
type PageRequest struct {
	ConversationID ConversationID `validate:"required"`
	Page           int            `validate:"gte=0"`
	Size           int            `validate:"gte=1"`
	SortField      string         `validate:"oneof=sentAt"`
	SortDir        SortDirection  `validate:"oneof=asc desc"`
	IncludeDeleted bool
	// Until hides the messages sent after it. Former participants page with their LeftAt.
	Until          *time.Time
}

// WithDefaults fills the zero fields the way callers usually leave them.
func (r PageRequest) WithDefaults(defaultSize int) PageRequest {
	if r.Size == 0 {
		r.Size = defaultSize
	}
	if r.SortField == "" {
		r.SortField = SortBySentAt
	}
	if r.SortDir == "" {
		r.SortDir = Desc
	}
	return r
}

type PagedResult[T any] struct {
	Items         []T
	TotalElements int
	TotalPages    int
	Page          int
	Size          int
	HasNext       bool
	HasPrevious   bool
}

func NewPagedResult[T any](items []T, total, page, size int) PagedResult[T] {
	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}
	if items == nil {
		items = []T{}
	}
	return PagedResult[T]{
		Items:         items,
		TotalElements: total,
		TotalPages:    totalPages,
		Page:          page,
		Size:          size,
		HasNext:       page+1 < totalPages,
		HasPrevious:   page > 0,
	}
}

// MapPage converts the items of a page, keeping its counters.
func MapPage[T, U any](p PagedResult[T], fn func(T) U) PagedResult[U] {
	items := make([]U, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, fn(item))
	}
	return PagedResult[U]{
		Items:         items,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		Page:          p.Page,
		Size:          p.Size,
		HasNext:       p.HasNext,
		HasPrevious:   p.HasPrevious,
	}
}
