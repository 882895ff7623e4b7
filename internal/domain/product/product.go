package product

import "math"

type Product struct {
	ID          int64
	Title       string
	Price       float64
	Description string
	CategoryID  int64
	Category    string
	Images      []string
}

// PageRequest is an offset/limit window over the catalog.
type PageRequest struct {
	Offset int
	Limit  int
}

func NewPageRequest(pageIndex, pageSize int) PageRequest {
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageSize > 0 && pageIndex > math.MaxInt/pageSize {
		pageIndex = math.MaxInt / pageSize
	}
	return PageRequest{Offset: pageIndex * pageSize, Limit: pageSize}
}

type CreateInput struct {
	Title       string
	Price       float64
	Description string
	CategoryID  int64
	Images      []string
}
