package listing

import (
	"context"
	"sync"

	domproduct "example.com/storefront/internal/domain/product"
)

type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
)

// View is a snapshot of the listing for rendering.
type View struct {
	State      State                 `json:"state"`
	Products   []*domproduct.Product `json:"products"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	TotalCount int                   `json:"totalCount"`
	TotalPages int                   `json:"totalPages"`
	Pages      []int                 `json:"pages"`
	HasPrev    bool                  `json:"hasPrev"`
	HasNext    bool                  `json:"hasNext"`
	Err        error                 `json:"-"`
}

// Controller drives the paginated product listing. Every page change
// re-fetches; a response belonging to a superseded page change is dropped.
type Controller struct {
	fetcher  PageFetcher
	pageSize int

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	state      State
	page       int
	products   []*domproduct.Product
	total      int
	totalKnown bool
	err        error
}

func NewController(fetcher PageFetcher, pageSize int) *Controller {
	return &Controller{
		fetcher:  fetcher,
		pageSize: pageSize,
		state:    StateLoading,
	}
}

// SetPage moves to page and blocks until its data arrives or a newer
// SetPage supersedes it. The returned view is always the current one.
func (c *Controller) SetPage(ctx context.Context, page int) View {
	refetched := false
	for {
		var (
			gen  uint64
			fctx context.Context
		)
		gen, fctx, page = c.begin(ctx, page)
		res := c.fetcher.Fetch(fctx, page, c.pageSize)

		c.mu.Lock()
		if gen != c.generation {
			v := c.viewLocked()
			c.mu.Unlock()
			return v
		}
		c.cancel()
		c.cancel = nil
		c.products = res.Products
		c.total = res.TotalCount
		c.totalKnown = c.totalKnown || res.CountErr == nil
		c.err = res.Err()
		c.state = StateReady

		tp := TotalPages(c.total, c.pageSize)
		if !refetched && c.totalKnown && tp > 0 && c.page >= tp {
			c.mu.Unlock()
			refetched = true
			page = tp - 1
			continue
		}
		v := c.viewLocked()
		c.mu.Unlock()
		return v
	}
}

func (c *Controller) begin(ctx context.Context, page int) (uint64, context.Context, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if page < 0 {
		page = 0
	}
	if c.totalKnown {
		if tp := TotalPages(c.total, c.pageSize); tp > 0 && page >= tp {
			page = tp - 1
		}
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = StateLoading
	c.page = page
	c.products = nil
	return c.generation, fctx, page
}

// Next is a no-op when the next button would be disabled.
func (c *Controller) Next(ctx context.Context) View {
	v := c.View()
	if !v.HasNext {
		return v
	}
	return c.SetPage(ctx, v.Page+1)
}

// Prev is a no-op on the first page.
func (c *Controller) Prev(ctx context.Context) View {
	v := c.View()
	if !v.HasPrev {
		return v
	}
	return c.SetPage(ctx, v.Page-1)
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	tp := TotalPages(c.total, c.pageSize)
	products := make([]*domproduct.Product, len(c.products))
	copy(products, c.products)
	return View{
		State:      c.state,
		Products:   products,
		Page:       c.page,
		PageSize:   c.pageSize,
		TotalCount: c.total,
		TotalPages: tp,
		Pages:      PageNumbers(tp),
		HasPrev:    c.page > 0,
		HasNext:    !(len(c.products) < c.pageSize || c.page+1 >= tp),
		Err:        c.err,
	}
}
