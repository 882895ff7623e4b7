package listing

import (
	"context"
	"fmt"
	"sync"

	domproduct "example.com/storefront/internal/domain/product"
)

type fakeCatalog struct {
	mu         sync.Mutex
	products   []*domproduct.Product
	listErr    error
	listAllErr error
	listCalls  []domproduct.PageRequest
}

func newFakeCatalog(n int) *fakeCatalog {
	c := &fakeCatalog{}
	for i := 1; i <= n; i++ {
		c.products = append(c.products, &domproduct.Product{
			ID:     int64(i),
			Title:  fmt.Sprintf("Product %d", i),
			Price:  float64(i),
			Images: []string{fmt.Sprintf("https://img.test/%d.png", i)},
		})
	}
	return c
}

func (c *fakeCatalog) List(ctx context.Context, page domproduct.PageRequest) ([]*domproduct.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls = append(c.listCalls, page)
	if c.listErr != nil {
		return nil, c.listErr
	}
	if page.Offset >= len(c.products) {
		return []*domproduct.Product{}, nil
	}
	end := page.Offset + page.Limit
	if end > len(c.products) {
		end = len(c.products)
	}
	return c.products[page.Offset:end], nil
}

func (c *fakeCatalog) ListAll(ctx context.Context) ([]*domproduct.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listAllErr != nil {
		return nil, c.listAllErr
	}
	return c.products, nil
}

func (c *fakeCatalog) GetByID(ctx context.Context, id int64) (*domproduct.Product, error) {
	return nil, domproduct.ErrProductNotFound
}

func (c *fakeCatalog) Create(ctx context.Context, in domproduct.CreateInput) (*domproduct.Product, error) {
	return nil, nil
}

func (c *fakeCatalog) setErrors(listErr, listAllErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listErr = listErr
	c.listAllErr = listAllErr
}

func (c *fakeCatalog) calls() []domproduct.PageRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domproduct.PageRequest(nil), c.listCalls...)
}

// gatedFetcher holds back the answer for one page until released.
type gatedFetcher struct {
	inner    PageFetcher
	gatePage int
	started  chan struct{}
	release  chan struct{}
}

func (g *gatedFetcher) Fetch(ctx context.Context, pageIndex, pageSize int) Result {
	res := g.inner.Fetch(context.Background(), pageIndex, pageSize)
	if pageIndex == g.gatePage {
		close(g.started)
		<-g.release
	}
	return res
}
