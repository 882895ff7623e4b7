package listing

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domproduct "example.com/storefront/internal/domain/product"
)

// Result is one page of products plus the catalog size seen alongside it.
type Result struct {
	Products   []*domproduct.Product
	TotalCount int
	PageErr    error
	CountErr   error
}

// Err combines both request failures, nil when both succeeded.
func (r Result) Err() error {
	return multierr.Combine(r.PageErr, r.CountErr)
}

// PageFetcher loads one page of the catalog.
type PageFetcher interface {
	Fetch(ctx context.Context, pageIndex, pageSize int) Result
}

// Fetcher asks the catalog for a page and for the full collection, whose
// length is the total count. The two requests are independent: there is no
// guarantee both observe the same catalog snapshot.
type Fetcher struct {
	catalog domproduct.Catalog
	logger  *zap.Logger

	mu        sync.Mutex
	lastTotal int
}

func NewFetcher(catalog domproduct.Catalog, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{catalog: catalog, logger: logger}
}

func (f *Fetcher) Fetch(ctx context.Context, pageIndex, pageSize int) Result {
	var (
		res Result
		g   errgroup.Group
	)

	// neither goroutine returns an error so one failure never cancels the other
	g.Go(func() error {
		products, err := f.catalog.List(ctx, domproduct.NewPageRequest(pageIndex, pageSize))
		if err != nil {
			res.PageErr = errors.Wrapf(err, "fetch page %d", pageIndex)
			return nil
		}
		res.Products = products
		return nil
	})
	g.Go(func() error {
		all, err := f.catalog.ListAll(ctx)
		if err != nil {
			res.CountErr = errors.Wrap(err, "fetch total count")
			return nil
		}
		res.TotalCount = len(all)
		return nil
	})
	_ = g.Wait()

	f.mu.Lock()
	if res.CountErr == nil {
		f.lastTotal = res.TotalCount
	} else {
		res.TotalCount = f.lastTotal
	}
	f.mu.Unlock()

	if res.PageErr != nil {
		res.Products = []*domproduct.Product{}
		f.logger.Warn("product page fetch failed", zap.Int("page", pageIndex), zap.Error(res.PageErr))
	}
	if res.CountErr != nil {
		f.logger.Warn("product count fetch failed", zap.Int("kept_total", res.TotalCount), zap.Error(res.CountErr))
	}
	return res
}
