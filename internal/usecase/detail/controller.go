package detail

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	domproduct "example.com/storefront/internal/domain/product"
)

type State string

const (
	StateLoading  State = "loading"
	StateFound    State = "found"
	StateNotFound State = "not-found"
)

// NotFoundMessage is what the page shows for any failed load.
const NotFoundMessage = "Product not found!"

type View struct {
	State    State               `json:"state"`
	Product  *domproduct.Product `json:"product,omitempty"`
	Carousel Carousel            `json:"-"`
	Image    string              `json:"image,omitempty"`
	Err      error               `json:"-"`
}

// Controller loads a single product. Every load starts the carousel over.
type Controller struct {
	catalog domproduct.Catalog
	logger  *zap.Logger
}

func NewController(catalog domproduct.Catalog, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{catalog: catalog, logger: logger}
}

// Load resolves to StateFound or StateNotFound. Network failures, unknown ids
// and malformed ids all end up not found.
func (c *Controller) Load(ctx context.Context, id int64) View {
	if id <= 0 {
		return View{State: StateNotFound, Err: errors.Wrapf(domproduct.ErrInvalidID, "id %d", id)}
	}
	p, err := c.catalog.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domproduct.ErrProductNotFound) {
			c.logger.Warn("product load failed", zap.Int64("product_id", id), zap.Error(err))
		}
		return View{State: StateNotFound, Err: err}
	}
	v := View{State: StateFound, Product: p, Carousel: NewCarousel(len(p.Images))}
	return v.withImage()
}

// LoadRaw parses a path segment before loading.
func (c *Controller) LoadRaw(ctx context.Context, raw string) View {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return View{State: StateNotFound, Err: errors.Wrapf(domproduct.ErrInvalidID, "id %q", raw)}
	}
	return c.Load(ctx, id)
}

// Select returns the view with the carousel moved to i (wrapped).
func (v View) Select(i int) View {
	if v.State != StateFound {
		return v
	}
	v.Carousel = v.Carousel.Select(i)
	return v.withImage()
}

func (v View) withImage() View {
	if v.Product != nil && v.Carousel.Len() > 0 {
		v.Image = v.Product.Images[v.Carousel.Index()]
	} else {
		v.Image = ""
	}
	return v
}
