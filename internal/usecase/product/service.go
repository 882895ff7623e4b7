package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domproduct "example.com/storefront/internal/domain/product"
)

var ErrInvalidDraft = errors.New("invalid product draft")

const (
	ToastAddedTitle  = "Product Added"
	ToastFailedTitle = "Error"
	MsgAddFailed     = "Failed to add product."
)

// AddedMessage is the success notice for a created product.
func AddedMessage(id int64) string {
	return fmt.Sprintf("Product added successfully! ID: %d", id)
}

type Service struct {
	catalog  domproduct.Catalog
	validate *validator.Validate
	logger   *zap.Logger
}

func NewService(catalog domproduct.Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, validate: newValidator(), logger: logger}
}

// SubmitResult carries the form to show next. After a successful create the
// draft is reset; otherwise it is the submitted one.
type SubmitResult struct {
	Product *domproduct.Product
	Draft   Draft
	Errors  FieldErrors
}

func (s *Service) Submit(ctx context.Context, d Draft) (SubmitResult, error) {
	d = d.Normalize()
	in, fe := d.Validate(s.validate)
	if fe != nil {
		return SubmitResult{Draft: d, Errors: fe}, ErrInvalidDraft
	}

	p, err := s.catalog.Create(ctx, in)
	if err != nil {
		s.logger.Error("create product failed", zap.String("title", in.Title), zap.Error(err))
		return SubmitResult{Draft: d}, errors.Wrap(err, "submit product")
	}
	s.logger.Info("product created", zap.Int64("product_id", p.ID))
	return SubmitResult{Product: p, Draft: NewDraft()}, nil
}
