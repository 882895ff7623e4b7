package product

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	domproduct "example.com/storefront/internal/domain/product"
)

// Draft is the raw admin form input. Images always has at least one field.
type Draft struct {
	Title       string   `json:"title"`
	Price       string   `json:"price"`
	Description string   `json:"description"`
	CategoryID  string   `json:"categoryId"`
	Images      []string `json:"images"`
}

func NewDraft() Draft {
	return Draft{Images: []string{""}}
}

// Normalize restores the one-field minimum after decoding a submitted form.
func (d Draft) Normalize() Draft {
	if len(d.Images) == 0 {
		d.Images = []string{""}
	}
	return d
}

func (d Draft) AddImage() Draft {
	d.Images = append(append([]string(nil), d.Images...), "")
	return d
}

// RemoveImage is a no-op when i is out of range or only one field is left.
func (d Draft) RemoveImage(i int) Draft {
	if len(d.Images) <= 1 || i < 0 || i >= len(d.Images) {
		return d
	}
	images := make([]string, 0, len(d.Images)-1)
	images = append(images, d.Images[:i]...)
	images = append(images, d.Images[i+1:]...)
	d.Images = images
	return d
}

// CanRemoveImage reports whether remove buttons should be offered.
func (d Draft) CanRemoveImage() bool { return len(d.Images) > 1 }

// Previews returns, per image field, the URL when it parses as absolute
// and "" otherwise.
func (d Draft) Previews() []string {
	out := make([]string, len(d.Images))
	for i, raw := range d.Images {
		if isValidURL(raw) {
			out[i] = raw
		}
	}
	return out
}

func isValidURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}

// FieldErrors maps form field names ("title", "images[0]", ...) to messages.
type FieldErrors map[string]string

func (fe FieldErrors) Get(field string) string { return fe[field] }

func (fe FieldErrors) Image(i int) string { return fe["images["+strconv.Itoa(i)+"]"] }

type payload struct {
	Title       string   `json:"title" validate:"required"`
	Price       float64  `json:"price" validate:"min=1"`
	Description string   `json:"description" validate:"min=5"`
	CategoryID  int64    `json:"categoryId" validate:"min=1"`
	Images      []string `json:"images" validate:"min=1,dive,url"`
}

var messages = map[string]string{
	"title.required":  "Title is required",
	"price.min":       "Price must be at least 1",
	"description.min": "Description must be at least 5 characters",
	"categoryId.min":  "Category is required",
	"images.min":      "At least one image is required",
	"images.url":      "Invalid image URL",
}

const (
	msgPriceNotNumber = "Price must be a number"
	msgCategoryNaN    = "Category is required"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the draft and converts it into a create request.
// A nil FieldErrors means the draft is valid.
func (d Draft) Validate(v *validator.Validate) (domproduct.CreateInput, FieldErrors) {
	fe := FieldErrors{}
	p := payload{
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
	}

	if price, err := strconv.ParseFloat(strings.TrimSpace(d.Price), 64); err != nil {
		fe["price"] = msgPriceNotNumber
	} else {
		p.Price = price
	}
	if cat, err := strconv.ParseInt(strings.TrimSpace(d.CategoryID), 10, 64); err != nil {
		fe["categoryId"] = msgCategoryNaN
	} else {
		p.CategoryID = cat
	}
	for _, img := range d.Images {
		p.Images = append(p.Images, strings.TrimSpace(img))
	}

	if err := v.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, e := range verrs {
				field := e.Field()
				if _, seen := fe[field]; seen {
					continue
				}
				key := field
				if strings.HasPrefix(field, "images[") {
					key = "images"
				}
				msg, ok := messages[key+"."+e.Tag()]
				if !ok {
					msg = e.Error()
				}
				fe[field] = msg
			}
		}
	}

	if len(fe) > 0 {
		return domproduct.CreateInput{}, fe
	}
	return domproduct.CreateInput{
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		Images:      p.Images,
	}, nil
}
