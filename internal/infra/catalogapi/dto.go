package catalogapi

import (
	"encoding/json"
	"strings"

	domproduct "example.com/storefront/internal/domain/product"
	domuser "example.com/storefront/internal/domain/user"
)

type categoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type productDTO struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Price       float64      `json:"price"`
	Description string       `json:"description"`
	CategoryID  int64        `json:"categoryId,omitempty"`
	Category    *categoryDTO `json:"category,omitempty"`
	Images      []string     `json:"images"`
}

type createProductRequest struct {
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	CategoryID  int64    `json:"categoryId"`
	Images      []string `json:"images"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

type profileDTO struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

// errorBody is the upstream error envelope. message is either a string or a
// list of validation messages.
type errorBody struct {
	Message    json.RawMessage `json:"message"`
	Error      string          `json:"error"`
	StatusCode int             `json:"statusCode"`
}

func (b errorBody) text() string {
	if len(b.Message) > 0 {
		var s string
		if err := json.Unmarshal(b.Message, &s); err == nil && s != "" {
			return s
		}
		var list []string
		if err := json.Unmarshal(b.Message, &list); err == nil && len(list) > 0 {
			return strings.Join(list, "; ")
		}
	}
	return b.Error
}

func mapProduct(d productDTO) *domproduct.Product {
	p := &domproduct.Product{
		ID:          d.ID,
		Title:       d.Title,
		Price:       d.Price,
		Description: d.Description,
		CategoryID:  d.CategoryID,
		Images:      cleanImages(d.Images),
	}
	if d.Category != nil {
		p.CategoryID = d.Category.ID
		p.Category = d.Category.Name
	}
	return p
}

func mapProfile(d profileDTO) *domuser.Profile {
	return &domuser.Profile{
		ID:     d.ID,
		Name:   d.Name,
		Email:  d.Email,
		Role:   d.Role,
		Avatar: d.Avatar,
	}
}

// cleanImages strips the JSON-array residue some seeded products carry,
// e.g. `["https://a.png"` or `"https://b.png"]`.
func cleanImages(in []string) []string {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		s := strings.Trim(strings.TrimSpace(raw), `[]"`)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
