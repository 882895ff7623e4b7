// Package catalogapi is the HTTP client for the remote catalog and identity API.
package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"

	domproduct "example.com/storefront/internal/domain/product"
	domuser "example.com/storefront/internal/domain/user"
)

const DefaultBaseURL = "https://api.escuelajs.co/api/v1"

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog api: status %d: %s", e.StatusCode, e.Message)
}

// ServerMessage is the human readable message supplied by the server, if any.
func (e *APIError) ServerMessage() string {
	return e.Message
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	calls      *prometheus.CounterVec
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics counts upstream calls by operation and outcome.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		calls := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_upstream_calls_total",
			Help: "Calls to the remote catalog API by operation and outcome.",
		}, []string{"operation", "outcome"})
		if err := reg.Register(calls); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				calls = are.ExistingCollector.(*prometheus.CounterVec)
			} else {
				panic(err)
			}
		}
		c.calls = calls
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) List(ctx context.Context, page domproduct.PageRequest) ([]*domproduct.Product, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(page.Offset))
	q.Set("limit", strconv.Itoa(page.Limit))

	var out []productDTO
	if err := c.do(ctx, "list_products", http.MethodGet, "/products", q, nil, "", &out); err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return mapProducts(out), nil
}

func (c *Client) ListAll(ctx context.Context) ([]*domproduct.Product, error) {
	var out []productDTO
	if err := c.do(ctx, "list_all_products", http.MethodGet, "/products", nil, nil, "", &out); err != nil {
		return nil, errors.Wrap(err, "list all products")
	}
	return mapProducts(out), nil
}

func (c *Client) GetByID(ctx context.Context, id int64) (*domproduct.Product, error) {
	var out productDTO
	err := c.do(ctx, "get_product", http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, nil, "", &out)
	if err != nil {
		// the API answers 400 "Could not find any entity" for unknown ids
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusBadRequest) {
			return nil, errors.Wrapf(domproduct.ErrProductNotFound, "product %d", id)
		}
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	return mapProduct(out), nil
}

func (c *Client) Create(ctx context.Context, in domproduct.CreateInput) (*domproduct.Product, error) {
	body := createProductRequest{
		Title:       in.Title,
		Price:       in.Price,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Images:      in.Images,
	}
	var out productDTO
	if err := c.do(ctx, "create_product", http.MethodPost, "/products/", nil, body, "", &out); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return mapProduct(out), nil
}

func (c *Client) Login(ctx context.Context, cred domuser.Credentials) (string, error) {
	var out loginResponse
	body := loginRequest{Email: cred.Email, Password: cred.Password}
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", nil, body, "", &out); err != nil {
		return "", errors.Wrap(err, "login")
	}
	if out.AccessToken == "" {
		return "", errors.Wrap(domuser.ErrUnauthorized, "login: empty access token")
	}
	return out.AccessToken, nil
}

func (c *Client) Register(ctx context.Context, r domuser.Registration) (*domuser.Profile, error) {
	body := registerRequest{Name: r.Name, Email: r.Email, Password: r.Password, Avatar: r.Avatar}
	var out profileDTO
	if err := c.do(ctx, "register", http.MethodPost, "/users/", nil, body, "", &out); err != nil {
		return nil, errors.Wrap(err, "register")
	}
	return mapProfile(out), nil
}

func (c *Client) Profile(ctx context.Context, token string) (*domuser.Profile, error) {
	var out profileDTO
	if err := c.do(ctx, "profile", http.MethodGet, "/auth/profile", nil, nil, token, &out); err != nil {
		return nil, errors.Wrap(err, "profile")
	}
	return mapProfile(out), nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, token string, out any) (err error) {
	defer func() { c.observe(op, err) }()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if raw, rerr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)); rerr == nil && json.Unmarshal(raw, &eb) == nil {
			apiErr.Message = eb.text()
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func (c *Client) observe(op string, err error) {
	if c.calls == nil {
		return
	}
	outcome := "ok"
	var apiErr *APIError
	switch {
	case err == nil:
	case errors.As(err, &apiErr):
		outcome = strconv.Itoa(apiErr.StatusCode)
	default:
		outcome = "error"
	}
	c.calls.WithLabelValues(op, outcome).Inc()
}

func mapProducts(in []productDTO) []*domproduct.Product {
	out := make([]*domproduct.Product, 0, len(in))
	for _, d := range in {
		out = append(out, mapProduct(d))
	}
	return out
}
