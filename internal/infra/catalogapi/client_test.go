package catalogapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	domproduct "example.com/storefront/internal/domain/product"
	domuser "example.com/storefront/internal/domain/user"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestList_SendsOffsetAndLimit(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `[{"id":1,"title":"Shirt","price":10,"description":"cotton","images":["https://i.test/a.png"],"category":{"id":3,"name":"Clothes"}}]`)
	})

	products, err := client.List(context.Background(), domproduct.NewPageRequest(2, 12))
	require.NoError(t, err)
	require.Equal(t, "limit=12&offset=24", gotQuery)
	require.Len(t, products, 1)
	require.Equal(t, int64(1), products[0].ID)
	require.Equal(t, "Shirt", products[0].Title)
	require.Equal(t, int64(3), products[0].CategoryID)
	require.Equal(t, "Clothes", products[0].Category)
	require.Equal(t, []string{"https://i.test/a.png"}, products[0].Images)
}

func TestListAll_NoQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.URL.RawQuery)
		_, _ = io.WriteString(w, `[{"id":1},{"id":2},{"id":3}]`)
	})

	products, err := client.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)
}

func TestGetByID_NotFoundStatuses(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusBadRequest} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"message":"Could not find any entity of type \"Product\"","name":"EntityNotFoundError"}`)
		})

		_, err := client.GetByID(context.Background(), 999)
		require.ErrorIs(t, err, domproduct.ErrProductNotFound, "status %d", status)
	}
}

func TestGetByID_ServerErrorIsNotNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.GetByID(context.Background(), 1)
	require.Error(t, err)
	require.False(t, errors.Is(err, domproduct.ErrProductNotFound))
}

func TestCreate_PostsPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Lamp", body["title"])
		require.Equal(t, float64(25), body["price"])
		require.Equal(t, float64(2), body["categoryId"])
		require.Equal(t, []any{"https://i.test/lamp.png"}, body["images"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":321,"title":"Lamp","price":25,"description":"a desk lamp","images":["https://i.test/lamp.png"],"category":{"id":2,"name":"Home"}}`)
	})

	p, err := client.Create(context.Background(), domproduct.CreateInput{
		Title:       "Lamp",
		Price:       25,
		Description: "a desk lamp",
		CategoryID:  2,
		Images:      []string{"https://i.test/lamp.png"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(321), p.ID)
}

func TestCreate_ValidationMessagesAreJoined(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":["price must be a positive number","images must contain at least 1 elements"],"error":"Bad Request","statusCode":400}`)
	})

	_, err := client.Create(context.Background(), domproduct.CreateInput{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "price must be a positive number; images must contain at least 1 elements", apiErr.ServerMessage())
}

func TestLogin_ReturnsAccessToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "john@mail.com", body["email"])
		require.Equal(t, "changeme", body["password"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"access_token":"tok-123","refresh_token":"ref-456"}`)
	})

	token, err := client.Login(context.Background(), domuser.Credentials{Email: "john@mail.com", Password: "changeme"})
	require.NoError(t, err)
	require.Equal(t, "tok-123", token)
}

func TestLogin_UnauthorizedCarriesServerMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Unauthorized","statusCode":401}`)
	})

	_, err := client.Login(context.Background(), domuser.Credentials{Email: "a@b.c", Password: "nope"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "Unauthorized", apiErr.ServerMessage())
}

func TestProfile_SendsBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"id":1,"email":"john@mail.com","name":"Jhon","role":"customer","avatar":"https://i.test/u.png"}`)
	})

	p, err := client.Profile(context.Background(), "tok-123")
	require.NoError(t, err)
	require.Equal(t, "Jhon", p.Name)
	require.Equal(t, "customer", p.Role)
}

func TestRegister_SendsAvatar(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, domuser.DefaultAvatar, body["avatar"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":9,"email":"new@mail.com","name":"New"}`)
	})

	p, err := client.Register(context.Background(), domuser.Registration{
		Name: "New", Email: "new@mail.com", Password: "secret1", Avatar: domuser.DefaultAvatar,
	})
	require.NoError(t, err)
	require.Equal(t, int64(9), p.ID)
}

func TestMetrics_CountsOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products/7" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	client := NewClient(srv.URL, time.Second, WithMetrics(reg))

	_, err := client.ListAll(context.Background())
	require.NoError(t, err)
	_, err = client.GetByID(context.Background(), 7)
	require.Error(t, err)

	require.Equal(t, float64(1), testutil.ToFloat64(client.calls.WithLabelValues("list_all_products", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(client.calls.WithLabelValues("get_product", "404")))
}

func TestCleanImages(t *testing.T) {
	got := cleanImages([]string{`["https://i.test/a.png"`, `"https://i.test/b.png"]`, "  ", "https://i.test/c.png"})
	require.Equal(t, []string{"https://i.test/a.png", "https://i.test/b.png", "https://i.test/c.png"}, got)
}
