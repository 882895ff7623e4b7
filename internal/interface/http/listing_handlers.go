package http

import (
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	domproduct "example.com/storefront/internal/domain/product"
	detailuc "example.com/storefront/internal/usecase/detail"
	listinguc "example.com/storefront/internal/usecase/listing"
)

// pageParam turns the 1-based ?page= value into a zero-based index.
// Missing or malformed values mean the first page. The index is capped so
// that index*pageSize never overflows.
func pageParam(r *http.Request, pageSize int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 0
	}
	if pageSize > 0 && n-1 > math.MaxInt/pageSize {
		return math.MaxInt / pageSize
	}
	return n - 1
}

type listingPage struct {
	View listinguc.View
}

func (a *API) listingView(r *http.Request) listinguc.View {
	ctrl := listinguc.NewController(a.fetcher, a.pageSize)
	return ctrl.SetPage(r.Context(), pageParam(r, a.pageSize))
}

func (a *API) handleListing(w http.ResponseWriter, r *http.Request) {
	view := a.listingView(r)
	a.render(w, r, http.StatusOK, "listing", "Products", listingPage{View: view})
}

type detailPage struct {
	NotFound  bool
	Message   string
	Product   *domproduct.Product
	Image     string
	Index     int
	PrevIndex int
	NextIndex int
	Navigable bool
}

func (a *API) handleDetail(w http.ResponseWriter, r *http.Request) {
	view := a.detail.LoadRaw(r.Context(), chi.URLParam(r, "id"))
	if view.State != detailuc.StateFound {
		a.render(w, r, http.StatusNotFound, "detail", "Not found", detailPage{
			NotFound: true,
			Message:  detailuc.NotFoundMessage,
		})
		return
	}

	if raw := r.URL.Query().Get("image"); raw != "" {
		if i, err := strconv.Atoi(raw); err == nil {
			view = view.Select(i)
		}
	}
	a.render(w, r, http.StatusOK, "detail", view.Product.Title, detailPage{
		Product:   view.Product,
		Image:     view.Image,
		Index:     view.Carousel.Index(),
		PrevIndex: view.Carousel.Prev().Index(),
		NextIndex: view.Carousel.Next().Index(),
		Navigable: view.Carousel.Navigable(),
	})
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	view := a.listingView(r)

	data := make([]map[string]any, 0, len(view.Products))
	for _, p := range view.Products {
		data = append(data, mapProduct(p))
	}
	resp := map[string]any{
		"data":       data,
		"page":       view.Page + 1,
		"pageSize":   view.PageSize,
		"totalCount": view.TotalCount,
		"totalPages": view.TotalPages,
		"hasPrev":    view.HasPrev,
		"hasNext":    view.HasNext,
	}
	if view.Err != nil {
		resp["error"] = view.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	view := a.detail.Load(r.Context(), id)
	if view.State != detailuc.StateFound {
		handleDomainError(w, view.Err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(view.Product))
}
