package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	domsession "example.com/storefront/internal/domain/session"
	productuc "example.com/storefront/internal/usecase/product"
)

type adminPage struct {
	Draft    productuc.Draft
	Errors   productuc.FieldErrors
	Previews []string
}

func newAdminPage(d productuc.Draft, fe productuc.FieldErrors) adminPage {
	d = d.Normalize()
	return adminPage{Draft: d, Errors: fe, Previews: d.Previews()}
}

func (a *API) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "admin", "Admin", newAdminPage(productuc.NewDraft(), nil))
}

func draftFromForm(r *http.Request) productuc.Draft {
	return productuc.Draft{
		Title:       r.PostForm.Get("title"),
		Price:       r.PostForm.Get("price"),
		Description: r.PostForm.Get("description"),
		CategoryID:  r.PostForm.Get("categoryId"),
		Images:      append([]string(nil), r.PostForm["images"]...),
	}.Normalize()
}

// parseAction splits "remove-image:2" into its verb and index.
func parseAction(raw string) (string, int) {
	verb, arg, ok := strings.Cut(raw, ":")
	if !ok {
		if raw == "" {
			return "submit", -1
		}
		return raw, -1
	}
	i, err := strconv.Atoi(arg)
	if err != nil {
		return verb, -1
	}
	return verb, i
}

func (a *API) handleAdminSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	draft := draftFromForm(r)

	action, index := parseAction(r.PostForm.Get("action"))
	if idx := r.PostForm.Get("index"); idx != "" && index < 0 {
		if i, err := strconv.Atoi(idx); err == nil {
			index = i
		}
	}

	switch action {
	case "add-image":
		a.render(w, r, http.StatusOK, "admin", "Admin", newAdminPage(draft.AddImage(), nil))
		return
	case "remove-image":
		a.render(w, r, http.StatusOK, "admin", "Admin", newAdminPage(draft.RemoveImage(index), nil))
		return
	}

	res, err := a.productSvc.Submit(r.Context(), draft)
	switch {
	case errors.Is(err, productuc.ErrInvalidDraft):
		a.render(w, r, http.StatusUnprocessableEntity, "admin", "Admin", newAdminPage(res.Draft, res.Errors))
	case err != nil:
		a.flash(r, domsession.Toast{
			Title:       productuc.ToastFailedTitle,
			Description: productuc.MsgAddFailed,
			Variant:     domsession.ToastDestructive,
		})
		a.render(w, r, http.StatusBadGateway, "admin", "Admin", newAdminPage(res.Draft, nil))
	default:
		a.flash(r, domsession.Toast{
			Title:       productuc.ToastAddedTitle,
			Description: productuc.AddedMessage(res.Product.ID),
			Variant:     domsession.ToastSuccess,
		})
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	}
}

// createProductRequest carries no validate tags; Submit applies the form rules.
type createProductRequest struct {
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	CategoryID  int64    `json:"categoryId"`
	Images      []string `json:"images"`
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, err := a.productSvc.Submit(r.Context(), productuc.Draft{
		Title:       req.Title,
		Price:       strconv.FormatFloat(req.Price, 'f', -1, 64),
		Description: req.Description,
		CategoryID:  strconv.FormatInt(req.CategoryID, 10),
		Images:      req.Images,
	})
	if err != nil {
		if errors.Is(err, productuc.ErrInvalidDraft) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Details: res.Errors})
			return
		}
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapProduct(res.Product))
}
