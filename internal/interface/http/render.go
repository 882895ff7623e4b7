package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	domsession "example.com/storefront/internal/domain/session"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageNames = []string{"listing", "detail", "login", "signup", "admin"}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"dec": func(i int) int { return i - 1 },
	// zero-based page index to its 1-based URL
	"pageURL": func(page int) string {
		if page <= 0 {
			return "/"
		}
		return "/?page=" + strconv.Itoa(page+1)
	},
	"imageURL": func(id int64, i int) string {
		return fmt.Sprintf("/product/%d?%s", id, url.Values{"image": {strconv.Itoa(i)}}.Encode())
	},
}

// parseTemplates builds one template set per page, each with the base layout.
func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/base.tmpl", "templates/"+name+".tmpl")
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s template", name)
		}
		out[name] = t
	}
	return out, nil
}

type pageData struct {
	Title   string
	Session domsession.State
	Toast   *domsession.Toast
	Content any
}

// render executes the base layout around page. A pending toast is consumed.
func (a *API) render(w http.ResponseWriter, r *http.Request, status int, page, title string, content any) {
	t, ok := a.templates[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}

	sess := sessionFrom(r.Context())
	st := a.loadState(r, sess.ID)
	toast, rest := st.TakeToast()
	if toast != nil {
		if err := a.sessions.Save(r.Context(), sess.ID, rest); err != nil {
			a.logger.Warn("consume toast", zap.String("session", sess.ID), zap.Error(err))
		}
	}

	var buf bytes.Buffer
	data := pageData{Title: title, Session: rest, Toast: toast, Content: content}
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		a.logger.Error("template exec", zap.String("page", page), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
