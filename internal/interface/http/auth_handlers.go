package http

import (
	"net/http"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	domsession "example.com/storefront/internal/domain/session"
	authuc "example.com/storefront/internal/usecase/auth"
)

type loginPage struct {
	Email string
}

type signupPage struct {
	Name  string
	Email string
}

func (a *API) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r.Context()).State.Authenticated {
		http.Redirect(w, r, "/admin", http.StatusFound)
		return
	}
	a.render(w, r, http.StatusOK, "login", "Login", loginPage{})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	sid := sessionFrom(r.Context()).ID
	in := authuc.LoginInput{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}

	if err := a.authSvc.Login(r.Context(), sid, in); err != nil {
		// the visitor always sees the generic message, whatever the server said
		a.flash(r, domsession.Toast{
			Title:       "Login Failed",
			Description: authuc.MsgLoginFailed,
			Variant:     domsession.ToastDestructive,
		})
		a.render(w, r, http.StatusUnauthorized, "login", "Login", loginPage{Email: in.Email})
		return
	}

	a.flash(r, domsession.Toast{
		Title:       "Login Successful",
		Description: "Welcome back!",
		Variant:     domsession.ToastSuccess,
	})
	if _, err := a.authSvc.FetchProfile(r.Context(), sid); err != nil {
		a.logger.Warn("profile after login", zap.String("session", sid), zap.Error(err))
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (a *API) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "signup", "Sign Up", signupPage{})
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	in := authuc.SignupInput{
		Name:     r.PostForm.Get("name"),
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}

	if _, err := a.authSvc.Signup(r.Context(), in); err != nil {
		msg := authuc.MsgSignupFailed
		var authErr *authuc.Error
		if errors.As(err, &authErr) {
			msg = authErr.Message
		}
		a.flash(r, domsession.Toast{Title: "Signup Failed", Description: msg, Variant: domsession.ToastDestructive})
		a.render(w, r, http.StatusUnprocessableEntity, "signup", "Sign Up", signupPage{Name: in.Name, Email: in.Email})
		return
	}

	a.flash(r, domsession.Toast{
		Title:       "Signup Successful",
		Description: "Please login to continue",
		Variant:     domsession.ToastSuccess,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	sid := sessionFrom(r.Context()).ID
	if err := a.authSvc.Logout(r.Context(), sid); err != nil {
		a.logger.Warn("logout", zap.String("session", sid), zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	st, err := a.authSvc.Session(r.Context(), sessionFrom(r.Context()).ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": st.Authenticated,
		"profile":       st.Profile,
	})
}
