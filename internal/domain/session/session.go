package session

import domuser "example.com/storefront/internal/domain/user"

type ToastVariant string

const (
	ToastSuccess     ToastVariant = "success"
	ToastDestructive ToastVariant = "destructive"
)

type Toast struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Variant     ToastVariant `json:"variant"`
}

// State is the per-visitor session value. It is never mutated in place;
// every transition returns a copy.
type State struct {
	Authenticated bool             `json:"authenticated"`
	Profile       *domuser.Profile `json:"profile,omitempty"`
	Toast         *Toast           `json:"toast,omitempty"`
}

func (s State) WithAuthenticated(v bool) State {
	s.Authenticated = v
	return s
}

func (s State) WithProfile(p *domuser.Profile) State {
	if p != nil {
		cp := *p
		p = &cp
	}
	s.Profile = p
	return s
}

func (s State) WithToast(t Toast) State {
	s.Toast = &t
	return s
}

// TakeToast returns the pending toast, if any, and the state without it.
func (s State) TakeToast() (*Toast, State) {
	t := s.Toast
	s.Toast = nil
	return t, s
}

// Cleared drops authentication and profile but keeps a pending toast.
func (s State) Cleared() State {
	return State{Toast: s.Toast}
}
