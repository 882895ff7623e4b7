package auth

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domsession "example.com/storefront/internal/domain/session"
	domuser "example.com/storefront/internal/domain/user"
)

const (
	MsgLoginFailed   = "Incorrect email or password"
	MsgSignupFailed  = "Signup failed"
	MsgNoToken       = "No token found"
	MsgProfileFailed = "Fetching profile failed"
)

// Error is a failed auth operation with the message to show the visitor.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// serverMessager is implemented by upstream errors that carry a message
// from the remote API.
type serverMessager interface {
	ServerMessage() string
}

func userMessage(err error, fallback string) string {
	var sm serverMessager
	if errors.As(err, &sm) {
		if msg := strings.TrimSpace(sm.ServerMessage()); msg != "" {
			return msg
		}
	}
	return fallback
}

type Service struct {
	gateway  domuser.Gateway
	sessions domsession.Store
	tokens   domsession.TokenStore
	validate *validator.Validate
	logger   *zap.Logger

	clearTokenOnLogout bool
}

type Option func(*Service)

// WithClearTokenOnLogout makes Logout also forget the persisted token.
func WithClearTokenOnLogout(v bool) Option {
	return func(s *Service) { s.clearTokenOnLogout = v }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(
	gateway domuser.Gateway,
	sessions domsession.Store,
	tokens domsession.TokenStore,
	opts ...Option,
) *Service {
	s := &Service{
		gateway:  gateway,
		sessions: sessions,
		tokens:   tokens,
		validate: validator.New(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type SignupInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Login exchanges credentials for a token, persists it and marks the session
// authenticated. On failure the session is left as it was.
func (s *Service) Login(ctx context.Context, sessionID string, in LoginInput) error {
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return &Error{Message: MsgLoginFailed, Err: errors.Wrap(domuser.ErrInvalidCredential, err.Error())}
	}

	token, err := s.gateway.Login(ctx, domuser.Credentials{Email: in.Email, Password: in.Password})
	if err != nil {
		s.logger.Warn("login failed", zap.String("email", in.Email), zap.Error(err))
		return &Error{Message: userMessage(err, MsgLoginFailed), Err: err}
	}

	if err := s.tokens.SaveToken(ctx, sessionID, token); err != nil {
		return &Error{Message: MsgLoginFailed, Err: err}
	}
	st, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return &Error{Message: MsgLoginFailed, Err: err}
	}
	if err := s.sessions.Save(ctx, sessionID, st.WithAuthenticated(true)); err != nil {
		return &Error{Message: MsgLoginFailed, Err: err}
	}
	return nil
}

// Signup registers a new account. It never authenticates the session.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domuser.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, &Error{Message: MsgSignupFailed, Err: errors.Wrap(domuser.ErrInvalidCredential, err.Error())}
	}

	p, err := s.gateway.Register(ctx, domuser.Registration{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Avatar:   domuser.DefaultAvatar,
	})
	if err != nil {
		s.logger.Warn("signup failed", zap.String("email", in.Email), zap.Error(err))
		return nil, &Error{Message: userMessage(err, MsgSignupFailed), Err: err}
	}
	return p, nil
}

// FetchProfile loads the profile for the persisted token into the session.
func (s *Service) FetchProfile(ctx context.Context, sessionID string) (*domuser.Profile, error) {
	token, err := s.tokens.Token(ctx, sessionID)
	if errors.Is(err, domsession.ErrNotFound) || (err == nil && token == "") {
		return nil, &Error{Message: MsgNoToken, Err: domuser.ErrNoToken}
	}
	if err != nil {
		return nil, &Error{Message: MsgProfileFailed, Err: err}
	}

	p, err := s.gateway.Profile(ctx, token)
	if err != nil {
		s.logger.Warn("profile fetch failed", zap.Error(err))
		return nil, &Error{Message: userMessage(err, MsgProfileFailed), Err: err}
	}

	st, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, &Error{Message: MsgProfileFailed, Err: err}
	}
	if err := s.sessions.Save(ctx, sessionID, st.WithProfile(p)); err != nil {
		return nil, &Error{Message: MsgProfileFailed, Err: err}
	}
	return p, nil
}

// Logout clears authentication and profile. The token is only removed when
// the service was built WithClearTokenOnLogout(true).
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	st, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return errors.Wrap(err, "logout")
	}
	if err := s.sessions.Save(ctx, sessionID, st.Cleared()); err != nil {
		return errors.Wrap(err, "logout")
	}
	if s.clearTokenOnLogout {
		if err := s.tokens.DeleteToken(ctx, sessionID); err != nil {
			return errors.Wrap(err, "logout")
		}
	}
	return nil
}

// Session returns the current state for sessionID.
func (s *Service) Session(ctx context.Context, sessionID string) (domsession.State, error) {
	return s.sessions.Load(ctx, sessionID)
}
