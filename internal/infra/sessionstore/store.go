// Package sessionstore keeps per-visitor session state and bearer tokens in
// any key-value backend.
package sessionstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"

	domsession "example.com/storefront/internal/domain/session"
)

const (
	stateKeyPrefix = "storefront:session:"
	tokenKeyPrefix = "storefront:token:"
)

type TokenTTL interface {
	TTL(token string, fallback time.Duration) time.Duration
}

// Store implements domsession.Store and domsession.TokenStore.
type Store struct {
	kv       domsession.KeyValue
	ttl      time.Duration
	tokenTTL TokenTTL
}

func New(kv domsession.KeyValue, ttl time.Duration, tokenTTL TokenTTL) *Store {
	return &Store{kv: kv, ttl: ttl, tokenTTL: tokenTTL}
}

func (s *Store) Load(ctx context.Context, sessionID string) (domsession.State, error) {
	raw, err := s.kv.Get(ctx, stateKeyPrefix+sessionID)
	if errors.Is(err, domsession.ErrNotFound) {
		return domsession.State{}, nil
	}
	if err != nil {
		return domsession.State{}, errors.Wrap(err, "load session")
	}
	var st domsession.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return domsession.State{}, errors.Wrap(err, "decode session")
	}
	return st, nil
}

func (s *Store) Save(ctx context.Context, sessionID string, st domsession.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := s.kv.Set(ctx, stateKeyPrefix+sessionID, string(raw), s.ttl); err != nil {
		return errors.Wrap(err, "save session")
	}
	return nil
}

// Token returns domsession.ErrNotFound when nothing is persisted.
func (s *Store) Token(ctx context.Context, sessionID string) (string, error) {
	tok, err := s.kv.Get(ctx, tokenKeyPrefix+sessionID)
	if err != nil {
		return "", errors.Wrap(err, "load token")
	}
	return tok, nil
}

func (s *Store) SaveToken(ctx context.Context, sessionID, token string) error {
	ttl := s.ttl
	if s.tokenTTL != nil {
		ttl = s.tokenTTL.TTL(token, s.ttl)
	}
	if err := s.kv.Set(ctx, tokenKeyPrefix+sessionID, token, ttl); err != nil {
		return errors.Wrap(err, "save token")
	}
	return nil
}

func (s *Store) DeleteToken(ctx context.Context, sessionID string) error {
	if err := s.kv.Delete(ctx, tokenKeyPrefix+sessionID); err != nil {
		return errors.Wrap(err, "delete token")
	}
	return nil
}
