package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domsession "example.com/storefront/internal/domain/session"
	domuser "example.com/storefront/internal/domain/user"
	"example.com/storefront/internal/infra/persistence/memory"
)

type recordingKV struct {
	*memory.KV
	ttls map[string]time.Duration
}

func newRecordingKV() *recordingKV {
	return &recordingKV{KV: memory.NewKV(), ttls: map[string]time.Duration{}}
}

func (r *recordingKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	r.ttls[key] = ttl
	return r.KV.Set(ctx, key, value, ttl)
}

type fixedTTL time.Duration

func (f fixedTTL) TTL(token string, fallback time.Duration) time.Duration {
	return time.Duration(f)
}

func TestStore_StateRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newRecordingKV()
	store := New(kv, 24*time.Hour, nil)

	st, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domsession.State{}, st)

	want := domsession.State{}.
		WithAuthenticated(true).
		WithProfile(&domuser.Profile{ID: 1, Name: "Jhon", Email: "john@mail.com", Role: "customer"}).
		WithToast(domsession.Toast{Title: "Login Successful", Description: "Welcome back!", Variant: domsession.ToastSuccess})
	require.NoError(t, store.Save(ctx, "s1", want))
	require.Equal(t, 24*time.Hour, kv.ttls["storefront:session:s1"])

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, want, got)

	other, err := store.Load(ctx, "s2")
	require.NoError(t, err)
	require.False(t, other.Authenticated)
}

func TestStore_CorruptStateIsAnError(t *testing.T) {
	ctx := context.Background()
	kv := newRecordingKV()
	require.NoError(t, kv.Set(ctx, "storefront:session:bad", "{not json", 0))

	_, err := New(kv, time.Hour, nil).Load(ctx, "bad")
	require.Error(t, err)
}

func TestStore_Tokens(t *testing.T) {
	ctx := context.Background()
	kv := newRecordingKV()
	store := New(kv, 168*time.Hour, fixedTTL(time.Hour))

	_, err := store.Token(ctx, "s1")
	require.ErrorIs(t, err, domsession.ErrNotFound)

	require.NoError(t, store.SaveToken(ctx, "s1", "tok-1"))
	require.Equal(t, time.Hour, kv.ttls["storefront:token:s1"])

	tok, err := store.Token(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)

	require.NoError(t, store.DeleteToken(ctx, "s1"))
	_, err = store.Token(ctx, "s1")
	require.ErrorIs(t, err, domsession.ErrNotFound)
}

func TestStore_TokenFallsBackToSessionTTL(t *testing.T) {
	kv := newRecordingKV()
	store := New(kv, 2*time.Hour, nil)
	require.NoError(t, store.SaveToken(context.Background(), "s1", "opaque"))
	require.Equal(t, 2*time.Hour, kv.ttls["storefront:token:s1"])
}
