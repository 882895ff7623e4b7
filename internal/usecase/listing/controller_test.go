package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestController_ThreePagesOfTwentyFive(t *testing.T) {
	ctrl := NewController(NewFetcher(newFakeCatalog(25), nil), 12)

	v := ctrl.SetPage(context.Background(), 0)
	require.Equal(t, StateReady, v.State)
	require.Len(t, v.Products, 12)
	require.Equal(t, 25, v.TotalCount)
	require.Equal(t, 3, v.TotalPages)
	require.Equal(t, []int{0, 1, 2}, v.Pages)
	require.False(t, v.HasPrev)
	require.True(t, v.HasNext)

	v = ctrl.Next(context.Background())
	require.Equal(t, 1, v.Page)
	require.True(t, v.HasPrev)
	require.True(t, v.HasNext)

	v = ctrl.Next(context.Background())
	require.Equal(t, 2, v.Page)
	require.Len(t, v.Products, 1)
	require.False(t, v.HasNext)

	// disabled next is a no-op
	v = ctrl.Next(context.Background())
	require.Equal(t, 2, v.Page)

	v = ctrl.Prev(context.Background())
	require.Equal(t, 1, v.Page)
}

func TestController_PrevDisabledOnFirstPage(t *testing.T) {
	catalog := newFakeCatalog(25)
	ctrl := NewController(NewFetcher(catalog, nil), 12)
	ctrl.SetPage(context.Background(), 0)

	v := ctrl.Prev(context.Background())
	require.Equal(t, 0, v.Page)
	require.Len(t, catalog.calls(), 1)
}

func TestController_InitialStateIsLoading(t *testing.T) {
	ctrl := NewController(NewFetcher(newFakeCatalog(3), nil), 12)
	v := ctrl.View()
	require.Equal(t, StateLoading, v.State)
	require.Empty(t, v.Products)
	require.False(t, v.HasNext)
}

func TestController_NegativePageClampsToZero(t *testing.T) {
	ctrl := NewController(NewFetcher(newFakeCatalog(25), nil), 12)
	v := ctrl.SetPage(context.Background(), -4)
	require.Equal(t, 0, v.Page)
	require.Len(t, v.Products, 12)
}

func TestController_PastTheEndClampsAndRefetchesOnce(t *testing.T) {
	catalog := newFakeCatalog(25)
	ctrl := NewController(NewFetcher(catalog, nil), 12)

	v := ctrl.SetPage(context.Background(), 10)
	require.Equal(t, 2, v.Page)
	require.Len(t, v.Products, 1)
	require.Len(t, catalog.calls(), 2)

	// once the total is known the clamp happens before fetching
	v = ctrl.SetPage(context.Background(), 7)
	require.Equal(t, 2, v.Page)
	require.Len(t, catalog.calls(), 3)
}

func TestController_EmptyCatalog(t *testing.T) {
	ctrl := NewController(NewFetcher(newFakeCatalog(0), nil), 12)
	v := ctrl.SetPage(context.Background(), 0)
	require.Equal(t, StateReady, v.State)
	require.Empty(t, v.Products)
	require.Equal(t, 0, v.TotalPages)
	require.Empty(t, v.Pages)
	require.False(t, v.HasPrev)
	require.False(t, v.HasNext)
}

func TestController_CountFailureKeepsTotal(t *testing.T) {
	catalog := newFakeCatalog(25)
	ctrl := NewController(NewFetcher(catalog, nil), 12)
	ctrl.SetPage(context.Background(), 0)

	catalog.setErrors(nil, errors.New("count down"))
	v := ctrl.SetPage(context.Background(), 1)
	require.Equal(t, 25, v.TotalCount)
	require.Equal(t, 3, v.TotalPages)
	require.Error(t, v.Err)
	require.Len(t, v.Products, 12)
}

func TestController_PageFailureShowsNoProducts(t *testing.T) {
	catalog := newFakeCatalog(25)
	catalog.setErrors(errors.New("offline"), nil)
	ctrl := NewController(NewFetcher(catalog, nil), 12)

	v := ctrl.SetPage(context.Background(), 0)
	require.Equal(t, StateReady, v.State)
	require.Empty(t, v.Products)
	require.False(t, v.HasNext)
	require.Error(t, v.Err)
}

func TestController_StaleResponseIsDiscarded(t *testing.T) {
	gated := &gatedFetcher{
		inner:    NewFetcher(newFakeCatalog(25), nil),
		gatePage: 0,
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	ctrl := NewController(gated, 12)

	done := make(chan View)
	go func() { done <- ctrl.SetPage(context.Background(), 0) }()
	<-gated.started

	v := ctrl.SetPage(context.Background(), 1)
	require.Equal(t, 1, v.Page)
	require.Equal(t, int64(13), v.Products[0].ID)

	close(gated.release)
	stale := <-done
	require.Equal(t, 1, stale.Page)
	require.Equal(t, int64(13), stale.Products[0].ID)

	cur := ctrl.View()
	require.Equal(t, 1, cur.Page)
	require.Equal(t, int64(13), cur.Products[0].ID)
}
