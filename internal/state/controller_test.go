package state

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hideoutdb/searchd/internal/index"
	"github.com/hideoutdb/searchd/internal/upstream"
)

// fakeCatalog is a scriptable Catalog. Zero value: valid session, one item,
// version fixed at baseVersion.
type fakeCatalog struct {
	sessionValid bool
	refreshErr   error
	refreshCalls int

	version    time.Time
	versionErr error

	items    []upstream.Item
	itemsErr error
}

var baseVersion = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		sessionValid: true,
		version:      baseVersion,
		items: []upstream.Item{
			{ID: "1", Name: "Army bandage", ShortName: "Bandage", Description: "Stops light bleeding", Kind: "medical"},
			{ID: "2", Name: "Bandana", ShortName: "Bandana", Description: "A red bandana", Kind: "apparel"},
		},
	}
}

func (f *fakeCatalog) IsSessionValid() bool { return f.sessionValid }

func (f *fakeCatalog) RefreshSession(ctx context.Context) error {
	f.refreshCalls++
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.sessionValid = true
	return nil
}

func (f *fakeCatalog) Version(ctx context.Context) (time.Time, error) {
	if f.versionErr != nil {
		return time.Time{}, f.versionErr
	}
	return f.version, nil
}

func (f *fakeCatalog) Items(ctx context.Context) ([]upstream.Item, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.items, nil
}

// failingIndexer wraps a real engine and fails on demand.
type failingIndexer struct {
	*index.Engine
	writeErr  error
	healthErr error
}

func (f *failingIndexer) WriteAll(ctx context.Context, docs []index.Document) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.Engine.WriteAll(ctx, docs)
}

func (f *failingIndexer) HealthCheck() error {
	if f.healthErr != nil {
		return f.healthErr
	}
	return f.Engine.HealthCheck()
}

func newTestEngine(t *testing.T) *index.Engine {
	t.Helper()
	eng, err := index.New(index.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestRefresh_InitialSyncPopulatesIndex(t *testing.T) {
	catalog := newFakeCatalog()
	eng := newTestEngine(t)
	c := NewController(catalog, eng, time.Minute)

	c.Refresh(context.Background())

	count, err := eng.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
	assert.True(t, c.LastSynced().Equal(baseVersion))

	snap := c.Status().Snapshot()
	assert.True(t, snap.OK)
}

func TestRefresh_UnchangedVersionSkipsRebuild(t *testing.T) {
	catalog := newFakeCatalog()
	eng := newTestEngine(t)
	c := NewController(catalog, eng, time.Minute)

	ctx := context.Background()
	c.Refresh(ctx)
	gen := eng.Generation()

	c.Refresh(ctx)
	assert.Equal(t, gen, eng.Generation(), "same version must not touch the index")
	assert.True(t, c.Status().Snapshot().OK)
}

func TestRefresh_NewVersionRebuilds(t *testing.T) {
	catalog := newFakeCatalog()
	eng := newTestEngine(t)
	c := NewController(catalog, eng, time.Minute)

	ctx := context.Background()
	c.Refresh(ctx)
	gen := eng.Generation()

	catalog.version = baseVersion.Add(time.Hour)
	catalog.items = catalog.items[:1]
	c.Refresh(ctx)

	assert.Greater(t, eng.Generation(), gen)
	count, err := eng.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
	assert.True(t, c.LastSynced().Equal(catalog.version))
}

func TestRefresh_ExpiredSessionIsRenewedFirst(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.sessionValid = false
	eng := newTestEngine(t)
	c := NewController(catalog, eng, time.Minute)

	c.Refresh(context.Background())

	assert.Equal(t, 1, catalog.refreshCalls)
	assert.True(t, c.Status().Snapshot().OK)
}

func TestRefresh_SessionRenewalFailureAborts(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.sessionValid = false
	catalog.refreshErr = stderrors.New("token endpoint down")
	eng := newTestEngine(t)
	c := NewController(catalog, eng, time.Minute)

	c.Refresh(context.Background())

	snap := c.Status().Snapshot()
	assert.False(t, snap.OK)
	assert.Equal(t, StatusFailure, snap.Upstream)
	assert.Equal(t, StatusOk, snap.Index)
	assert.True(t, c.LastSynced().IsZero())
}

func TestRefresh_UpstreamFailureKeepsOldIndex(t *testing.T) {
	catalog := newFakeCatalog()
	eng := newTestEngine(t)
	c := NewController(catalog, eng, time.Minute)

	ctx := context.Background()
	c.Refresh(ctx)
	gen := eng.Generation()

	catalog.versionErr = stderrors.New("bad gateway")
	c.Refresh(ctx)

	snap := c.Status().Snapshot()
	assert.Equal(t, StatusFailure, snap.Upstream)
	assert.Equal(t, StatusOk, snap.Index)

	// Old generation still answers queries.
	assert.Equal(t, gen, eng.Generation())
	docs, err := eng.Query(ctx, "bandage", index.QueryOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, docs)
}

func TestRefresh_UpstreamRecoveryClearsFlag(t *testing.T) {
	catalog := newFakeCatalog()
	eng := newTestEngine(t)
	c := NewController(catalog, eng, time.Minute)

	ctx := context.Background()
	catalog.versionErr = stderrors.New("bad gateway")
	c.Refresh(ctx)
	require.False(t, c.Status().Snapshot().OK)

	catalog.versionErr = nil
	c.Refresh(ctx)
	assert.True(t, c.Status().Snapshot().OK)
}

func TestRefresh_WriteFailureDoesNotAdvanceLastSynced(t *testing.T) {
	catalog := newFakeCatalog()
	eng := newTestEngine(t)
	fi := &failingIndexer{Engine: eng, writeErr: stderrors.New("disk full")}
	c := NewController(catalog, fi, time.Minute)

	c.Refresh(context.Background())

	snap := c.Status().Snapshot()
	assert.Equal(t, StatusFailure, snap.Index)
	assert.Equal(t, StatusOk, snap.Upstream)
	assert.True(t, c.LastSynced().IsZero(), "failed rebuild must be retried next tick")
}

func TestRefresh_HealthFailureDoesNotAdvanceLastSynced(t *testing.T) {
	catalog := newFakeCatalog()
	eng := newTestEngine(t)
	fi := &failingIndexer{Engine: eng, healthErr: stderrors.New("no searchable segments")}
	c := NewController(catalog, fi, time.Minute)

	c.Refresh(context.Background())

	assert.Equal(t, StatusFailure, c.Status().Snapshot().Index)
	assert.True(t, c.LastSynced().IsZero())
}

func TestRefresh_RetriesSameVersionAfterFailure(t *testing.T) {
	catalog := newFakeCatalog()
	eng := newTestEngine(t)
	fi := &failingIndexer{Engine: eng, writeErr: stderrors.New("disk full")}
	c := NewController(catalog, fi, time.Minute)

	ctx := context.Background()
	c.Refresh(ctx)
	require.True(t, c.LastSynced().IsZero())

	fi.writeErr = nil
	c.Refresh(ctx)

	assert.True(t, c.LastSynced().Equal(baseVersion))
	assert.True(t, c.Status().Snapshot().OK)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	catalog := newFakeCatalog()
	eng := newTestEngine(t)
	c := NewController(catalog, eng, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	// Let the initial refresh and at least one tick happen.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("controller did not stop after cancellation")
	}

	count, err := eng.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestStatus_SnapshotReflectsFlags(t *testing.T) {
	s := NewStatus()
	assert.True(t, s.Snapshot().OK)

	s.SetIndexError(true)
	s.SetUpstreamError(true)
	snap := s.Snapshot()
	assert.False(t, snap.OK)
	assert.Equal(t, StatusFailure, snap.Index)
	assert.Equal(t, StatusFailure, snap.Upstream)

	s.SetIndexError(false)
	s.SetUpstreamError(false)
	assert.True(t, s.Snapshot().OK)
}
