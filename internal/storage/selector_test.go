package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tally/internal/backend"
	"github.com/five82/tally/internal/backend/memstore"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/state"
)

type fixture struct {
	local  *prefs.Local
	store  *state.Store
	driver *memstore.Store
	sel    *Selector

	mu     sync.Mutex
	opened []backend.Kind
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	local, err := prefs.Open(filepath.Join(t.TempDir(), "local.toml"))
	require.NoError(t, err)

	f := &fixture{
		local: local,
		store: state.NewStore(state.NewUserState(), nil),
	}
	f.driver = memstore.New(backend.Local)
	f.sel = New(local, f.store, Drivers{}, WithOpener(func(kind backend.Kind) (backend.Driver, error) {
		f.mu.Lock()
		f.opened = append(f.opened, kind)
		f.mu.Unlock()
		return f.driver, nil
	}))
	return f
}

func (f *fixture) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opened)
}

func TestSelect_InvalidFallsBackToLocal(t *testing.T) {
	f := newFixture(t)

	got := f.sel.Select("pouchdb")
	assert.Equal(t, backend.Local, got)
	assert.Equal(t, "local", f.local.String(prefs.KeyStorageType))
	assert.Equal(t, backend.Local, f.store.Read().StorageType)

	kind, ok := f.sel.Selected()
	require.True(t, ok)
	assert.Equal(t, backend.Local, kind)
}

func TestSelect_ValidKindIsKept(t *testing.T) {
	for _, k := range backend.Kinds() {
		f := newFixture(t)
		got := f.sel.Select(k.String())
		assert.Equal(t, k, got)
		assert.Equal(t, k.String(), f.local.String(prefs.KeyStorageType))
		assert.Equal(t, k, f.store.Read().StorageType)
	}
}

func TestConfigured(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.sel.Configured())

	require.NoError(t, f.local.Put(prefs.KeyStorageType, "couchdb"))
	assert.False(t, f.sel.Configured(), "unknown persisted name is not configured")

	f.sel.Select("sqlite")
	assert.True(t, f.sel.Configured())
}

func TestAwaitReady_NeverFiresBeforeInit(t *testing.T) {
	f := newFixture(t)
	f.sel.Select("local")

	called := make(chan backend.Storage, 1)
	f.sel.AwaitReady(func(s backend.Storage) { called <- s })

	select {
	case <-called:
		t.Fatal("AwaitReady fired before Init")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Nil(t, f.sel.Storage())

	f.sel.Init(context.Background())
	select {
	case s := <-called:
		assert.Same(t, f.driver, s)
	case <-time.After(time.Second):
		t.Fatal("AwaitReady did not fire after Init")
	}
	assert.True(t, f.driver.Opened())
	assert.True(t, f.sel.Ready())
}

func TestAwaitReady_AfterOpenRunsImmediately(t *testing.T) {
	f := newFixture(t)
	f.sel.Select("local")
	f.sel.Init(context.Background())
	require.Eventually(t, f.sel.Ready, time.Second, time.Millisecond)

	var got backend.Storage
	f.sel.AwaitReady(func(s backend.Storage) { got = s })
	assert.Same(t, f.driver, got)
}

func TestInit_RepeatedCallsOpenOnce(t *testing.T) {
	f := newFixture(t)
	f.sel.Select("local")

	for i := 0; i < 5; i++ {
		f.sel.Init(context.Background())
	}
	require.Eventually(t, f.sel.Ready, time.Second, time.Millisecond)
	f.sel.Init(context.Background())

	assert.Equal(t, 1, f.openCount())
}

func TestInit_WithoutSelectionDoesNothing(t *testing.T) {
	f := newFixture(t)
	f.sel.Init(context.Background())

	assert.Equal(t, 0, f.openCount())
	assert.ErrorIs(t, f.sel.Err(), ErrNotConfigured)
	assert.False(t, f.sel.Ready())
}

func TestInit_RetriesAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.sel.Select("local")
	boom := errors.New("handshake refused")
	f.driver.FailOpen(boom)

	failures := make(chan error, 1)
	f.sel.OnFailure(func(kind backend.Kind, err error) {
		assert.Equal(t, backend.Local, kind)
		failures <- err
	})
	fired := make(chan struct{})
	f.sel.AwaitReady(func(backend.Storage) { close(fired) })

	f.sel.Init(context.Background())
	select {
	case err := <-failures:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("failure was not reported")
	}
	assert.False(t, f.sel.Ready())
	assert.ErrorIs(t, f.sel.Err(), boom)

	f.driver.FailOpen(nil)
	f.sel.Init(context.Background())
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("queued callback did not run after retry")
	}
	assert.NoError(t, f.sel.Err())
	assert.Equal(t, 2, f.openCount())
}

func TestInit_CancelledContextAbortsOpen(t *testing.T) {
	f := newFixture(t)
	f.sel.Select("local")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.sel.Init(ctx)
	require.Eventually(t, func() bool { return f.sel.Err() != nil }, time.Second, time.Millisecond)
	assert.ErrorIs(t, f.sel.Err(), context.Canceled)
	assert.False(t, f.sel.Ready())
}

func TestDriversDispatchCoversEveryKind(t *testing.T) {
	d := Drivers{SQLitePath: filepath.Join(t.TempDir(), "tally.db")}
	for _, k := range backend.Kinds() {
		driver, err := d.open(k)
		require.NoError(t, err)
		assert.Equal(t, k, driver.Kind())
	}
	_, err := d.open(backend.Kind{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.sel.Close())

	f.sel.Select("local")
	f.sel.Init(context.Background())
	require.Eventually(t, f.sel.Ready, time.Second, time.Millisecond)
	require.NoError(t, f.sel.Close())

	_, err := f.driver.List(context.Background(), "")
	assert.Error(t, err)
}
