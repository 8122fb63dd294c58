package board

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tally/internal/backend"
	"github.com/five82/tally/internal/backend/memstore"
	"github.com/five82/tally/internal/logging"
	"github.com/five82/tally/internal/tracker"
)

var known = tracker.Set{{Tag: "coffee"}, {Tag: "run"}}

func openStore(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New(backend.Local)
	require.NoError(t, s.Open(context.Background()))
	return s
}

func newStore() *Store {
	return NewStore(WithLogger(logging.Discard()))
}

type readOnly struct {
	backend.Storage
}

func (readOnly) Put(context.Context, string, []byte) error {
	return errors.New("read only")
}

func TestInitialize_PrunesUnknownTrackers(t *testing.T) {
	storage := openStore(t)
	storage.Seed(Path, []byte(`[{"id":"b1","label":"Morning","trackers":["coffee","#Run","yoga"]},{"label":"New"}]`))

	set, err := newStore().Initialize(context.Background(), storage, known)
	require.NoError(t, err)
	require.Len(t, set, 2)

	assert.Equal(t, []string{"coffee", "run"}, set[0].Trackers)
	assert.Equal(t, "b1", set[0].ID)
	_, err = uuid.Parse(set[1].ID)
	assert.NoError(t, err, "boards without id get a uuid")
}

func TestInitialize_GeneratedIDsSurviveReloads(t *testing.T) {
	storage := openStore(t)
	storage.Seed(Path, []byte(`[{"label":"Morning"}]`))

	first, err := newStore().Initialize(context.Background(), storage, known)
	require.NoError(t, err)
	second, err := newStore().Initialize(context.Background(), storage, known)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID, "board id changed between loads")

	raw, err := storage.Get(context.Background(), Path)
	require.NoError(t, err)
	var stored Set
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, first[0].ID, stored[0].ID, "generated id is written back")

	_, ok := second.Find(first[0].ID)
	assert.True(t, ok)
}

func TestInitialize_IDsAreStableWhenWriteBackFails(t *testing.T) {
	storage := openStore(t)
	storage.Seed(Path, []byte(`[{"label":"Morning"},{"label":"Evening"}]`))
	ro := readOnly{Storage: storage}

	first, err := newStore().Initialize(context.Background(), ro, known)
	require.NoError(t, err)
	second, err := newStore().Initialize(context.Background(), ro, known)
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)
	assert.NotEqual(t, first[0].ID, first[1].ID)
	assert.Equal(t, StableID(1, "Evening"), first[1].ID)
}

func TestInitialize_KeepsStoredTagsWhenPruning(t *testing.T) {
	storage := openStore(t)
	storage.Seed(Path, []byte(`[{"label":"Morning","trackers":["yoga","coffee"]}]`))

	set, err := newStore().Initialize(context.Background(), storage, known)
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee"}, set[0].Trackers)

	raw, err := storage.Get(context.Background(), Path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "yoga", "unknown tags are hidden, not deleted")
}

func TestInitialize_MissingDocumentIsEmpty(t *testing.T) {
	set, err := newStore().Initialize(context.Background(), openStore(t), known)
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestInitialize_StorageErrorFails(t *testing.T) {
	storage := openStore(t)
	storage.FailPath(Path, errors.New("timeout"))

	_, err := newStore().Initialize(context.Background(), storage, known)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}
