package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tally/internal/backend"
	"github.com/five82/tally/internal/backend/memstore"
)

func openStore(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New(backend.Local)
	require.NoError(t, s.Open(context.Background()))
	return s
}

func TestInitialize_MissingDocumentIsEmpty(t *testing.T) {
	st := NewStore()
	set, err := st.Initialize(context.Background(), openStore(t))
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestInitialize_NormalizesAndDefaults(t *testing.T) {
	storage := openStore(t)
	storage.Seed(Path, []byte(`[{"tag":"#Coffee","type":"value","uom":"cups"},{"tag":"run","label":"Run"}]`))

	set, err := NewStore().Initialize(context.Background(), storage)
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, []string{"coffee", "run"}, set.Tags())

	coffee, ok := set.Find("COFFEE")
	require.True(t, ok)
	assert.Equal(t, "coffee", coffee.Label)
	assert.Equal(t, Value, coffee.Type)

	run, _ := set.Find("run")
	assert.Equal(t, Tick, run.Type)
}

func TestInitialize_Failures(t *testing.T) {
	tests := []struct {
		name string
		seed string
		fail error
		want string
	}{
		{name: "duplicate tags", seed: `[{"tag":"a"},{"tag":"#A"}]`, want: "duplicate tracker tag"},
		{name: "empty tag", seed: `[{"tag":"run"},{"tag":"  "}]`, want: "Trackers[1].Tag: tracker has no tag"},
		{name: "bad json", seed: `{`, want: "decode trackers.json"},
		{name: "storage error", fail: errors.New("disk gone"), want: "disk gone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := openStore(t)
			if tt.seed != "" {
				storage.Seed(Path, []byte(tt.seed))
			}
			if tt.fail != nil {
				storage.FailPath(Path, tt.fail)
			}
			_, err := NewStore().Initialize(context.Background(), storage)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInitialize_TagsDifferingOnlyByPrefixAreDuplicates(t *testing.T) {
	storage := openStore(t)
	storage.Seed(Path, []byte(`[{"tag":"water"},{"tag":"coffee"},{"tag":"#Water"}]`))

	_, err := NewStore().Initialize(context.Background(), storage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Trackers")
}
