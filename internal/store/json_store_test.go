package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *JSONStore {
	t.Helper()
	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestJSONStore_LoadMissingKindIsEmpty(t *testing.T) {
	s := newTestStore(t)

	records, err := s.Load(context.Background(), Tickets)

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJSONStore_SaveThenLoadKeepsOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	in := []json.RawMessage{
		json.RawMessage(`{"id":3,"name":"c"}`),
		json.RawMessage(`{"id":1,"name":"a"}`),
	}

	require.NoError(t, s.Save(ctx, Movies, in))
	out, err := s.Load(ctx, Movies)

	require.NoError(t, err)
	require.Len(t, out, 2)
	id0, _ := RecordID(out[0])
	id1, _ := RecordID(out[1])
	assert.Equal(t, uint64(3), id0)
	assert.Equal(t, uint64(1), id1)
	_, err = os.Stat(filepath.Join(s.dir, "movies.json"))
	assert.NoError(t, err)
}

func TestJSONStore_NextID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.NextID(ctx, Payments)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	require.NoError(t, s.Save(ctx, Payments, []json.RawMessage{
		json.RawMessage(`{"id":7}`),
		json.RawMessage(`{"id":2}`),
	}))
	id, err = s.NextID(ctx, Payments)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), id)
}

func TestJSONStore_UpdateIsSerialized(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(ctx, Tickets, func(records []json.RawMessage) ([]json.RawMessage, error) {
				max, err := MaxID(records)
				if err != nil {
					return nil, err
				}
				b, _ := json.Marshal(map[string]uint64{"id": max + 1})
				return append(records, b), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records, err := s.Load(ctx, Tickets)
	require.NoError(t, err)
	assert.Len(t, records, 20)
	max, err := MaxID(records)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), max)
}

func TestJSONStore_UpdateErrorLeavesFileUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, Users, []json.RawMessage{json.RawMessage(`{"id":1}`)}))

	err := s.Update(ctx, Users, func(records []json.RawMessage) ([]json.RawMessage, error) {
		return nil, assert.AnError
	})

	assert.ErrorIs(t, err, assert.AnError)
	records, err := s.Load(ctx, Users)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
