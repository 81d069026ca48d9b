package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/cinema-ops-manager/internal/store"
)

// collection is the typed view of one store kind.  idOf and setID give it
// access to the record's integer id.
type collection[T any] struct {
	store store.Store
	kind  store.Kind
	what  string
	idOf  func(*T) uint64
	setID func(*T, uint64)
}

func (c collection[T]) all(ctx context.Context) ([]T, error) {
	raws, err := c.store.Load(ctx, c.kind)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.kind, err)
	}
	return decodeAll[T](c.kind, raws)
}

func (c collection[T]) get(ctx context.Context, id uint64) (*T, error) {
	items, err := c.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if c.idOf(&items[i]) == id {
			return &items[i], nil
		}
	}
	return nil, notFound(c.what, id)
}

func (c collection[T]) find(ctx context.Context, match func(*T) bool) ([]T, error) {
	items, err := c.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	for i := range items {
		if match(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out, nil
}

// upsert replaces the record with the same id or appends it.  A zero id is
// assigned max+1 inside the same locked update, so concurrent inserts
// never collide.
func (c collection[T]) upsert(ctx context.Context, v *T) (uint64, error) {
	err := c.store.Update(ctx, c.kind, func(raws []json.RawMessage) ([]json.RawMessage, error) {
		if c.idOf(v) == 0 {
			max, err := store.MaxID(raws)
			if err != nil {
				return nil, err
			}
			c.setID(v, max+1)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", c.kind, err)
		}
		id := c.idOf(v)
		for i, r := range raws {
			rid, err := store.RecordID(r)
			if err != nil {
				return nil, err
			}
			if rid == id {
				raws[i] = b
				return raws, nil
			}
		}
		return append(raws, b), nil
	})
	if err != nil {
		return 0, fmt.Errorf("save %s: %w", c.kind, err)
	}
	return c.idOf(v), nil
}

// mutate loads the record with id, applies fn and writes it back within a
// single locked update.  fn's error aborts the write and is returned as is.
func (c collection[T]) mutate(ctx context.Context, id uint64, fn func(*T) error) (*T, error) {
	var result *T
	err := c.store.Update(ctx, c.kind, func(raws []json.RawMessage) ([]json.RawMessage, error) {
		for i, r := range raws {
			rid, err := store.RecordID(r)
			if err != nil {
				return nil, err
			}
			if rid != id {
				continue
			}
			var v T
			if err := json.Unmarshal(r, &v); err != nil {
				return nil, fmt.Errorf("decode %s: %w", c.kind, err)
			}
			if err := fn(&v); err != nil {
				return nil, err
			}
			b, err := json.Marshal(&v)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", c.kind, err)
			}
			raws[i] = b
			result = &v
			return raws, nil
		}
		return nil, notFound(c.what, id)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c collection[T]) remove(ctx context.Context, id uint64) error {
	return c.store.Update(ctx, c.kind, func(raws []json.RawMessage) ([]json.RawMessage, error) {
		out := make([]json.RawMessage, 0, len(raws))
		found := false
		for _, r := range raws {
			rid, err := store.RecordID(r)
			if err != nil {
				return nil, err
			}
			if rid == id {
				found = true
				continue
			}
			out = append(out, r)
		}
		if !found {
			return nil, notFound(c.what, id)
		}
		return out, nil
	})
}

func (c collection[T]) nextID(ctx context.Context) (uint64, error) {
	return c.store.NextID(ctx, c.kind)
}

func decodeAll[T any](kind store.Kind, raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, r := range raws {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		out = append(out, v)
	}
	return out, nil
}
