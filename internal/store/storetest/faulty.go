// Package storetest provides store wrappers for exercising failure paths.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/iliyamo/cinema-ops-manager/internal/store"
)

// ErrInjected is the error returned by a tripped Faulty store.
var ErrInjected = errors.New("injected store failure")

// Faulty wraps a store and fails writes of selected kinds.
type Faulty struct {
	store.Store

	mu    sync.Mutex
	fail  map[store.Kind]int // remaining successful writes before failing; <0 never fails
	calls map[store.Kind]int
}

// NewFaulty wraps inner without any faults armed.
func NewFaulty(inner store.Store) *Faulty {
	return &Faulty{Store: inner, fail: map[store.Kind]int{}, calls: map[store.Kind]int{}}
}

// FailWrites makes every write to kind fail after `after` successful ones.
func (f *Faulty) FailWrites(kind store.Kind, after int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[kind] = after
}

// Heal disarms all faults.
func (f *Faulty) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = map[store.Kind]int{}
}

// Writes returns how many writes to kind were attempted.
func (f *Faulty) Writes(kind store.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

func (f *Faulty) trip(kind store.Kind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[kind]++
	left, armed := f.fail[kind]
	if !armed {
		return nil
	}
	if left <= 0 {
		return ErrInjected
	}
	f.fail[kind] = left - 1
	return nil
}

func (f *Faulty) Save(ctx context.Context, kind store.Kind, records []json.RawMessage) error {
	if err := f.trip(kind); err != nil {
		return err
	}
	return f.Store.Save(ctx, kind, records)
}

func (f *Faulty) Update(ctx context.Context, kind store.Kind, fn store.UpdateFunc) error {
	if err := f.trip(kind); err != nil {
		return err
	}
	return f.Store.Update(ctx, kind, fn)
}
