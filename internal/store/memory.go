// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"strings"
	"sync"

	"github.com/tidwall/btree"
)

// memoryBackend keeps both trees in ordered in-memory maps. A transaction
// works on copy-on-write clones that replace the live maps on commit.
type memoryBackend struct {
	writeMu sync.Mutex // held by the open writable txn
	mu      sync.Mutex // guards trees; Copy mutates the source
	trees   map[tree]*btree.Map[string, []byte]
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		trees: map[tree]*btree.Map[string, []byte]{
			filesTree: btree.NewMap[string, []byte](0),
			tagsTree:  btree.NewMap[string, []byte](0),
		},
	}
}

func (b *memoryBackend) begin(writable bool) (txn, error) {
	if writable {
		b.writeMu.Lock()
	}
	b.mu.Lock()
	x := &memoryTxn{
		backend:  b,
		writable: writable,
		trees: map[tree]*btree.Map[string, []byte]{
			filesTree: b.trees[filesTree].Copy(),
			tagsTree:  b.trees[tagsTree].Copy(),
		},
	}
	b.mu.Unlock()
	return x, nil
}

func (b *memoryBackend) flush() error { return nil }

func (b *memoryBackend) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.trees {
		m.Clear()
	}
	return nil
}

type memoryTxn struct {
	backend  *memoryBackend
	writable bool
	done     bool
	trees    map[tree]*btree.Map[string, []byte]
}

func (x *memoryTxn) get(t tree, key []byte) ([]byte, bool, error) {
	v, ok := x.trees[t].Get(string(key))
	return v, ok, nil
}

func (x *memoryTxn) put(t tree, key, value []byte) error {
	x.trees[t].Set(string(key), append([]byte(nil), value...))
	return nil
}

func (x *memoryTxn) delete(t tree, key []byte) (bool, error) {
	_, ok := x.trees[t].Delete(string(key))
	return ok, nil
}

func (x *memoryTxn) scan(t tree, prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)
	var entries [][2][]byte
	x.trees[t].Ascend(p, func(k string, v []byte) bool {
		if !strings.HasPrefix(k, p) {
			return false
		}
		entries = append(entries, [2][]byte{[]byte(k), v})
		return true
	})
	for _, e := range entries {
		if err := fn(e[0], e[1]); err != nil {
			return err
		}
	}
	return nil
}

func (x *memoryTxn) count(t tree) (int, error) {
	return x.trees[t].Len(), nil
}

func (x *memoryTxn) clear(t tree) error {
	x.trees[t].Clear()
	return nil
}

func (x *memoryTxn) commit() error {
	if x.done {
		return nil
	}
	x.done = true
	if !x.writable {
		return nil
	}
	x.backend.mu.Lock()
	x.backend.trees = x.trees
	x.backend.mu.Unlock()
	x.backend.writeMu.Unlock()
	return nil
}

func (x *memoryTxn) rollback() error {
	if x.done {
		return nil
	}
	x.done = true
	if x.writable {
		x.backend.writeMu.Unlock()
	}
	return nil
}
