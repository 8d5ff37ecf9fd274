package kv

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
)

// Memory is a Store backed by a plain map. Tests use it in place of badger
// so processor and registry behavior can be checked without touching disk.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
	opts *Options
}

// NewMemory creates a new in-memory Store.
// Pass nil for default options.
func NewMemory(opts *Options) *Memory {
	return &Memory{
		data: make(map[string][]byte),
		opts: opts,
	}
}

func clone(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	k := string(m.opts.encode(key))
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[k]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	k := string(m.opts.encode(key))
	v := clone(value)
	m.mu.Lock()
	m.data[k] = v
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	k := string(m.opts.encode(key))
	m.mu.Lock()
	delete(m.data, k)
	m.mu.Unlock()
	return nil
}

// List yields entries under prefix in key order, matching the ordering
// badger's iterator gives. Callers ranging over segments of a chunk rely
// on that order. The whole result set is snapshotted up front, so a
// caller may write to the store while ranging.
func (m *Memory) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	// Scan on "a:b" must not match "a:bc", so match against the prefix
	// plus separator. An empty prefix scans everything.
	var full string
	if p := m.opts.encode(prefix); len(p) > 0 {
		full = string(p) + string(m.opts.sep())
	}

	m.mu.RLock()
	snapshot := make(map[string][]byte)
	for k, v := range m.data {
		if strings.HasPrefix(k, full) {
			snapshot[k] = clone(v)
		}
	}
	m.mu.RUnlock()

	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return func(yield func(Entry, error) bool) {
		for _, k := range keys {
			e := Entry{Key: m.opts.decode([]byte(k)), Value: snapshot[k]}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// BatchSet applies all entries under one lock acquisition. A reader never
// observes a chunk's segments without its processed mark, or vice versa.
func (m *Memory) BatchSet(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.data[string(m.opts.encode(e.Key))] = clone(e.Value)
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}
