// Package cachetest provides an in-memory cache.Client for tests.
package cachetest

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/NordCoder/ems/internal/cache"
)

var _ cache.Client = (*Memory)(nil)

type Memory struct {
	mu        sync.Mutex
	data      map[string][]byte
	connected bool

	Gets, Sets, Deletes int
	FailWrites          bool
}

func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}, connected: true}
}

func (m *Memory) SetConnected(ok bool) {
	m.mu.Lock()
	m.connected = ok
	m.mu.Unlock()
}

func (m *Memory) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if !m.connected {
		return nil, false, cache.ErrDisconnected
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if !m.connected || m.FailWrites {
		return cache.ErrDisconnected
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, keyOrPattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes++
	if !m.connected {
		return cache.ErrDisconnected
	}
	for k := range m.data {
		if ok, _ := path.Match(keyOrPattern, k); ok {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}
	return out
}
