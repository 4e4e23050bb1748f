/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package storage holds session state between runs.
//
// A Session is a small key-value store.  The history writes its
// marshaled state under the key "state" every time the active
// moment changes, and the engine reads it back on start.  Values
// are stored as JSON.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// ErrNotFound is returned by backends that need to distinguish a
// missing key from other failures.
var ErrNotFound = errors.New("not found")

// Session is a key-value store for one player's session.
type Session interface {
	// Set stores value as JSON.
	Set(ctx context.Context, key string, value interface{}) error

	// Get decodes the value at key into into.  The boolean is
	// false if there's no such key.
	Get(ctx context.Context, key string, into interface{}) (bool, error)

	// Has reports whether key is present.
	Has(ctx context.Context, key string) (bool, error)

	// Delete removes key.  Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// Sessions makes and forgets Sessions by id.
type Sessions interface {
	Session(ctx context.Context, id string) (Session, error)
	RemSession(ctx context.Context, id string) error
	Close() error
}

// Memory is a Session that lives in memory.
type Memory struct {
	sync.Mutex
	vals map[string][]byte
}

// NewMemory makes an empty Memory.
func NewMemory() *Memory {
	return &Memory{
		vals: make(map[string][]byte),
	}
}

func (m *Memory) Set(ctx context.Context, key string, value interface{}) error {
	js, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.Lock()
	m.vals[key] = js
	m.Unlock()
	return nil
}

func (m *Memory) Get(ctx context.Context, key string, into interface{}) (bool, error) {
	m.Lock()
	js, have := m.vals[key]
	m.Unlock()
	if !have {
		return false, nil
	}
	return true, json.Unmarshal(js, into)
}

func (m *Memory) Has(ctx context.Context, key string) (bool, error) {
	m.Lock()
	_, have := m.vals[key]
	m.Unlock()
	return have, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.Lock()
	delete(m.vals, key)
	m.Unlock()
	return nil
}

// MemorySessions keeps a Memory per session id.
type MemorySessions struct {
	sync.Mutex
	sessions map[string]*Memory
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{
		sessions: make(map[string]*Memory),
	}
}

func (s *MemorySessions) Session(ctx context.Context, id string) (Session, error) {
	s.Lock()
	defer s.Unlock()
	m, have := s.sessions[id]
	if !have {
		m = NewMemory()
		s.sessions[id] = m
	}
	return m, nil
}

func (s *MemorySessions) RemSession(ctx context.Context, id string) error {
	s.Lock()
	delete(s.sessions, id)
	s.Unlock()
	return nil
}

func (s *MemorySessions) Close() error {
	return nil
}
