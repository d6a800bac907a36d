// Copyright 2023 The MetaQuery Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package kvstore

import (
	"context"
	"sync"

	"github.com/tidwall/btree"
)

// The memory engine keeps the whole index in a copy-on-write btree.
// Snapshots are O(1) tree copies, which makes it the engine of choice
// for tests and small embedded deployments.
type (
	memoryStore struct {
		keys *btree.Map[string, []byte]
		lock sync.RWMutex
	}
	memorySnapshot struct {
		keys *btree.Map[string, []byte]
	}
	memoryReadOption struct {
		keys *btree.Map[string, []byte]
	}
	memoryListReader struct {
		keys    *btree.Map[string, []byte]
		cursor  string
		started bool
	}
)

func newMemory(ctx context.Context, option *Option) (Store, error) {
	return &memoryStore{keys: btree.NewMap[string, []byte](0)}, nil
}

func (s *memoryStore) NewSnapshot() Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()
	return &memorySnapshot{keys: s.keys.Copy()}
}

func (s *memoryStore) NewReadOption() ReadOption {
	return &memoryReadOption{}
}

func (s *memoryStore) GetRaw(ctx context.Context, key []byte, readOpt ReadOption) (value []byte, err error) {
	m := s.view(readOpt)
	v, ok := m.Get(string(key))
	if !ok {
		return nil, ErrNotFound
	}
	value = make([]byte, len(v))
	copy(value, v)
	return value, nil
}

func (s *memoryStore) SetRaw(ctx context.Context, key []byte, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	s.lock.Lock()
	s.keys.Set(string(key), v)
	s.lock.Unlock()
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key []byte) error {
	s.lock.Lock()
	s.keys.Delete(string(key))
	s.lock.Unlock()
	return nil
}

func (s *memoryStore) List(ctx context.Context, marker []byte, readOpt ReadOption) ListReader {
	return &memoryListReader{keys: s.view(readOpt), cursor: string(marker)}
}

func (s *memoryStore) Flush(ctx context.Context) error {
	return nil
}

func (s *memoryStore) Close() {}

// view resolves reads against the pinned snapshot when one was set, or
// against a fresh copy of the live tree otherwise.
func (s *memoryStore) view(readOpt ReadOption) *btree.Map[string, []byte] {
	if readOpt != nil {
		if m := readOpt.(*memoryReadOption).keys; m != nil {
			return m
		}
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.keys.Copy()
}

func (ss *memorySnapshot) Close() {}

func (ro *memoryReadOption) SetSnapshot(snap Snapshot) {
	ro.keys = snap.(*memorySnapshot).keys
}

func (ro *memoryReadOption) Close() {}

func (lr *memoryListReader) ReadNext() (key []byte, value []byte, err error) {
	var (
		rk    string
		rv    []byte
		found bool
	)
	lr.keys.Ascend(lr.cursor, func(k string, v []byte) bool {
		if lr.started && k == lr.cursor {
			return true
		}
		rk, rv, found = k, v, true
		return false
	})
	if !found {
		return nil, nil, nil
	}
	lr.started = true
	lr.cursor = rk
	value = make([]byte, len(rv))
	copy(value, rv)
	return []byte(rk), value, nil
}

func (lr *memoryListReader) SeekTo(key []byte) {
	lr.cursor = string(key)
	lr.started = false
}

func (lr *memoryListReader) Close() {}
