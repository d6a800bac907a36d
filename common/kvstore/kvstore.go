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

// Package kvstore abstracts the ordered key-value engines the metadata
// index can live in.  All engines keep keys in lexicographic byte
// order and support reads pinned to a stable snapshot, which is what
// the resumable range scans above this package are built on.
package kvstore

import (
	"context"
	"errors"
)

const (
	RocksdbEngine = EngineType("rocksdb")
	BadgerEngine  = EngineType("badger")
	MemoryEngine  = EngineType("memory")
)

var (
	ErrNotFound       = errors.New("key not found")
	ErrEngineNotFound = errors.New("kv engine not found")
)

type (
	EngineType string

	Store interface {
		NewSnapshot() Snapshot
		NewReadOption() ReadOption
		GetRaw(ctx context.Context, key []byte, readOpt ReadOption) (value []byte, err error)
		SetRaw(ctx context.Context, key []byte, value []byte) error
		Delete(ctx context.Context, key []byte) error
		// List returns a reader positioned at the smallest key >= marker,
		// or at the first key when marker is empty.
		List(ctx context.Context, marker []byte, readOpt ReadOption) ListReader
		Flush(ctx context.Context) error
		Close()
	}

	// Snapshot pins a stable view of the store.  Readers holding one
	// observe a coherent cut of the data regardless of concurrent
	// writers.
	Snapshot interface {
		Close()
	}

	ReadOption interface {
		SetSnapshot(snap Snapshot)
		Close()
	}

	// ListReader iterates keys in ascending order.  ReadNext returns
	// nil key and nil error when the range is exhausted.  Returned
	// slices are copies owned by the caller.
	ListReader interface {
		ReadNext() (key []byte, value []byte, err error)
		SeekTo(key []byte)
		Close()
	}

	Option struct {
		CreateIfMissing bool   `json:"create_if_missing"`
		Sync            bool   `json:"sync"`
		BlockSize       int    `json:"block_size"`
		BlockCache      uint64 `json:"block_cache"`
		MaxOpenFiles    int    `json:"max_open_files"`
		WriteBufferSize int    `json:"write_buffer_size"`
		KeepLogFileNum  int    `json:"keep_log_file_num"`
		MaxLogFileSize  int    `json:"max_log_file_size"`
	}
)

func NewKVStore(ctx context.Context, path string, engine EngineType, option *Option) (Store, error) {
	if option == nil {
		option = &Option{CreateIfMissing: true}
	}
	switch engine {
	case RocksdbEngine:
		return newRocksdb(ctx, path, option)
	case BadgerEngine:
		return newBadger(ctx, path, option)
	case MemoryEngine:
		return newMemory(ctx, option)
	default:
		return nil, ErrEngineNotFound
	}
}

func (et EngineType) String() string {
	return string(et)
}
