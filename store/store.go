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

// Package store owns the lifetime of the ordered key-value engine and
// the metadata index living in it.
package store

import (
	"context"

	"github.com/scoutfs/metaquery/common/kvstore"
	"github.com/scoutfs/metaquery/index"
)

type Config struct {
	Path     string             `json:"path"`
	Engine   kvstore.EngineType `json:"engine"`
	KVOption kvstore.Option     `json:"kv_option"`
}

type Store struct {
	kvStore kvstore.Store
	idx     *index.Index
}

func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg.Engine == "" {
		cfg.Engine = kvstore.RocksdbEngine
	}
	// the server owns its store directory
	cfg.KVOption.CreateIfMissing = true
	kvStorePath := cfg.Path + "/kv"
	kvStore, err := kvstore.NewKVStore(ctx, kvStorePath, cfg.Engine, &cfg.KVOption)
	if err != nil {
		return nil, err
	}

	return &Store{kvStore: kvStore, idx: index.NewIndex(kvStore)}, nil
}

func (s *Store) KVStore() kvstore.Store {
	return s.kvStore
}

func (s *Store) Index() *index.Index {
	return s.idx
}

func (s *Store) Close() {
	s.kvStore.Close()
}
