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
	"errors"
	"os"

	badger "github.com/dgraph-io/badger/v4"
)

// The badger engine maps snapshots onto long lived read transactions.
// A read pinned to a snapshot sees the store as of the transaction's
// start timestamp.
type (
	badgerStore struct {
		path string
		db   *badger.DB
	}
	badgerSnapshot struct {
		txn *badger.Txn
	}
	badgerReadOption struct {
		txn *badger.Txn
	}
	badgerListReader struct {
		txn      *badger.Txn
		iterator *badger.Iterator
		ephem    bool
		isFirst  bool
	}
)

func newBadger(ctx context.Context, path string, option *Option) (Store, error) {
	if path == "" {
		return nil, errors.New("path is empty")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}

	opt := badger.DefaultOptions(path).
		WithLogger(nil).
		WithSyncWrites(option.Sync)
	db, err := badger.Open(opt)
	if err != nil {
		return nil, err
	}
	return &badgerStore{path: path, db: db}, nil
}

func (s *badgerStore) NewSnapshot() Snapshot {
	return &badgerSnapshot{txn: s.db.NewTransaction(false)}
}

func (s *badgerStore) NewReadOption() ReadOption {
	return &badgerReadOption{}
}

func (s *badgerStore) GetRaw(ctx context.Context, key []byte, readOpt ReadOption) (value []byte, err error) {
	txn, ephem := s.readTxn(readOpt)
	if ephem {
		defer txn.Discard()
	}
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (s *badgerStore) SetRaw(ctx context.Context, key []byte, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (s *badgerStore) Delete(ctx context.Context, key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (s *badgerStore) List(ctx context.Context, marker []byte, readOpt ReadOption) ListReader {
	txn, ephem := s.readTxn(readOpt)
	iterOpt := badger.DefaultIteratorOptions
	it := txn.NewIterator(iterOpt)
	if len(marker) > 0 {
		it.Seek(marker)
	} else {
		it.Rewind()
	}
	return &badgerListReader{txn: txn, iterator: it, ephem: ephem, isFirst: true}
}

func (s *badgerStore) Flush(ctx context.Context) error {
	return s.db.Sync()
}

func (s *badgerStore) Close() {
	s.db.Close()
}

func (s *badgerStore) readTxn(readOpt ReadOption) (txn *badger.Txn, ephem bool) {
	if readOpt != nil {
		if t := readOpt.(*badgerReadOption).txn; t != nil {
			return t, false
		}
	}
	return s.db.NewTransaction(false), true
}

func (ss *badgerSnapshot) Close() {
	ss.txn.Discard()
}

func (ro *badgerReadOption) SetSnapshot(snap Snapshot) {
	ro.txn = snap.(*badgerSnapshot).txn
}

func (ro *badgerReadOption) Close() {}

func (lr *badgerListReader) ReadNext() (key []byte, value []byte, err error) {
	if lr.isFirst {
		lr.isFirst = false
	} else {
		lr.iterator.Next()
	}
	if !lr.iterator.Valid() {
		return nil, nil, nil
	}
	item := lr.iterator.Item()
	key = item.KeyCopy(nil)
	value, err = item.ValueCopy(nil)
	if err != nil {
		return nil, nil, err
	}
	return key, value, nil
}

func (lr *badgerListReader) SeekTo(key []byte) {
	lr.isFirst = true
	lr.iterator.Seek(key)
}

func (lr *badgerListReader) Close() {
	lr.iterator.Close()
	if lr.ephem {
		lr.txn.Discard()
	}
}
