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

//go:build cgo

package kvstore

import (
	"context"
	"errors"
	"os"

	rdb "github.com/tecbot/gorocksdb"
)

type (
	rocksdb struct {
		path     string
		db       *rdb.DB
		opt      *rdb.Options
		readOpt  *rdb.ReadOptions
		writeOpt *rdb.WriteOptions
		flushOpt *rdb.FlushOptions
	}
	rocksSnapshot struct {
		db   *rdb.DB
		snap *rdb.Snapshot
	}
	rocksReadOption struct {
		opt *rdb.ReadOptions
	}
	rocksListReader struct {
		iterator *rdb.Iterator
		isFirst  bool
	}
)

func newRocksdb(ctx context.Context, path string, option *Option) (Store, error) {
	if path == "" {
		return nil, errors.New("path is empty")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}

	dbOpt := genRocksdbOpts(option)
	db, err := rdb.OpenDb(dbOpt, path)
	if err != nil {
		return nil, err
	}

	wo := rdb.NewDefaultWriteOptions()
	if option.Sync {
		wo.SetSync(option.Sync)
	}

	return &rocksdb{
		path:     path,
		db:       db,
		opt:      dbOpt,
		readOpt:  rdb.NewDefaultReadOptions(),
		writeOpt: wo,
		flushOpt: rdb.NewDefaultFlushOptions(),
	}, nil
}

func (s *rocksdb) NewSnapshot() Snapshot {
	return &rocksSnapshot{db: s.db, snap: s.db.NewSnapshot()}
}

func (s *rocksdb) NewReadOption() ReadOption {
	return &rocksReadOption{opt: rdb.NewDefaultReadOptions()}
}

func (s *rocksdb) GetRaw(ctx context.Context, key []byte, readOpt ReadOption) (value []byte, err error) {
	ro := s.readOpt
	if readOpt != nil {
		ro = readOpt.(*rocksReadOption).opt
	}
	v, err := s.db.Get(ro, key)
	if err != nil {
		return nil, err
	}
	if !v.Exists() {
		return nil, ErrNotFound
	}
	value = make([]byte, v.Size())
	copy(value, v.Data())
	v.Free()
	return value, nil
}

func (s *rocksdb) SetRaw(ctx context.Context, key []byte, value []byte) error {
	return s.db.Put(s.writeOpt, key, value)
}

func (s *rocksdb) Delete(ctx context.Context, key []byte) error {
	return s.db.Delete(s.writeOpt, key)
}

func (s *rocksdb) List(ctx context.Context, marker []byte, readOpt ReadOption) ListReader {
	ro := s.readOpt
	if readOpt != nil {
		ro = readOpt.(*rocksReadOption).opt
	}
	t := s.db.NewIterator(ro)
	if len(marker) > 0 {
		t.Seek(marker)
	} else {
		t.SeekToFirst()
	}
	return &rocksListReader{iterator: t, isFirst: true}
}

func (s *rocksdb) Flush(ctx context.Context) error {
	return s.db.Flush(s.flushOpt)
}

func (s *rocksdb) Close() {
	s.readOpt.Destroy()
	s.writeOpt.Destroy()
	s.flushOpt.Destroy()
	s.db.Close()
	s.opt.Destroy()
}

func (ss *rocksSnapshot) Close() {
	ss.db.ReleaseSnapshot(ss.snap)
}

func (ro *rocksReadOption) SetSnapshot(snap Snapshot) {
	ro.opt.SetSnapshot(snap.(*rocksSnapshot).snap)
}

func (ro *rocksReadOption) Close() {
	ro.opt.Destroy()
}

func (lr *rocksListReader) ReadNext() (key []byte, value []byte, err error) {
	if lr.isFirst {
		lr.isFirst = false
	} else {
		lr.iterator.Next()
	}
	if err = lr.iterator.Err(); err != nil {
		return nil, nil, err
	}
	if !lr.iterator.Valid() {
		return nil, nil, nil
	}
	k := lr.iterator.Key()
	v := lr.iterator.Value()
	key = make([]byte, k.Size())
	copy(key, k.Data())
	value = make([]byte, v.Size())
	copy(value, v.Data())
	k.Free()
	v.Free()
	return key, value, nil
}

func (lr *rocksListReader) SeekTo(key []byte) {
	lr.isFirst = true
	lr.iterator.Seek(key)
}

func (lr *rocksListReader) Close() {
	lr.iterator.Close()
}

func genRocksdbOpts(opt *Option) (opts *rdb.Options) {
	opts = rdb.NewDefaultOptions()
	blockBaseOpt := rdb.NewDefaultBlockBasedTableOptions()
	opts.SetCreateIfMissing(opt.CreateIfMissing)
	if opt.BlockSize > 0 {
		blockBaseOpt.SetBlockSize(opt.BlockSize)
	}
	if opt.BlockCache > 0 {
		blockBaseOpt.SetBlockCache(rdb.NewLRUCache(opt.BlockCache))
	}
	if opt.MaxOpenFiles > 0 {
		opts.SetMaxOpenFiles(opt.MaxOpenFiles)
	}
	if opt.WriteBufferSize > 0 {
		opts.SetWriteBufferSize(opt.WriteBufferSize)
	}
	if opt.KeepLogFileNum > 0 {
		opts.SetKeepLogFileNum(opt.KeepLogFileNum)
	}
	if opt.MaxLogFileSize > 0 {
		opts.SetMaxLogFileSize(opt.MaxLogFileSize)
	}
	opts.SetBlockBasedTableFactory(blockBaseOpt)
	return
}
