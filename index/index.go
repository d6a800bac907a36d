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

// Package index layers the composite key space and sequence stamped
// records of the metadata index over an ordered kvstore engine, and
// provides the snapshot pinned range scans the query engine runs on.
package index

import (
	"context"
	"encoding/binary"

	"github.com/cubefs/cubefs/blobstore/util/errors"

	"github.com/scoutfs/metaquery/common/kvstore"
)

// Every record value starts with the sequence stamp of its last
// modification.  Stamps are assigned by the write path and are
// non-decreasing under repeated writes to one key.
const recordHeaderSize = 8

var errTruncatedRecord = errors.New("truncated index record")

func EncodeRecord(seq uint64, payload []byte) []byte {
	raw := make([]byte, recordHeaderSize+len(payload))
	binary.LittleEndian.PutUint64(raw, seq)
	copy(raw[recordHeaderSize:], payload)
	return raw
}

func RecordSeq(raw []byte) uint64 {
	return binary.LittleEndian.Uint64(raw)
}

func RecordPayload(raw []byte) []byte {
	return raw[recordHeaderSize:]
}

type Index struct {
	kv kvstore.Store
}

func NewIndex(kv kvstore.Store) *Index {
	return &Index{kv: kv}
}

func (i *Index) KVStore() kvstore.Store {
	return i.kv
}

// Insert and Delete are the maintenance surface used by the external
// write path and by test fixtures.  The query engine never writes.
func (i *Index) Insert(ctx context.Context, key Key, seq uint64, payload []byte) error {
	return i.kv.SetRaw(ctx, key.Encode(), EncodeRecord(seq, payload))
}

func (i *Index) Delete(ctx context.Context, key Key) error {
	return i.kv.Delete(ctx, key.Encode())
}

// Stable pins a snapshot of the index and returns a view reading
// through it.  One query call runs against one view; different calls
// may observe different snapshots.
func (i *Index) Stable() *View {
	snap := i.kv.NewSnapshot()
	readOpt := i.kv.NewReadOption()
	readOpt.SetSnapshot(snap)
	return &View{kv: i.kv, snap: snap, readOpt: readOpt}
}

type View struct {
	kv      kvstore.Store
	snap    kvstore.Snapshot
	readOpt kvstore.ReadOption
}

func (v *View) Close() {
	v.readOpt.Close()
	v.snap.Close()
}

// Get returns the stamp and payload of one record.
func (v *View) Get(ctx context.Context, key Key) (seq uint64, payload []byte, err error) {
	raww, err := v.kv.GetRaw(ctx, key.Encode(), v.readOpt)
	if err != nil {
		return 0, nil, err
	}
	if len(raww) < recordHeaderSize {
		return 0, nil, errors.Info(errTruncatedRecord, key.String())
	}
	return RecordSeq(raww), RecordPayload(raww), nil
}

// Next returns the smallest key in [from, to], or kvstore.ErrNotFound
// when the range holds none.
func (v *View) Next(ctx context.Context, from, to Key) (Key, error) {
	key, _, err := v.next(ctx, from, to, 0, false)
	return key, err
}

// NextSince returns the smallest key in [from, to] whose record stamp
// is at or above seq, along with that stamp.  Records below the floor
// are skipped; kvstore.ErrNotFound means the range is exhausted, which
// callers treat as normal termination.
func (v *View) NextSince(ctx context.Context, from, to Key, seq uint64) (Key, uint64, error) {
	return v.next(ctx, from, to, seq, true)
}

func (v *View) next(ctx context.Context, from, to Key, seq uint64, since bool) (Key, uint64, error) {
	lr := v.kv.List(ctx, from.Encode(), v.readOpt)
	defer lr.Close()

	for {
		raw, value, err := lr.ReadNext()
		if err != nil {
			return Key{}, 0, err
		}
		if raw == nil {
			return Key{}, 0, kvstore.ErrNotFound
		}
		key, err := DecodeKey(raw)
		if err != nil {
			return Key{}, 0, errors.Info(err, "corrupt index key")
		}
		if key.Compare(to) > 0 {
			return Key{}, 0, kvstore.ErrNotFound
		}
		// the engines share one keyspace, so records of other classes
		// can sit inside the byte range of a scan
		if key.Type != from.Type {
			continue
		}
		if len(value) < recordHeaderSize {
			return Key{}, 0, errors.Info(errTruncatedRecord, key.String())
		}
		stamp := RecordSeq(value)
		if since && stamp < seq {
			continue
		}
		return key, stamp, nil
	}
}
