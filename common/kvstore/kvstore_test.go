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
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoutfs/metaquery/util"
)

type testEg struct {
	engine Store
	path   string
}

func newEngine(t *testing.T, engineType EngineType) *testEg {
	ctx := context.TODO()
	opt := &Option{CreateIfMissing: true, Sync: true}

	if engineType == MemoryEngine {
		engine, err := newMemory(ctx, opt)
		require.NoError(t, err)
		return &testEg{engine: engine}
	}

	path, err := util.GenTmpPath()
	require.NoError(t, err)
	engine, err := NewKVStore(ctx, path, engineType, opt)
	require.NoError(t, err)
	return &testEg{engine: engine, path: path}
}

func (eg *testEg) close() {
	eg.engine.Close()
	if eg.path != "" {
		os.RemoveAll(eg.path)
	}
}

// rocksdb has its own test file; these engines need no cgo.
var testEngineTypes = []EngineType{MemoryEngine, BadgerEngine}

func TestEngine_SetGetDelete(t *testing.T) {
	for _, et := range testEngineTypes {
		t.Run(et.String(), func(t *testing.T) {
			ctx := context.TODO()
			eg := newEngine(t, et)
			defer eg.close()

			key := []byte("k1")
			value := []byte("v1")
			require.NoError(t, eg.engine.SetRaw(ctx, key, value))

			got, err := eg.engine.GetRaw(ctx, key, nil)
			require.NoError(t, err)
			require.Equal(t, value, got)

			// returned value is a copy
			got[0] = 'x'
			got, err = eg.engine.GetRaw(ctx, key, nil)
			require.NoError(t, err)
			require.Equal(t, value, got)

			require.NoError(t, eg.engine.Delete(ctx, key))
			_, err = eg.engine.GetRaw(ctx, key, nil)
			require.Equal(t, ErrNotFound, err)

			_, err = eg.engine.GetRaw(ctx, []byte("missing"), nil)
			require.Equal(t, ErrNotFound, err)
		})
	}
}

func TestEngine_ListOrder(t *testing.T) {
	for _, et := range testEngineTypes {
		t.Run(et.String(), func(t *testing.T) {
			ctx := context.TODO()
			eg := newEngine(t, et)
			defer eg.close()

			// insert out of order, expect lexicographic iteration
			for _, k := range []string{"b", "e", "a", "d", "c"} {
				require.NoError(t, eg.engine.SetRaw(ctx, []byte(k), []byte("v-"+k)))
			}

			lr := eg.engine.List(ctx, nil, nil)
			var keys []string
			for {
				k, v, err := lr.ReadNext()
				require.NoError(t, err)
				if k == nil {
					break
				}
				require.Equal(t, "v-"+string(k), string(v))
				keys = append(keys, string(k))
			}
			lr.Close()
			require.Equal(t, []string{"a", "b", "c", "d", "e"}, keys)
		})
	}
}

func TestEngine_ListMarker(t *testing.T) {
	for _, et := range testEngineTypes {
		t.Run(et.String(), func(t *testing.T) {
			ctx := context.TODO()
			eg := newEngine(t, et)
			defer eg.close()

			for _, k := range []string{"a", "c", "e"} {
				require.NoError(t, eg.engine.SetRaw(ctx, []byte(k), []byte{}))
			}

			// marker on a present key starts at that key
			lr := eg.engine.List(ctx, []byte("c"), nil)
			k, _, err := lr.ReadNext()
			require.NoError(t, err)
			require.Equal(t, "c", string(k))
			k, _, err = lr.ReadNext()
			require.NoError(t, err)
			require.Equal(t, "e", string(k))
			lr.Close()

			// marker between keys starts at the next greater key
			lr = eg.engine.List(ctx, []byte("b"), nil)
			k, _, err = lr.ReadNext()
			require.NoError(t, err)
			require.Equal(t, "c", string(k))
			lr.Close()

			// marker past the last key is immediately exhausted
			lr = eg.engine.List(ctx, []byte("f"), nil)
			k, _, err = lr.ReadNext()
			require.NoError(t, err)
			require.Nil(t, k)
			lr.Close()
		})
	}
}

func TestEngine_SeekTo(t *testing.T) {
	for _, et := range testEngineTypes {
		t.Run(et.String(), func(t *testing.T) {
			ctx := context.TODO()
			eg := newEngine(t, et)
			defer eg.close()

			for _, k := range []string{"a", "b", "c", "d"} {
				require.NoError(t, eg.engine.SetRaw(ctx, []byte(k), []byte{}))
			}

			lr := eg.engine.List(ctx, nil, nil)
			defer lr.Close()
			k, _, err := lr.ReadNext()
			require.NoError(t, err)
			require.Equal(t, "a", string(k))

			lr.SeekTo([]byte("c"))
			k, _, err = lr.ReadNext()
			require.NoError(t, err)
			require.Equal(t, "c", string(k))
			k, _, err = lr.ReadNext()
			require.NoError(t, err)
			require.Equal(t, "d", string(k))
		})
	}
}

func TestEngine_Snapshot(t *testing.T) {
	for _, et := range testEngineTypes {
		t.Run(et.String(), func(t *testing.T) {
			ctx := context.TODO()
			eg := newEngine(t, et)
			defer eg.close()

			require.NoError(t, eg.engine.SetRaw(ctx, []byte("k1"), []byte("old")))

			snap := eg.engine.NewSnapshot()
			defer snap.Close()
			ro := eg.engine.NewReadOption()
			defer ro.Close()
			ro.SetSnapshot(snap)

			// writes after the snapshot stay invisible through it
			require.NoError(t, eg.engine.SetRaw(ctx, []byte("k1"), []byte("new")))
			require.NoError(t, eg.engine.SetRaw(ctx, []byte("k2"), []byte("new")))

			got, err := eg.engine.GetRaw(ctx, []byte("k1"), ro)
			require.NoError(t, err)
			require.Equal(t, "old", string(got))
			_, err = eg.engine.GetRaw(ctx, []byte("k2"), ro)
			require.Equal(t, ErrNotFound, err)

			lr := eg.engine.List(ctx, nil, ro)
			count := 0
			for {
				k, _, err := lr.ReadNext()
				require.NoError(t, err)
				if k == nil {
					break
				}
				count++
			}
			lr.Close()
			require.Equal(t, 1, count)

			// unpinned reads see the live store
			got, err = eg.engine.GetRaw(ctx, []byte("k1"), nil)
			require.NoError(t, err)
			require.Equal(t, "new", string(got))
		})
	}
}

func TestNewKVStore_UnknownEngine(t *testing.T) {
	_, err := NewKVStore(context.TODO(), "", EngineType("bolt"), nil)
	require.Equal(t, ErrEngineNotFound, err)
}
