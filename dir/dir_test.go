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

package dir

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoutfs/metaquery/common/kvstore"
	"github.com/scoutfs/metaquery/index"
	"github.com/scoutfs/metaquery/proto"
)

func newTestIndex(t *testing.T) *index.Index {
	kv, err := kvstore.NewKVStore(context.TODO(), "", kvstore.MemoryEngine, nil)
	require.NoError(t, err)
	return index.NewIndex(kv)
}

func link(t *testing.T, idx *index.Index, ino proto.Ino, ctr uint64, parent proto.Ino, name string) {
	key := index.NewKey(ino, index.TypeBackref, ctr)
	err := idx.Insert(context.TODO(), key, 1, EncodeBackref(parent, []byte(name)))
	require.NoError(t, err)
}

func joinPath(comps []Component) string {
	var buf bytes.Buffer
	for i, c := range comps {
		if i > 0 {
			buf.WriteByte(proto.PathSeparator)
		}
		buf.Write(c.Name)
	}
	return buf.String()
}

func TestBackref_Encoding(t *testing.T) {
	raw := EncodeBackref(17, []byte("hello"))
	parent, name, err := DecodeBackref(raw)
	require.NoError(t, err)
	require.Equal(t, proto.Ino(17), parent)
	require.Equal(t, []byte("hello"), name)

	// empty names round trip; directory entries never produce them but
	// the codec must not choke on stored garbage either
	parent, name, err = DecodeBackref(EncodeBackref(3, nil))
	require.NoError(t, err)
	require.Equal(t, proto.Ino(3), parent)
	require.Empty(t, name)

	_, _, err = DecodeBackref([]byte("short"))
	require.Error(t, err)

	long := make([]byte, proto.NameLen+1)
	_, _, err = DecodeBackref(EncodeBackref(3, long))
	require.Error(t, err)
}

func TestResolver_SingleLink(t *testing.T) {
	ctx := context.TODO()
	idx := newTestIndex(t)
	defer idx.KVStore().Close()

	// /a/b/c: dirs a=2 b=3, file c=5
	link(t, idx, 2, 0, proto.RootIno, "a")
	link(t, idx, 3, 0, 2, "b")
	link(t, idx, 5, 0, 3, "c")

	view := idx.Stable()
	defer view.Close()
	r := NewResolver(view)

	ctr := uint64(0)
	comps, err := r.NextPath(ctx, 5, &ctr)
	require.NoError(t, err)
	require.Equal(t, "a/b/c", joinPath(comps))
	require.Equal(t, uint64(1), ctr)

	_, err = r.NextPath(ctx, 5, &ctr)
	require.Equal(t, kvstore.ErrNotFound, err)
}

func TestResolver_HardLinks(t *testing.T) {
	ctx := context.TODO()
	idx := newTestIndex(t)
	defer idx.KVStore().Close()

	// /a/b/c and /a/d/c: the file 5 is linked into both b and d
	link(t, idx, 2, 0, proto.RootIno, "a")
	link(t, idx, 3, 0, 2, "b")
	link(t, idx, 4, 0, 2, "d")
	link(t, idx, 5, 0, 3, "c")
	link(t, idx, 5, 1, 4, "c")

	view := idx.Stable()
	defer view.Close()
	r := NewResolver(view)

	var paths []string
	ctr := uint64(0)
	for {
		comps, err := r.NextPath(ctx, 5, &ctr)
		if err == kvstore.ErrNotFound {
			break
		}
		require.NoError(t, err)
		paths = append(paths, joinPath(comps))
	}
	require.Equal(t, []string{"a/b/c", "a/d/c"}, paths)
}

func TestResolver_RootChild(t *testing.T) {
	ctx := context.TODO()
	idx := newTestIndex(t)
	defer idx.KVStore().Close()

	link(t, idx, 9, 0, proto.RootIno, "top")

	view := idx.Stable()
	defer view.Close()
	r := NewResolver(view)

	ctr := uint64(0)
	comps, err := r.NextPath(ctx, 9, &ctr)
	require.NoError(t, err)
	require.Equal(t, "top", joinPath(comps))
}

func TestResolver_ResumeCounter(t *testing.T) {
	ctx := context.TODO()
	idx := newTestIndex(t)
	defer idx.KVStore().Close()

	link(t, idx, 2, 0, proto.RootIno, "a")
	link(t, idx, 5, 3, 2, "one")
	link(t, idx, 5, 9, 2, "two")

	view := idx.Stable()
	defer view.Close()
	r := NewResolver(view)

	// counters are sparse; resumption lands on the next link at or
	// past the counter, not at an exact slot
	ctr := uint64(1)
	comps, err := r.NextPath(ctx, 5, &ctr)
	require.NoError(t, err)
	require.Equal(t, "a/one", joinPath(comps))
	require.Equal(t, uint64(4), ctr)

	comps, err = r.NextPath(ctx, 5, &ctr)
	require.NoError(t, err)
	require.Equal(t, "a/two", joinPath(comps))
	require.Equal(t, uint64(10), ctr)
}

func TestResolver_DisconnectedLink(t *testing.T) {
	ctx := context.TODO()
	idx := newTestIndex(t)
	defer idx.KVStore().Close()

	// the first link's parent chain is gone, the second is whole; the
	// broken one is skipped without failing the call
	link(t, idx, 2, 0, proto.RootIno, "a")
	link(t, idx, 5, 0, 99, "ghost")
	link(t, idx, 5, 1, 2, "real")

	view := idx.Stable()
	defer view.Close()
	r := NewResolver(view)

	ctr := uint64(0)
	comps, err := r.NextPath(ctx, 5, &ctr)
	require.NoError(t, err)
	require.Equal(t, "a/real", joinPath(comps))

	_, err = r.NextPath(ctx, 5, &ctr)
	require.Equal(t, kvstore.ErrNotFound, err)
}

func TestResolver_NoLinks(t *testing.T) {
	ctx := context.TODO()
	idx := newTestIndex(t)
	defer idx.KVStore().Close()

	view := idx.Stable()
	defer view.Close()
	r := NewResolver(view)

	ctr := uint64(0)
	_, err := r.NextPath(ctx, 123, &ctr)
	require.Equal(t, kvstore.ErrNotFound, err)
}

func TestResolver_CycleGuard(t *testing.T) {
	ctx := context.TODO()
	idx := newTestIndex(t)
	defer idx.KVStore().Close()

	// corrupt ancestry looping between two directories must terminate
	// and be treated as an unstable path
	link(t, idx, 2, 0, 3, "x")
	link(t, idx, 3, 0, 2, "y")
	link(t, idx, 5, 0, 2, "f")

	view := idx.Stable()
	defer view.Close()
	r := NewResolver(view)

	ctr := uint64(0)
	_, err := r.NextPath(ctx, 5, &ctr)
	require.Equal(t, kvstore.ErrNotFound, err)
}
