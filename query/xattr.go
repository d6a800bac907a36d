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

package query

import (
	"context"
	"hash/fnv"

	"github.com/scoutfs/metaquery/common/kvstore"
	apierrors "github.com/scoutfs/metaquery/errors"
	"github.com/scoutfs/metaquery/index"
	"github.com/scoutfs/metaquery/proto"
)

// NameHash hashes an xattr name or value into the primary field of a
// reverse index key.
func NameHash(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

// FindXattrNames finds inodes in [FirstIno, LastIno] that may carry an
// xattr with the given name.  The low hash bits are cleared so that
// names in one collision bucket share an index run.
func (e *Engine) FindXattrNames(ctx context.Context, req proto.FindXattrsRequest, dest []byte) (int, error) {
	return e.findXattrs(ctx, true, req, dest)
}

// FindXattrValues is FindXattrNames over the value hash index.
func (e *Engine) FindXattrValues(ctx context.Context, req proto.FindXattrsRequest, dest []byte) (int, error) {
	return e.findXattrs(ctx, false, req, dest)
}

// The returned inodes are candidates only: a hash match does not prove
// the name or value is present.  Callers confirm by re-reading the
// inode's xattrs.  Inodes are packed in ascending order and the search
// can be continued from one past the last inode returned.
func (e *Engine) findXattrs(ctx context.Context, byName bool, req proto.FindXattrsRequest, dest []byte) (int, error) {
	if len(req.Key) > proto.MaxXattrLen ||
		req.FirstIno > req.LastIno ||
		req.Count > proto.MaxFindCount ||
		len(dest) > proto.MaxBufLen {
		return 0, apierrors.ErrInvalidArgument
	}
	if req.Count == 0 {
		return 0, nil
	}

	h := NameHash(req.Key)
	typ := index.TypeXattrValue
	if byName {
		h &^= proto.NameHashMask
		typ = index.TypeXattrName
	}

	view := e.idx.Stable()
	defer view.Close()

	w, _ := newSliceWriter(dest)
	key := index.NewKey(h, typ, req.FirstIno)
	last := index.NewKey(h, typ, req.LastIno)

	var rec [proto.InoSize]byte
	copied := uint64(0)
	for copied < req.Count {
		match, err := view.Next(ctx, key, last)
		if err != nil {
			if err == kvstore.ErrNotFound {
				break
			}
			return 0, err
		}

		proto.EncodeIno(match.Secondary, rec[:])
		if err := w.WriteRecord(rec[:]); err != nil {
			if err == apierrors.ErrBufferTooSmall {
				break
			}
			return 0, err
		}

		copied++
		key = match.Next()
	}

	return w.Len(), nil
}
