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

	"github.com/scoutfs/metaquery/common/kvstore"
	apierrors "github.com/scoutfs/metaquery/errors"
	"github.com/scoutfs/metaquery/index"
	"github.com/scoutfs/metaquery/proto"
)

// InodesSince finds the inodes in [FirstIno, LastIno] whose metadata
// record changed at or after the sequence floor.  Results are packed
// as InoSeq records in ascending inode order, not sequence order.
func (e *Engine) InodesSince(ctx context.Context, req proto.InodesSinceRequest, dest []byte) (int, error) {
	return e.changedSince(ctx, index.TypeInode, req, dest)
}

// InodeDataSince is InodesSince over file data extent records, for
// callers hunting inodes whose contents changed since a point in the
// past.
func (e *Engine) InodeDataSince(ctx context.Context, req proto.InodesSinceRequest, dest []byte) (int, error) {
	return e.changedSince(ctx, index.TypeExtent, req, dest)
}

func (e *Engine) changedSince(ctx context.Context, typ uint8, req proto.InodesSinceRequest, dest []byte) (int, error) {
	if len(dest) > proto.MaxBufLen {
		return 0, apierrors.ErrInvalidArgument
	}
	if req.FirstIno > req.LastIno {
		return 0, apierrors.ErrInvalidArgument
	}

	view := e.idx.Stable()
	defer view.Close()

	w, _ := newSliceWriter(dest)
	key := index.NewKey(req.FirstIno, typ, 0)
	last := index.NewKey(req.LastIno, typ, ^uint64(0))

	var rec [proto.InoSeqSize]byte
	for {
		match, seq, err := view.NextSince(ctx, key, last, req.Seq)
		if err != nil {
			if err == kvstore.ErrNotFound {
				// range exhausted, normal termination
				break
			}
			return 0, err
		}

		is := proto.InoSeq{Ino: match.Primary, Seq: seq}
		is.Encode(rec[:])
		if err := w.WriteRecord(rec[:]); err != nil {
			if err == apierrors.ErrBufferTooSmall {
				// partial fill is success; the caller resumes one
				// past the last ino returned
				break
			}
			return 0, err
		}

		// one representative record per inode: skip to the next
		// inode, not merely the next record, so an inode with many
		// changed extents shows up once
		key = index.NewKey(match.Primary+1, typ, 0)
	}

	return w.Len(), nil
}
