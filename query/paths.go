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
	"github.com/scoutfs/metaquery/proto"
)

// InodePaths fills dest with every path from the root directory to the
// target inode, one full path per hard link, as consecutive
// NUL-terminated strings followed by one empty terminator.  None of
// the returned paths reflect symlinks to path components.
//
// The caller needs the elevated capability: reconstruction does not
// verify that the caller could have traversed the returned paths.
//
// Unlike the scanners there is no partial success: a destination too
// small for the whole result set fails with ErrBufferTooSmall, since a
// path cut mid-string would corrupt the delimited stream.  The buffer
// can be approximately sized as nlink * the path length bound.  A
// target that does not exist or is disconnected from the root yields
// only the empty terminator.
func (e *Engine) InodePaths(ctx context.Context, req proto.InodePathsRequest, dest []byte) (int, error) {
	if len(dest) > proto.MaxBufLen {
		return 0, apierrors.ErrInvalidArgument
	}
	if e.caps == nil || !e.caps.HasElevatedAccess(ctx) {
		return 0, apierrors.ErrPermissionDenied
	}

	view := e.idx.Stable()
	defer view.Close()
	src := e.pathSource(view)

	w, _ := newSliceWriter(dest)
	sep := []byte{proto.PathSeparator}
	term := []byte{proto.PathTerm}

	ctr := uint64(0)
	for {
		comps, err := src.NextPath(ctx, req.Ino, &ctr)
		if err != nil {
			if err == kvstore.ErrNotFound {
				break
			}
			return 0, err
		}

		for i := range comps {
			if i > 0 {
				if err := w.WriteRecord(sep); err != nil {
					return 0, err
				}
			}
			if err := w.WriteRecord(comps[i].Name); err != nil {
				return 0, err
			}
		}
		if err := w.WriteRecord(term); err != nil {
			return 0, err
		}
	}

	if err := w.WriteRecord(term); err != nil {
		return 0, err
	}
	return w.Len(), nil
}
