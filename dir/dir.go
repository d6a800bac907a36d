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

// Package dir serves directory back-references: for a target inode it
// enumerates every path from the root directory down to the target,
// one complete path per hard link.  The walk is not serialized against
// concurrent renames or unlinks; only paths that stayed stable for the
// whole call are guaranteed to be returned.
package dir

import (
	"context"
	"encoding/binary"

	"github.com/cubefs/cubefs/blobstore/util/errors"

	"github.com/scoutfs/metaquery/common/kvstore"
	"github.com/scoutfs/metaquery/index"
	"github.com/scoutfs/metaquery/proto"
)

var (
	errBadBackref  = errors.New("corrupt backref record")
	errNameTooLong = errors.New("backref name exceeds name length bound")
)

// Component is one path element, named from the directory entry that
// links the child into its parent.
type Component struct {
	Name []byte
}

// PathSource hands out complete root-to-target paths one at a time.
// ctr is an opaque resumption counter owned by the caller; it starts
// at zero and NextPath advances it past the hard link it consumed.
// kvstore.ErrNotFound reports that all paths are exhausted.
type PathSource interface {
	NextPath(ctx context.Context, ino proto.Ino, ctr *uint64) ([]Component, error)
}

// Backref records live under (ino, TypeBackref, ctr) and carry the
// parent directory inode and the entry name linking ino into it.
func EncodeBackref(parent proto.Ino, name []byte) []byte {
	raw := make([]byte, 8+len(name))
	binary.LittleEndian.PutUint64(raw, parent)
	copy(raw[8:], name)
	return raw
}

func DecodeBackref(raw []byte) (parent proto.Ino, name []byte, err error) {
	if len(raw) < 8 {
		return 0, nil, errBadBackref
	}
	name = raw[8:]
	if len(name) > proto.NameLen {
		return 0, nil, errNameTooLong
	}
	return binary.LittleEndian.Uint64(raw), name, nil
}

// Resolver walks backref records in a stable index view.
type Resolver struct {
	view *index.View
}

func NewResolver(view *index.View) *Resolver {
	return &Resolver{view: view}
}

// NextPath finds the next hard link of ino at or past *ctr and builds
// the full path for it by walking parent backrefs up to the root.  The
// component list is returned in root-to-target order.
//
// A link whose ancestor chain vanishes mid-walk (concurrent unlink or
// rename) or exceeds the component cap is skipped rather than
// reported; such a path was not stable for the duration of the call.
func (r *Resolver) NextPath(ctx context.Context, ino proto.Ino, ctr *uint64) ([]Component, error) {
	for {
		from := index.NewKey(ino, index.TypeBackref, *ctr)
		to := index.NewKey(ino, index.TypeBackref, ^uint64(0))
		key, err := r.view.Next(ctx, from, to)
		if err != nil {
			// includes kvstore.ErrNotFound: no more links
			return nil, err
		}
		*ctr = key.Secondary + 1

		comps, err := r.walk(ctx, key)
		if err != nil {
			return nil, err
		}
		if comps == nil {
			continue
		}
		return comps, nil
	}
}

// walk builds one path target-to-root and reverses it.  nil components
// with nil error means the path went away under us.
func (r *Resolver) walk(ctx context.Context, leaf index.Key) ([]Component, error) {
	comps := make([]Component, 0, 8)

	key := leaf
	for {
		_, payload, err := r.view.Get(ctx, key)
		if err != nil {
			if err == kvstore.ErrNotFound {
				return nil, nil
			}
			return nil, err
		}
		parent, name, err := DecodeBackref(payload)
		if err != nil {
			return nil, errors.Info(err, key.String())
		}

		comp := Component{Name: make([]byte, len(name))}
		copy(comp.Name, name)
		comps = append(comps, comp)
		if len(comps) > proto.MaxPathComponents {
			return nil, nil
		}

		if parent == proto.RootIno {
			break
		}

		// directories carry a single link, so the first backref of
		// each ancestor is the only one
		from := index.NewKey(parent, index.TypeBackref, 0)
		to := index.NewKey(parent, index.TypeBackref, ^uint64(0))
		key, err = r.view.Next(ctx, from, to)
		if err != nil {
			if err == kvstore.ErrNotFound {
				return nil, nil
			}
			return nil, err
		}
	}

	for i, j := 0, len(comps)-1; i < j; i, j = i+1, j-1 {
		comps[i], comps[j] = comps[j], comps[i]
	}
	return comps, nil
}
