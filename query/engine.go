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

// Package query answers the privileged metadata index lookups: which
// inodes changed since a sequence stamp, which inodes may carry an
// xattr name or value, and every root path of a hard linked inode.
// Each call runs synchronously against one stable snapshot of the
// index and packs fixed size records into a caller owned buffer.
package query

import (
	"context"

	"github.com/scoutfs/metaquery/dir"
	apierrors "github.com/scoutfs/metaquery/errors"
	"github.com/scoutfs/metaquery/index"
	"github.com/scoutfs/metaquery/proto"
)

// CapabilityChecker gates path reconstruction, which bypasses the
// traversal permission checks a normal lookup would make.
type CapabilityChecker interface {
	HasElevatedAccess(ctx context.Context) bool
}

type Config struct {
	Index *index.Index
	Caps  CapabilityChecker

	// PathSource overrides the backref resolver, for tests.
	PathSource func(view *index.View) dir.PathSource
}

type Engine struct {
	idx        *index.Index
	caps       CapabilityChecker
	pathSource func(view *index.View) dir.PathSource
}

func NewEngine(cfg *Config) *Engine {
	e := &Engine{
		idx:        cfg.Index,
		caps:       cfg.Caps,
		pathSource: cfg.PathSource,
	}
	if e.pathSource == nil {
		e.pathSource = func(view *index.View) dir.PathSource {
			return dir.NewResolver(view)
		}
	}
	return e
}

// Do dispatches one query into its scanner and returns the bytes
// packed into dest.  The variant set is closed; anything else is
// ErrNotSupported.
func (e *Engine) Do(ctx context.Context, q proto.Query, dest []byte) (int, error) {
	switch q := q.(type) {
	case proto.InodesSinceQuery:
		return e.InodesSince(ctx, q.InodesSinceRequest, dest)
	case proto.InodeDataSinceQuery:
		return e.InodeDataSince(ctx, q.InodesSinceRequest, dest)
	case proto.FindXattrNameQuery:
		return e.FindXattrNames(ctx, q.FindXattrsRequest, dest)
	case proto.FindXattrValueQuery:
		return e.FindXattrValues(ctx, q.FindXattrsRequest, dest)
	case proto.InodePathsQuery:
		return e.InodePaths(ctx, q.InodePathsRequest, dest)
	default:
		return 0, apierrors.ErrNotSupported
	}
}
