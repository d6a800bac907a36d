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

// Package proto carries the wire level constants and request types of
// the metadata query api.
package proto

const (
	// RootIno is the inode number of the filesystem root directory.
	// Path reconstruction walks back-references until it reaches it.
	RootIno = uint64(1)

	// NameLen bounds a single directory entry name.
	NameLen = 255

	// MaxXattrLen bounds the xattr name or value string a reverse
	// index search may be given.
	MaxXattrLen = 1024

	// MaxFindCount bounds the result count of a reverse index search.
	MaxFindCount = uint64(1<<31 - 1)

	// MaxBufLen bounds destination buffer lengths.  Buffers are
	// validated against a signed size so byte counts stay
	// representable as non-negative return values.
	MaxBufLen = 1<<31 - 1

	// NameHashMask covers the low bits of a name hash that are
	// reserved to group collision buckets.  They are cleared before a
	// name hash is used as an index key.
	NameHashMask = uint64(0xff)

	// MaxPathComponents caps a single backward path walk.  Concurrent
	// renames can produce cycles; the walk gives up on a path that
	// exceeds this instead of looping.
	MaxPathComponents = 4096

	// PathSeparator joins path components, PathTerm ends each
	// serialized path.  An extra PathTerm ends the whole result set.
	PathSeparator = byte('/')
	PathTerm      = byte(0)
)

type (
	Ino = uint64
	Seq = uint64
)
