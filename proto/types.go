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

package proto

import (
	"bytes"
	"encoding/binary"
)

const (
	// InoSeqSize is the wire size of one change-since result record.
	InoSeqSize = 16
	// InoSize is the wire size of one reverse index result record.
	InoSize = 8
)

// InoSeq is one change-since result: an inode number and the sequence
// stamp of its most recent qualifying modification.  Records are packed
// consecutively into the destination buffer in ascending ino order.
type InoSeq struct {
	Ino Ino `json:"ino"`
	Seq Seq `json:"seq"`
}

func (is *InoSeq) Encode(raw []byte) {
	binary.LittleEndian.PutUint64(raw, is.Ino)
	binary.LittleEndian.PutUint64(raw[8:], is.Seq)
}

func (is *InoSeq) Decode(raw []byte) {
	is.Ino = binary.LittleEndian.Uint64(raw)
	is.Seq = binary.LittleEndian.Uint64(raw[8:])
}

// DecodeInoSeqs unpacks a packed change-since result buffer.
func DecodeInoSeqs(raw []byte) []InoSeq {
	ret := make([]InoSeq, 0, len(raw)/InoSeqSize)
	for len(raw) >= InoSeqSize {
		is := InoSeq{}
		is.Decode(raw)
		ret = append(ret, is)
		raw = raw[InoSeqSize:]
	}
	return ret
}

func EncodeIno(ino Ino, raw []byte) {
	binary.LittleEndian.PutUint64(raw, ino)
}

func DecodeIno(raw []byte) Ino {
	return binary.LittleEndian.Uint64(raw)
}

// DecodeInos unpacks a packed reverse index result buffer.
func DecodeInos(raw []byte) []Ino {
	ret := make([]Ino, 0, len(raw)/InoSize)
	for len(raw) >= InoSize {
		ret = append(ret, DecodeIno(raw))
		raw = raw[InoSize:]
	}
	return ret
}

// DecodePaths splits a packed path result buffer into its paths.  The
// buffer carries one terminator after every path and one more after the
// whole list, so an empty terminator marks the end.
func DecodePaths(raw []byte) []string {
	ret := []string{}
	for len(raw) > 0 {
		i := bytes.IndexByte(raw, PathTerm)
		if i <= 0 {
			break
		}
		ret = append(ret, string(raw[:i]))
		raw = raw[i+1:]
	}
	return ret
}

type InodesSinceRequest struct {
	FirstIno Ino `json:"first_ino"`
	LastIno  Ino `json:"last_ino"`
	Seq      Seq `json:"seq"`
}

type FindXattrsRequest struct {
	Key      []byte `json:"key"`
	FirstIno Ino    `json:"first_ino"`
	LastIno  Ino    `json:"last_ino"`
	Count    uint64 `json:"count"`
}

type InodePathsRequest struct {
	Ino Ino `json:"ino"`
}

// Query is the request of one metadata index lookup.  Each query kind
// is its own variant so dispatch is an exhaustive type switch rather
// than an integer command code.
type Query interface {
	queryKind() string
}

type (
	InodesSinceQuery struct {
		InodesSinceRequest
	}
	InodeDataSinceQuery struct {
		InodesSinceRequest
	}
	FindXattrNameQuery struct {
		FindXattrsRequest
	}
	FindXattrValueQuery struct {
		FindXattrsRequest
	}
	InodePathsQuery struct {
		InodePathsRequest
	}
)

func (InodesSinceQuery) queryKind() string    { return "inodes_since" }
func (InodeDataSinceQuery) queryKind() string { return "inode_data_since" }
func (FindXattrNameQuery) queryKind() string  { return "find_xattr_name" }
func (FindXattrValueQuery) queryKind() string { return "find_xattr_value" }
func (InodePathsQuery) queryKind() string     { return "inode_paths" }

// Kind names the query for logs and metrics.
func Kind(q Query) string {
	if q == nil {
		return "none"
	}
	return q.queryKind()
}
