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

package index

import (
	"encoding/binary"
	"fmt"
)

// KeySize is the encoded size of a composite index key.
const KeySize = 8 + 1 + 8

// Record classes stored in the index, in key order within one primary.
const (
	// TypeInode marks whole-inode metadata records: primary is the
	// inode number, secondary is zero.
	TypeInode = uint8(0x10)
	// TypeExtent marks file data extent records: primary is the inode
	// number, secondary the extent offset.
	TypeExtent = uint8(0x20)
	// TypeXattrName and TypeXattrValue mark reverse hash index
	// records: primary is the hash, secondary the owning inode.
	TypeXattrName  = uint8(0x30)
	TypeXattrValue = uint8(0x38)
	// TypeBackref marks hard link back-references: primary is the
	// linked inode, secondary a per-link counter.
	TypeBackref = uint8(0x40)
)

// Key is the totally ordered composite key of the metadata index.
// Encoded keys sort byte-lexicographically in exactly (Primary, Type,
// Secondary) order, which fixes scan direction and resumption points.
type Key struct {
	Primary   uint64
	Type      uint8
	Secondary uint64
}

func NewKey(primary uint64, typ uint8, secondary uint64) Key {
	return Key{Primary: primary, Type: typ, Secondary: secondary}
}

func (k Key) Encode() []byte {
	raw := make([]byte, KeySize)
	binary.BigEndian.PutUint64(raw, k.Primary)
	raw[8] = k.Type
	binary.BigEndian.PutUint64(raw[9:], k.Secondary)
	return raw
}

func DecodeKey(raw []byte) (Key, error) {
	if len(raw) != KeySize {
		return Key{}, fmt.Errorf("bad key length %d", len(raw))
	}
	return Key{
		Primary:   binary.BigEndian.Uint64(raw),
		Type:      raw[8],
		Secondary: binary.BigEndian.Uint64(raw[9:]),
	}, nil
}

// Compare orders keys the way their encodings order.
func (k Key) Compare(o Key) int {
	switch {
	case k.Primary < o.Primary:
		return -1
	case k.Primary > o.Primary:
		return 1
	case k.Type < o.Type:
		return -1
	case k.Type > o.Type:
		return 1
	case k.Secondary < o.Secondary:
		return -1
	case k.Secondary > o.Secondary:
		return 1
	}
	return 0
}

// Next returns the smallest key strictly greater than k.  Scans use it
// to exclude an already returned match when resuming.  Wrapping at the
// maximum primary is the caller's concern; range scans are always
// bounded above.
func (k Key) Next() Key {
	k.Secondary++
	if k.Secondary == 0 {
		k.Type++
		if k.Type == 0 {
			k.Primary++
		}
	}
	return k
}

func (k Key) String() string {
	return fmt.Sprintf("%d.%x.%d", k.Primary, k.Type, k.Secondary)
}
