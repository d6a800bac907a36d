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
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKey_EncodeOrder(t *testing.T) {
	// ascending triple order must be ascending encoded byte order
	keys := []Key{
		NewKey(0, 0, 0),
		NewKey(0, 0, 1),
		NewKey(0, TypeInode, 0),
		NewKey(0, TypeBackref, ^uint64(0)),
		NewKey(1, 0, 0),
		NewKey(1, TypeInode, 0),
		NewKey(1, TypeInode, 1),
		NewKey(1, TypeExtent, 0),
		NewKey(255, TypeInode, 0),
		NewKey(256, TypeInode, 0),
		NewKey(^uint64(0), 0xff, ^uint64(0)),
	}
	for i := 1; i < len(keys); i++ {
		prev, cur := keys[i-1], keys[i]
		require.Negative(t, prev.Compare(cur), "%s < %s", prev, cur)
		require.Positive(t, cur.Compare(prev))
		require.Negative(t, bytes.Compare(prev.Encode(), cur.Encode()),
			"encoded %s < %s", prev, cur)
	}
	require.Zero(t, keys[3].Compare(keys[3]))
}

func TestKey_DecodeRoundtrip(t *testing.T) {
	k := NewKey(42, TypeXattrName, 7)
	got, err := DecodeKey(k.Encode())
	require.NoError(t, err)
	require.Equal(t, k, got)

	_, err = DecodeKey([]byte("short"))
	require.Error(t, err)
	_, err = DecodeKey(make([]byte, KeySize+1))
	require.Error(t, err)
}

func TestKey_Next(t *testing.T) {
	require.Equal(t, NewKey(1, TypeInode, 1), NewKey(1, TypeInode, 0).Next())

	// secondary wrap carries into type
	require.Equal(t, NewKey(1, TypeInode+1, 0),
		NewKey(1, TypeInode, ^uint64(0)).Next())

	// type wrap carries into primary
	require.Equal(t, NewKey(2, 0, 0),
		NewKey(1, 0xff, ^uint64(0)).Next())

	// successor is the immediately next encoded key
	k := NewKey(9, TypeExtent, 5)
	require.Negative(t, bytes.Compare(k.Encode(), k.Next().Encode()))
}
