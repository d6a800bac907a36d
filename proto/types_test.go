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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodePaths(t *testing.T) {
	require.Equal(t, []string{"a/b/c", "a/d/c"},
		DecodePaths([]byte("a/b/c\x00a/d/c\x00\x00")))

	// an empty result set is just the list terminator
	require.Empty(t, DecodePaths([]byte("\x00")))
	require.Empty(t, DecodePaths(nil))
}

func TestQueryKind(t *testing.T) {
	require.Equal(t, "inodes_since", Kind(InodesSinceQuery{}))
	require.Equal(t, "inode_data_since", Kind(InodeDataSinceQuery{}))
	require.Equal(t, "find_xattr_name", Kind(FindXattrNameQuery{}))
	require.Equal(t, "find_xattr_value", Kind(FindXattrValueQuery{}))
	require.Equal(t, "inode_paths", Kind(InodePathsQuery{}))
	require.Equal(t, "none", Kind(nil))
}
