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

package server

import "context"

type elevatedKey struct{}

// WithElevatedAccess marks ctx as allowed to reconstruct paths without
// traversal permission checks.
func WithElevatedAccess(ctx context.Context) context.Context {
	return context.WithValue(ctx, elevatedKey{}, true)
}

// contextCaps reads the elevation mark back out for the query engine.
type contextCaps struct{}

func (contextCaps) HasElevatedAccess(ctx context.Context) bool {
	v, _ := ctx.Value(elevatedKey{}).(bool)
	return v
}
