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

package errors

import "errors"

// The query boundary returns exactly one of these classes per call.
// Range exhaustion is not an error; scans fold it into a success
// return with whatever was accumulated.
var (
	// ErrInvalidArgument rejects malformed ranges, oversized strings,
	// oversized counts and oversized buffers before any scan starts.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBufferTooSmall reports destination buffer exhaustion.  The
	// scanners swallow it and report partial success; path
	// reconstruction propagates it since a truncated path would
	// corrupt the terminator-delimited stream.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrTransfer reports a failed copy into the destination, as
	// opposed to the destination merely being full.  Partial output
	// must not be trusted after it.
	ErrTransfer = errors.New("result transfer failed")

	// ErrPermissionDenied rejects path reconstruction without the
	// elevated capability.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotSupported rejects an unrecognized query kind.
	ErrNotSupported = errors.New("unsupported query")

	// ErrExceedConcurrency throttles a query that would push the
	// server past its configured concurrency.
	ErrExceedConcurrency = errors.New("exceed concurrency")
)
