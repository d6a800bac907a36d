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
	"fmt"
	"io"

	apierrors "github.com/scoutfs/metaquery/errors"
)

// Writer copies fixed size records into a capped destination.  Every
// scanner serializes through one of these instead of doing its own
// offset arithmetic.
//
// Writes are all or nothing: a record larger than the remaining
// capacity is rejected with ErrBufferTooSmall and nothing is written.
// A failed copy into the destination is the distinct ErrTransfer
// class; output already flushed before it cannot be trusted.
type Writer struct {
	dst   io.Writer
	space int
	n     int
}

func NewWriter(dst io.Writer, capacity int) *Writer {
	return &Writer{dst: dst, space: capacity}
}

func (w *Writer) WriteRecord(p []byte) error {
	if len(p) > w.space {
		return apierrors.ErrBufferTooSmall
	}
	if _, err := w.dst.Write(p); err != nil {
		return fmt.Errorf("%w: %v", apierrors.ErrTransfer, err)
	}
	w.space -= len(p)
	w.n += len(p)
	return nil
}

// Len returns the bytes written so far.
func (w *Writer) Len() int {
	return w.n
}

// Remaining returns the capacity left.
func (w *Writer) Remaining() int {
	return w.space
}

// sliceWriter adapts a caller owned buffer to io.Writer.  The Writer
// capacity equals the slice length, so writes never overrun.
type sliceWriter struct {
	buf []byte
	off int
}

func (sw *sliceWriter) Write(p []byte) (int, error) {
	n := copy(sw.buf[sw.off:], p)
	sw.off += n
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func newSliceWriter(dest []byte) (*Writer, *sliceWriter) {
	sw := &sliceWriter{buf: dest}
	return NewWriter(sw, len(dest)), sw
}
