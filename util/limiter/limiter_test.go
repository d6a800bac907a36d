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

package limiter

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterConcurrency(t *testing.T) {
	l := NewLimiter(LimitConfig{QueryConcurrency: 1})

	err := l.AcquireQuery()
	require.NoError(t, err)
	err = l.AcquireQuery()
	require.Equal(t, errors.New("limit exceeded"), err)

	l.SetQueryConcurrency(2)
	time.Sleep(10 * time.Millisecond)
	err = l.AcquireQuery()
	require.NoError(t, err)

	l.ReleaseQuery()
	l.ReleaseQuery()
	require.Equal(t, 0, l.Status().QueryRunning)
}

func TestLimiterWriter(t *testing.T) {
	l := NewLimiter(LimitConfig{ResultMBPS: 1})

	ctx := context.TODO()
	var wg sync.WaitGroup
	worker := 2
	wg.Add(worker)
	var n int64 = 0
	for i := 0; i < worker; i++ {
		go func() {
			defer wg.Done()
			w := l.Writer(ctx, &bytes.Buffer{})
			b := make([]byte, 1<<19)
			_, err := w.Write(b)
			require.NoError(t, err)
			atomic.AddInt64(&n, 1)
		}()
	}
	wg.Wait()
	require.Equal(t, int64(worker), n)
}

func TestLimiterNoop(t *testing.T) {
	l := NewLimiter(LimitConfig{})
	require.NoError(t, l.AcquireQuery())
	l.ReleaseQuery()

	w := l.Writer(context.TODO(), &bytes.Buffer{})
	require.NoError(t, w.WaitN(1<<30))
}
