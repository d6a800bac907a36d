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

// Package limiter bounds how many index scans run at once and how fast
// their result bytes stream out.  Scans hold a store snapshot for
// their whole duration, so the concurrency cap also bounds pinned
// snapshots.
package limiter

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

type (
	Limiter interface {
		AcquireQuery() error
		ReleaseQuery()
		Writer(ctx context.Context, w io.Writer) LimitWriter
		SetQueryConcurrency(value uint32)
		SetResultMBPS(mbps int)
		GetConfig() *LimitConfig
		Status() Status
	}
	LimitWriter interface {
		WaitN(n int) error
		io.Writer
	}
	CountLimit interface {
		Running() int
		Acquire() error
		Release()
		SetLimit(limit uint32)
	}
	LimitConfig struct {
		QueryConcurrency int `json:"query_concurrency"`
		ResultMBPS       int `json:"result_mbps"`
	}
	Status struct {
		Config       LimitConfig
		QueryRunning int
		ResultWait   int
	}
	writer struct {
		ctx        context.Context
		rate       *rate.Limiter
		underlying io.Writer
	}
	noopLimitWriter struct {
		underlying io.Writer
	}
	limiter struct {
		config          LimitConfig
		queryCountLimit CountLimit
		rateWriter      *rate.Limiter
	}
)

func (w *writer) Write(p []byte) (n int, err error) {
	if err = w.rate.WaitN(w.ctx, len(p)); err != nil {
		return 0, err
	}
	n, err = w.underlying.Write(p)
	return
}

func (w *writer) WaitN(n int) error {
	return w.rate.WaitN(w.ctx, n)
}

func (nw *noopLimitWriter) Write(p []byte) (n int, err error) {
	return nw.underlying.Write(p)
}

func (nw *noopLimitWriter) WaitN(n int) error {
	return nil
}

func NewLimiter(cfg LimitConfig) Limiter {
	mb := 1 << 20
	limiter := &limiter{}
	if cfg.QueryConcurrency > 0 {
		limiter.queryCountLimit = NewCountLimit(cfg.QueryConcurrency)
	}
	if cfg.ResultMBPS > 0 {
		limiter.rateWriter = rate.NewLimiter(rate.Limit(cfg.ResultMBPS*mb), cfg.ResultMBPS*mb)
	}
	limiter.config = cfg

	return limiter
}

func (lim *limiter) AcquireQuery() error {
	if lim.queryCountLimit != nil {
		return lim.queryCountLimit.Acquire()
	}
	return nil
}

func (lim *limiter) ReleaseQuery() {
	if lim.queryCountLimit != nil {
		lim.queryCountLimit.Release()
	}
}

func (lim *limiter) Writer(ctx context.Context, w io.Writer) LimitWriter {
	if lim.rateWriter != nil {
		return &writer{
			ctx:        ctx,
			rate:       lim.rateWriter,
			underlying: w,
		}
	}
	return &noopLimitWriter{underlying: w}
}

func (lim *limiter) SetQueryConcurrency(value uint32) {
	if lim.queryCountLimit == nil {
		lim.queryCountLimit = NewCountLimit(int(value))
	} else {
		lim.queryCountLimit.SetLimit(value)
	}
	lim.config.QueryConcurrency = int(value)
}

func (lim *limiter) SetResultMBPS(mbps int) {
	mb := 1 << 20
	if lim.rateWriter == nil {
		lim.rateWriter = rate.NewLimiter(rate.Limit(mbps*mb), mbps*mb)
	} else {
		lim.rateWriter.SetLimit(rate.Limit(mbps * mb))
		lim.rateWriter.SetBurst(mbps * mb)
	}
	lim.config.ResultMBPS = mbps
}

func (lim *limiter) GetConfig() *LimitConfig {
	return &lim.config
}

func (lim *limiter) Status() Status {
	st := Status{
		Config: lim.config,
	}

	if lim.queryCountLimit != nil {
		st.QueryRunning = lim.queryCountLimit.Running()
	}
	if lim.rateWriter != nil {
		st.ResultWait = rateWait(lim.rateWriter)
	}

	return st
}

func rateWait(r *rate.Limiter) int {
	if r == nil {
		return 0
	}
	now := time.Now()
	reserve := r.ReserveN(now, int(r.Limit())/2)
	duration := reserve.DelayFrom(now)
	reserve.Cancel()
	return int(duration.Milliseconds())
}

const minusOne = ^uint32(0)

type countLimit struct {
	limit   uint32
	current uint32
}

// NewCountLimit returns limiter with concurrent n
func NewCountLimit(n int) CountLimit {
	return &countLimit{limit: uint32(n)}
}

func (l *countLimit) Running() int {
	return int(atomic.LoadUint32(&l.current))
}

func (l *countLimit) Acquire() error {
	if atomic.AddUint32(&l.current, 1) > atomic.LoadUint32(&l.limit) {
		atomic.AddUint32(&l.current, minusOne)
		return errors.New("limit exceeded")
	}
	return nil
}

func (l *countLimit) Release() {
	atomic.AddUint32(&l.current, minusOne)
}

func (l *countLimit) SetLimit(limit uint32) {
	atomic.StoreUint32(&l.limit, limit)
}
