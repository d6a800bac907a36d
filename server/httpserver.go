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

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/profile"
	"github.com/cubefs/cubefs/blobstore/common/rpc"
	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apierrors "github.com/scoutfs/metaquery/errors"
	"github.com/scoutfs/metaquery/metrics"
	"github.com/scoutfs/metaquery/proto"
	"github.com/scoutfs/metaquery/util"
	"github.com/scoutfs/metaquery/util/limiter"
)

const (
	defaultShutdownTimeoutS      = 10
	defaultReadRequestTimeoutS   = 30
	defaultWriteResponseTimeoutS = 30

	defaultBufLen = 256 << 10
)

type (
	SinceArgs struct {
		proto.InodesSinceRequest
		BufLen uint32 `json:"buf_len"`
	}
	XattrArgs struct {
		proto.FindXattrsRequest
		BufLen uint32 `json:"buf_len"`
	}
	PathsArgs struct {
		proto.InodePathsRequest
		BufLen     uint32 `json:"buf_len"`
		Capability string `json:"capability"`
	}
	PathsRet struct {
		Paths []string `json:"paths"`
	}
	StatsRet struct {
		Engine string         `json:"engine"`
		Limit  limiter.Status `json:"limit"`
	}
)

type HttpServer struct {
	httpServer *http.Server

	*Server
}

func NewHttpServer(server *Server) *HttpServer {
	return &HttpServer{Server: server}
}

func (h *HttpServer) Serve(addr string) {
	ph := profile.NewProfileHandler(addr)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      rpc.MiddlewareHandlerWith(h.newHandler(), ph),
		ReadTimeout:  defaultReadRequestTimeoutS * time.Second,
		WriteTimeout: defaultWriteResponseTimeoutS * time.Second,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server exits:", err)
		}
	}()
	h.httpServer = httpServer

	log.Info("http server is running at:", addr)
}

func (h *HttpServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeoutS*time.Second)
	defer cancel()

	h.httpServer.Shutdown(ctx)
}

// Handler is the bare route stack, for embedding into an existing mux
// and for tests.  Routes register on the process-wide default router,
// so build at most one HttpServer per process.
func (h *HttpServer) Handler() http.Handler {
	return rpc.MiddlewareHandlerWith(h.newHandler())
}

func (h *HttpServer) newHandler() *rpc.Router {
	rpc.POST("/v1/inodes/since", h.InodesSince, rpc.OptArgsBody())
	rpc.POST("/v1/data/since", h.InodeDataSince, rpc.OptArgsBody())
	rpc.POST("/v1/xattrs/name", h.FindXattrNames, rpc.OptArgsBody())
	rpc.POST("/v1/xattrs/value", h.FindXattrValues, rpc.OptArgsBody())
	rpc.POST("/v1/paths", h.InodePaths, rpc.OptArgsBody())
	rpc.GET("/stats", h.Stats, rpc.OptArgsQuery())
	rpc.GET("/metrics", h.Metrics)

	return rpc.DefaultRouter
}

func (h *HttpServer) InodesSince(c *rpc.Context) {
	h.since(c, proto.InodesSinceQuery{})
}

func (h *HttpServer) InodeDataSince(c *rpc.Context) {
	h.since(c, proto.InodeDataSinceQuery{})
}

func (h *HttpServer) since(c *rpc.Context, kind proto.Query) {
	args := new(SinceArgs)
	if err := c.ParseArgs(args); err != nil {
		h.replyError(c, apierrors.ErrInvalidArgument)
		return
	}

	var q proto.Query
	switch kind.(type) {
	case proto.InodeDataSinceQuery:
		q = proto.InodeDataSinceQuery{InodesSinceRequest: args.InodesSinceRequest}
	default:
		q = proto.InodesSinceQuery{InodesSinceRequest: args.InodesSinceRequest}
	}

	buf, n, err := h.run(c.Request.Context(), q, args.BufLen)
	if buf != nil {
		defer util.PutBuffer(buf)
	}
	if err != nil {
		h.replyError(c, err)
		return
	}
	c.RespondJSON(proto.DecodeInoSeqs(buf[:n]))
}

func (h *HttpServer) FindXattrNames(c *rpc.Context) {
	h.findXattrs(c, true)
}

func (h *HttpServer) FindXattrValues(c *rpc.Context) {
	h.findXattrs(c, false)
}

func (h *HttpServer) findXattrs(c *rpc.Context, byName bool) {
	args := new(XattrArgs)
	if err := c.ParseArgs(args); err != nil {
		h.replyError(c, apierrors.ErrInvalidArgument)
		return
	}

	var q proto.Query
	if byName {
		q = proto.FindXattrNameQuery{FindXattrsRequest: args.FindXattrsRequest}
	} else {
		q = proto.FindXattrValueQuery{FindXattrsRequest: args.FindXattrsRequest}
	}

	buf, n, err := h.run(c.Request.Context(), q, args.BufLen)
	if buf != nil {
		defer util.PutBuffer(buf)
	}
	if err != nil {
		h.replyError(c, err)
		return
	}
	c.RespondJSON(proto.DecodeInos(buf[:n]))
}

func (h *HttpServer) InodePaths(c *rpc.Context) {
	args := new(PathsArgs)
	if err := c.ParseArgs(args); err != nil {
		h.replyError(c, apierrors.ErrInvalidArgument)
		return
	}

	token := args.Capability
	if token == "" {
		token = c.Request.Header.Get("X-Meta-Capability")
	}
	ctx := h.elevate(c.Request.Context(), token)
	q := proto.InodePathsQuery{InodePathsRequest: args.InodePathsRequest}

	buf, n, err := h.run(ctx, q, args.BufLen)
	if buf != nil {
		defer util.PutBuffer(buf)
	}
	if err != nil {
		h.replyError(c, err)
		return
	}
	c.RespondJSON(&PathsRet{Paths: proto.DecodePaths(buf[:n])})
}

// run allocates the destination buffer and drives one query through
// the engine, recording metrics along the way.
func (h *HttpServer) run(ctx context.Context, q proto.Query, bufLen uint32) ([]byte, int, error) {
	span := trace.SpanFromContextSafe(ctx)
	kind := proto.Kind(q)

	if bufLen == 0 {
		bufLen = defaultBufLen
	}
	if bufLen > proto.MaxBufLen {
		return nil, 0, apierrors.ErrInvalidArgument
	}

	if err := h.limiter.AcquireQuery(); err != nil {
		span.Warnf("%s throttled: %s", kind, err)
		metrics.QueryCounter.WithLabelValues(kind, "throttled").Inc()
		return nil, 0, apierrors.ErrExceedConcurrency
	}
	defer h.limiter.ReleaseQuery()

	buf := util.GetBuffer(int(bufLen))

	start := time.Now()
	n, err := h.engine.Do(ctx, q, buf)
	metrics.QueryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		span.Errorf("%s failed: %s", kind, err)
		metrics.QueryCounter.WithLabelValues(kind, "error").Inc()
		return buf, 0, err
	}

	// pace the result stream before it goes out
	lw := h.limiter.Writer(ctx, io.Discard)
	for waited := 0; waited < n; {
		chunk := n - waited
		if chunk > 1<<20 {
			chunk = 1 << 20
		}
		if err := lw.WaitN(chunk); err != nil {
			span.Errorf("%s result pacing aborted: %s", kind, err)
			metrics.QueryCounter.WithLabelValues(kind, "error").Inc()
			return buf, 0, err
		}
		waited += chunk
	}

	metrics.QueryCounter.WithLabelValues(kind, "ok").Inc()
	metrics.ResultBytes.WithLabelValues(kind).Add(float64(n))
	return buf, n, nil
}

func (h *HttpServer) Stats(c *rpc.Context) {
	c.RespondJSON(&StatsRet{
		Engine: h.cfg.StoreConfig.Engine.String(),
		Limit:  h.limiter.Status(),
	})
}

func (h *HttpServer) Metrics(c *rpc.Context) {
	promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{
		Registry: metrics.Registry,
	}).ServeHTTP(c.Writer, c.Request)
}

func (h *HttpServer) replyError(c *rpc.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apierrors.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, apierrors.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, apierrors.ErrBufferTooSmall):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, apierrors.ErrNotSupported):
		status = http.StatusNotFound
	case errors.Is(err, apierrors.ErrExceedConcurrency):
		status = http.StatusTooManyRequests
	}
	c.RespondWith(status, "text/plain", []byte(err.Error()))
}
