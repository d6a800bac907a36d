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

	"github.com/scoutfs/metaquery/query"
	"github.com/scoutfs/metaquery/store"
	"github.com/scoutfs/metaquery/util/limiter"
)

type Config struct {
	StoreConfig store.Config        `json:"store_config"`
	Limit       limiter.LimitConfig `json:"limit"`

	// CapabilitySecret elevates a request that presents it to path
	// reconstruction access.  AllowPathQueries skips the check
	// entirely, for trusted single-tenant deployments.
	CapabilitySecret string `json:"capability_secret"`
	AllowPathQueries bool   `json:"allow_path_queries"`
}

type Server struct {
	cfg     *Config
	store   *store.Store
	engine  *query.Engine
	limiter limiter.Limiter
}

func NewServer(ctx context.Context, cfg *Config) (*Server, error) {
	st, err := store.NewStore(ctx, &cfg.StoreConfig)
	if err != nil {
		return nil, err
	}

	engine := query.NewEngine(&query.Config{
		Index: st.Index(),
		Caps:  contextCaps{},
	})

	return &Server{
		cfg:     cfg,
		store:   st,
		engine:  engine,
		limiter: limiter.NewLimiter(cfg.Limit),
	}, nil
}

func (s *Server) Engine() *query.Engine {
	return s.engine
}

func (s *Server) Store() *store.Store {
	return s.store
}

func (s *Server) Close() {
	s.store.Close()
}

// elevate tags ctx with path reconstruction access when the request
// presented the capability secret.
func (s *Server) elevate(ctx context.Context, token string) context.Context {
	if s.cfg.AllowPathQueries {
		return WithElevatedAccess(ctx)
	}
	if s.cfg.CapabilitySecret != "" && token == s.cfg.CapabilitySecret {
		return WithElevatedAccess(ctx)
	}
	return ctx
}
