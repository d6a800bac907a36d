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

// Package client talks to a metaquery server over its http api.
package client

import (
	"context"
	"fmt"

	"github.com/cubefs/cubefs/blobstore/common/rpc"

	"github.com/scoutfs/metaquery/proto"
	"github.com/scoutfs/metaquery/server"
)

type Config struct {
	Address string `json:"address"`

	// BufLen caps the result size of every query issued through this
	// client.  Zero lets the server pick its default.
	BufLen uint32 `json:"buf_len"`

	// Capability unlocks path reconstruction on servers that gate it.
	Capability string `json:"capability"`
}

type Client struct {
	cfg  Config
	http rpc.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: rpc.NewClient(&rpc.Config{}),
	}
}

func (c *Client) Address() string {
	return c.cfg.Address
}

// InodesSince lists inodes in [firstIno, lastIno] whose metadata
// changed at or after seq, with the stamp of each change.
func (c *Client) InodesSince(ctx context.Context, firstIno, lastIno proto.Ino, seq proto.Seq) ([]proto.InoSeq, error) {
	return c.since(ctx, "/v1/inodes/since", firstIno, lastIno, seq)
}

// InodeDataSince is InodesSince over file data changes instead of
// metadata changes.
func (c *Client) InodeDataSince(ctx context.Context, firstIno, lastIno proto.Ino, seq proto.Seq) ([]proto.InoSeq, error) {
	return c.since(ctx, "/v1/data/since", firstIno, lastIno, seq)
}

func (c *Client) since(ctx context.Context, path string, firstIno, lastIno proto.Ino, seq proto.Seq) ([]proto.InoSeq, error) {
	args := &server.SinceArgs{
		InodesSinceRequest: proto.InodesSinceRequest{
			FirstIno: firstIno,
			LastIno:  lastIno,
			Seq:      seq,
		},
		BufLen: c.cfg.BufLen,
	}
	var ret []proto.InoSeq
	if err := c.http.PostWith(ctx, c.url(path), &ret, args); err != nil {
		return nil, err
	}
	return ret, nil
}

// FindXattrNames lists inodes in [firstIno, lastIno] carrying an xattr
// with the given name, capped at count results.
func (c *Client) FindXattrNames(ctx context.Context, name []byte, firstIno, lastIno proto.Ino, count uint64) ([]proto.Ino, error) {
	return c.findXattrs(ctx, "/v1/xattrs/name", name, firstIno, lastIno, count)
}

// FindXattrValues is FindXattrNames keyed on xattr values.
func (c *Client) FindXattrValues(ctx context.Context, value []byte, firstIno, lastIno proto.Ino, count uint64) ([]proto.Ino, error) {
	return c.findXattrs(ctx, "/v1/xattrs/value", value, firstIno, lastIno, count)
}

func (c *Client) findXattrs(ctx context.Context, path string, key []byte, firstIno, lastIno proto.Ino, count uint64) ([]proto.Ino, error) {
	args := &server.XattrArgs{
		FindXattrsRequest: proto.FindXattrsRequest{
			Key:      key,
			FirstIno: firstIno,
			LastIno:  lastIno,
			Count:    count,
		},
		BufLen: c.cfg.BufLen,
	}
	var ret []proto.Ino
	if err := c.http.PostWith(ctx, c.url(path), &ret, args); err != nil {
		return nil, err
	}
	return ret, nil
}

// InodePaths lists every path from the root to ino, one per hard link.
func (c *Client) InodePaths(ctx context.Context, ino proto.Ino) ([]string, error) {
	args := &server.PathsArgs{
		InodePathsRequest: proto.InodePathsRequest{Ino: ino},
		BufLen:            c.cfg.BufLen,
		Capability:        c.cfg.Capability,
	}
	ret := &server.PathsRet{}
	if err := c.http.PostWith(ctx, c.url("/v1/paths"), ret, args); err != nil {
		return nil, err
	}
	return ret.Paths, nil
}

// Stats reports the server's engine and limiter state.
func (c *Client) Stats(ctx context.Context) (*server.StatsRet, error) {
	ret := &server.StatsRet{}
	if err := c.http.GetWith(ctx, c.url("/stats"), ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("http://%s%s", c.cfg.Address, path)
}
