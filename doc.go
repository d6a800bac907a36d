/*
 *
 * Copyright 2023 The MetaQuery Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

/*

# MetaQuery: a filesystem metadata index query service

## Why a metadata index?

Crawling a large filesystem to find what changed, or which files carry a
given attribute, touches every inode. MetaQuery keeps secondary indexes
of inode metadata in an ordered key-value store so those questions
become short range scans:

1, which inodes changed since a point in the modification history

2, which inodes carry an extended attribute with a given name or value

3, every path that leads to an inode, one per hard link

## Data Model

* Index entry, a (primary, type, secondary) triple encoded so the byte
  order of encoded keys is the order of the triples

* Sequence stamp, every indexed record carries the modification
  sequence it was last updated at

* Backref, <ino, counter> --> <parent ino, name>, the link records that
  path reconstruction walks back to the root

## Architecture

A single server owns one ordered key-value store. Queries run against a
stable snapshot of the store, so a scan never sees a half-applied
update. Results are packed into a caller-bounded buffer; the scanners
return as much as fits and the caller resumes from the last record it
saw.

Endpoints are served via a RESTful API.

### Storage

one store has a single rocksdb instance; badger and an in-memory engine
are available for embedding and tests

## Building Blocks

* Rocksdb
* Badger
* Prometheus

*/

package metaquery
