// Copyright 2026 The Yamabiko Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package gitstore is the thin adapter over go-git that exposes exactly the
// object-store primitives the yamabiko core consumes: open/init a bare
// repository, write blobs, splice trees, create signed commits, move branch
// refs, and push to a remote. Everything in this package is plumbing; the
// storage-engine semantics (fan-out layout, transactions, rebase, revert,
// replication policy, indexes) live in the parent package.
package gitstore
