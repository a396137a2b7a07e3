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

// Package yamabiko is an embedded, content-addressed key-value store whose
// durable state is a bare git repository. Every write produces a new
// immutable commit; readers resolve a branch to a tree and walk a hashed
// two-level fan-out path to the stored blob; branches model transactions
// that are later rebased onto main; named remotes receive asynchronous
// replica pushes; secondary indexes map field values back to object ids.
package yamabiko
