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

package yamabiko

import (
	"github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"
)

// OperationTarget selects the branch a read or write operates against.
type OperationTarget struct {
	transaction string
	isMain      bool
}

// Main targets the canonical "main" branch.
func Main() OperationTarget { return OperationTarget{isMain: true} }

// Transaction targets the branch owned by a transaction of the given name.
func Transaction(name string) OperationTarget { return OperationTarget{transaction: name} }

func (t OperationTarget) branchName() string {
	if t.isMain {
		return mainBranch
	}
	return t.transaction
}

// ConflictResolution controls how ApplyTransaction resolves a file-level
// conflict between the transaction branch and main.
type ConflictResolution int

const (
	// Overwrite takes the transaction side on conflict.
	Overwrite ConflictResolution = iota
	// DiscardChanges takes the main side on conflict.
	DiscardChanges
	// Abort fails the apply on the first conflict.
	Abort
)

func (c ConflictResolution) String() string {
	switch c {
	case Overwrite:
		return "overwrite"
	case DiscardChanges:
		return "discard_changes"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// ReplicationMethod selects which replicas receive a push on a given write.
type ReplicationMethod struct {
	random bool
	p      float64
}

// All always pushes to the replica.
func All() ReplicationMethod { return ReplicationMethod{} }

// Random pushes when a single draw shared across all Random replicas in a
// fan-out is greater than p. p must be in [0, 1]; p = 0 always pushes,
// p = 1 never pushes.
func Random(p float64) ReplicationMethod { return ReplicationMethod{random: true, p: p} }

// Replica is a configured push target for asynchronous replication.
type Replica struct {
	RemoteName  string
	URL         string
	Method      ReplicationMethod
	PushOptions *git.PushOptions
}

// CollectionOptions configures ambient behavior of a Collection that the
// spec's data model leaves to the embedding application: the logger
// receiving structured entries, the read-cache capacity, and the blob
// compression threshold.
type CollectionOptions struct {
	// Logger receives one structured entry per write, transaction apply,
	// and replication task outcome. Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger

	// ReadCacheSize bounds the number of (branch, key, commit) -> bytes
	// entries kept in the LRU read cache. Zero selects the default of 256;
	// a negative value disables caching entirely.
	ReadCacheSize int

	// CompressionThreshold is the minimum blob size, in bytes, at which
	// values are snappy-compressed before being stored. Defaults to 1024.
	CompressionThreshold int
}

func (o *CollectionOptions) withDefaults() CollectionOptions {
	out := CollectionOptions{}
	if o != nil {
		out = *o
	}
	if out.Logger == nil {
		out.Logger = logrus.StandardLogger()
	}
	if out.ReadCacheSize == 0 {
		out.ReadCacheSize = defaultReadCacheSize
	}
	if out.CompressionThreshold == 0 {
		out.CompressionThreshold = defaultCompressionThreshold
	}
	return out
}

const mainBranch = "main"
const defaultReadCacheSize = 256
const defaultCompressionThreshold = 1024
