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
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/yamabiko/yamabiko/index"
	"github.com/yamabiko/yamabiko/internal/gitstore"
)

// Collection is a handle to one physical repository plus its registered
// replicas. The repository handle is guarded by a single exclusive mutex:
// every read and write serializes on it, and replication tasks re-acquire
// it independently when they run.
type Collection struct {
	mu                sync.Mutex
	repo              *gitstore.Repository
	replicas          []Replica
	logger            logrus.FieldLogger
	cache             *readCache
	metrics           *metrics
	compressThreshold int
}

// Open opens an existing repository at path.
func Open(path string, opts *CollectionOptions) (*Collection, error) {
	repo, err := gitstore.Open(path)
	if err != nil {
		return nil, &CollectionInitError{Path: path, Err: err}
	}
	return newCollection(repo, opts), nil
}

// Create initializes a fresh bare repository at path with an initial empty
// commit on branch main.
func Create(path string, opts *CollectionOptions) (*Collection, error) {
	repo, err := gitstore.Create(path)
	if err != nil {
		return nil, &CollectionInitError{Path: path, Err: err}
	}
	return newCollection(repo, opts), nil
}

func newCollection(repo *gitstore.Repository, opts *CollectionOptions) *Collection {
	o := opts.withDefaults()
	return &Collection{
		repo:              repo,
		logger:            o.Logger,
		cache:             newReadCache(o.ReadCacheSize),
		metrics:           newMetrics(),
		compressThreshold: o.CompressionThreshold,
	}
}

// Metrics returns the Collection's prometheus collectors, for the caller
// to register with its own registry.
func (c *Collection) Metrics() []prometheus.Collector {
	return c.metrics.Collectors()
}

// Path returns the on-disk location of the underlying repository, the same
// path a secondary index's auxiliary file lives alongside (under
// <path>/.index/<name>). The index package's operations take this path
// directly; CreateIndexEntry and DeleteIndexEntry call them under the
// Collection's lock.
func (c *Collection) Path() string {
	return c.repo.Path()
}

// CreateIndexEntry adds objectID to idx under field's token and increments
// idx's index_entries_total gauge by one. It locks the
// same mutex every read and write serializes on, since the auxiliary index
// file lives alongside the object store it describes.
func (c *Collection) CreateIndexEntry(idx index.Index, objectID plumbing.Hash, field index.Field) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := idx.CreateEntry(c.repo.Path(), objectID, field); err != nil {
		return errors.Wrap(err, "yamabiko: create index entry")
	}
	c.metrics.indexEntriesTotal.WithLabelValues(idx.Name()).Inc()
	return nil
}

// DeleteIndexEntry removes the first entry in idx referencing objectID,
// reporting whether one was found.
func (c *Collection) DeleteIndexEntry(idx index.Index, objectID plumbing.Hash) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	found, err := idx.DeleteEntry(c.repo.Path(), objectID)
	if err != nil {
		return false, errors.Wrap(err, "yamabiko: delete index entry")
	}
	if found {
		c.metrics.indexEntriesTotal.WithLabelValues(idx.Name()).Dec()
	}
	return found, nil
}

// AddReplica registers a replication target. It is idempotent on name: if
// a replica with the same name is already registered, the call is a
// no-op.
func (c *Collection) AddReplica(name, url string, method ReplicationMethod, pushOptions *git.PushOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.replicas {
		if r.RemoteName == name {
			return nil
		}
	}
	found, err := c.repo.FindRemote(name)
	if err != nil {
		return errors.Wrap(err, "yamabiko: find remote")
	}
	if !found {
		if err := c.repo.CreateRemote(name, url); err != nil {
			return errors.Wrap(err, "yamabiko: create remote")
		}
	}
	c.replicas = append(c.replicas, Replica{
		RemoteName:  name,
		URL:         url,
		Method:      method,
		PushOptions: pushOptions,
	})
	return nil
}

// Get resolves key on target's branch and returns its decoded bytes, or
// (nil, nil) if the key is absent.
func (c *Collection) Get(key string, target OperationTarget) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	branch := target.branchName()
	commit, tree, ok, err := resolveBranch(c.repo, branch)
	if err != nil {
		return nil, &GetObjectError{Kind: ObjectStoreFailure, Key: key, Err: err}
	}
	if !ok {
		return nil, &GetObjectError{Kind: InvalidOperationTarget, Key: key}
	}

	if cached, hit := c.cache.get(branch, key, commit.Hash); hit {
		c.metrics.readsTotal.WithLabelValues("hit").Inc()
		return cached, nil
	}

	stored, found, isBlob, err := readBlobAtKey(c.repo, tree, key)
	c.metrics.readsTotal.WithLabelValues("miss").Inc()
	if err != nil {
		return nil, &GetObjectError{Kind: ObjectStoreFailure, Key: key, Err: err}
	}
	if !found {
		return nil, nil
	}
	if !isBlob {
		return nil, &GetObjectError{Kind: CorruptedObject, Key: key}
	}
	decoded, err := decodeBlob(stored)
	if err != nil {
		return nil, &GetObjectError{Kind: CorruptedObject, Key: key, Err: err}
	}
	c.cache.put(branch, key, commit.Hash, decoded)
	return decoded, nil
}

// Set writes a single key and replicates the resulting snapshot, returning
// the written blob's object id — the id a caller passes to
// Collection.CreateIndexEntry to index this write.
func (c *Collection) Set(key string, value []byte, target OperationTarget) (plumbing.Hash, map[string]*PushTask, error) {
	ids, tasks, err := c.SetBatch(map[string][]byte{key: value}, target)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}
	return ids[key], tasks, nil
}

// SetBatch writes every item in a single commit and replicates the
// resulting snapshot, returning each key's written blob object id. Iteration
// order over items is not guaranteed by Go maps; callers relying on
// deterministic last-write-wins across keys that collide on storage path
// should call Set repeatedly instead.
func (c *Collection) SetBatch(items map[string][]byte, target OperationTarget) (map[string]plumbing.Hash, map[string]*PushTask, error) {
	c.mu.Lock()

	branch := target.branchName()
	hash, ok, err := c.repo.FindBranch(branch)
	if err != nil {
		c.mu.Unlock()
		return nil, nil, errors.Wrap(err, "yamabiko: resolve branch for write")
	}
	if !ok {
		c.mu.Unlock()
		return nil, nil, &GetObjectError{Kind: InvalidOperationTarget}
	}
	commit, err := c.repo.FindCommit(hash)
	if err != nil {
		c.mu.Unlock()
		return nil, nil, errors.Wrap(err, "yamabiko: load branch commit")
	}
	tree, err := c.repo.FindTree(commit.TreeHash)
	if err != nil {
		c.mu.Unlock()
		return nil, nil, errors.Wrap(err, "yamabiko: load branch tree")
	}

	ids := make(map[string]plumbing.Hash, len(items))
	for key, value := range items {
		encoded := encodeBlob(value, c.compressThreshold)
		blobHash, err := c.repo.WriteBlob(encoded)
		if err != nil {
			c.mu.Unlock()
			return nil, nil, errors.Wrap(err, "yamabiko: write blob")
		}
		newRoot, err := spliceKey(c.repo, tree, key, blobHash)
		if err != nil {
			c.mu.Unlock()
			return nil, nil, err
		}
		tree, err = c.repo.FindTree(newRoot)
		if err != nil {
			c.mu.Unlock()
			return nil, nil, errors.Wrap(err, "yamabiko: reload spliced tree")
		}
		ids[key] = blobHash
	}

	rootHash, err := c.repo.WriteTree(tree)
	if err != nil {
		c.mu.Unlock()
		return nil, nil, errors.Wrap(err, "yamabiko: persist root tree")
	}
	if _, err := writeSnapshot(c.repo, branch, rootHash, hash); err != nil {
		c.mu.Unlock()
		return nil, nil, err
	}
	c.metrics.writesTotal.Inc()
	c.logger.WithFields(logrusFields(branch, len(items))).Info(fmt.Sprintf(
		"write committed: %s key(s)", humanize.Comma(int64(len(items)))))

	replicas := append([]Replica(nil), c.replicas...)
	mu := &c.mu
	repo := c.repo
	logger := c.logger
	m := c.metrics
	mu.Unlock()

	return ids, replicate(mu, repo, replicas, logger, m), nil
}

// NewTransaction creates a transaction branch forked from the current tip
// of main, returning its name. If name is empty, a name of the form
// "t-XXXXXXXX" (8 alphanumeric characters after the prefix) is generated.
func (c *Collection) NewTransaction(name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return newTransaction(c.repo, name)
}

// ApplyTransaction rebases the named transaction branch onto main under
// resolution, deleting the transaction branch when finished.
func (c *Collection) ApplyTransaction(name string, resolution ConflictResolution) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := applyTransaction(c.repo, name, resolution)
	result := "applied"
	if err != nil {
		result = "aborted"
	}
	c.metrics.transactionAppliesTotal.WithLabelValues(resolution.String(), result).Inc()
	c.logger.WithFields(logrus.Fields{
		"transaction": name,
		"resolution":  resolution.String(),
		"result":      result,
	}).Info("transaction apply finished")
	return err
}

// RevertNCommits walks n commits back from main's HEAD and soft-resets
// main there. See revertNCommits for the exact traversal semantics.
func (c *Collection) RevertNCommits(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return revertNCommits(c.repo, n)
}

// RevertToCommit soft-resets main to commit. It checks only that the
// commit exists, not that it lies on main's history.
func (c *Collection) RevertToCommit(commit plumbing.Hash) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return revertToCommit(c.repo, commit)
}

func logrusFields(branch string, count int) logrus.Fields {
	return logrus.Fields{"branch": branch, "keys": count}
}
