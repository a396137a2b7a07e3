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

package gitstore

import (
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
)

// TreeBuilder accumulates entries for a single tree level and writes it as
// one new tree object, regardless of how many of its entries changed. The
// splice algorithm in the parent package drives one TreeBuilder per path
// segment so that only the path from the changed leaf to the repository
// root produces new objects; untouched siblings are copied over unchanged.
type TreeBuilder struct {
	repo    *Repository
	entries map[string]object.TreeEntry
}

// NewTreeBuilder creates an empty builder.
func NewTreeBuilder(repo *Repository) *TreeBuilder {
	return &TreeBuilder{repo: repo, entries: make(map[string]object.TreeEntry)}
}

// NewTreeBuilderFrom seeds a builder with the entries of an existing tree,
// so unrelated siblings survive a splice untouched.
func NewTreeBuilderFrom(repo *Repository, tree *object.Tree) *TreeBuilder {
	tb := NewTreeBuilder(repo)
	if tree != nil {
		for _, e := range tree.Entries {
			tb.entries[e.Name] = e
		}
	}
	return tb
}

// Insert adds or replaces an entry by name.
func (tb *TreeBuilder) Insert(name string, hash plumbing.Hash, mode filemode.FileMode) {
	tb.entries[name] = object.TreeEntry{Name: name, Hash: hash, Mode: mode}
}

// Remove deletes an entry by name, if present.
func (tb *TreeBuilder) Remove(name string) {
	delete(tb.entries, name)
}

// Get returns the entry with the given name, if present.
func (tb *TreeBuilder) Get(name string) (object.TreeEntry, bool) {
	e, ok := tb.entries[name]
	return e, ok
}

// Len reports the number of entries currently staged.
func (tb *TreeBuilder) Len() int { return len(tb.entries) }

// Write encodes and stores the tree, returning its hash. Entries are
// written in sorted order so the resulting hash is deterministic
// regardless of insertion order, matching git's own tree canonicalization.
func (tb *TreeBuilder) Write() (plumbing.Hash, error) {
	names := make([]string, 0, len(tb.entries))
	for name := range tb.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	tree := &object.Tree{Entries: make([]object.TreeEntry, 0, len(names))}
	for _, name := range names {
		tree.Entries = append(tree.Entries, tb.entries[name])
	}
	hash, err := tb.repo.writeTree(tree)
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "gitstore: write spliced tree")
	}
	return hash, nil
}
