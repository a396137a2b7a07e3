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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	idxfmt "github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/pkg/errors"
)

// AuxIndex is a keyed-entry auxiliary file living outside the object store,
// at <repo>/.index/<name>. It reuses go-git's own index encoding (the
// format git itself uses for the worktree staging area) as a ready-made,
// well-tested keyed binary format: every secondary index entry becomes one
// idxfmt.Entry, with Name carrying the lookup key and Hash carrying the
// referenced object id. Inode and Dev carry the field-kind and index-kind
// discriminators respectively so a reader can classify an entry without a
// second lookup.
type AuxIndex struct {
	path  string
	index *idxfmt.Index
}

// OpenAuxIndex opens (or creates, if absent) the auxiliary index file for
// name under repoPath/.index/.
func OpenAuxIndex(repoPath, name string) (*AuxIndex, error) {
	dir := filepath.Join(repoPath, ".index")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "gitstore: create index directory")
	}
	path := filepath.Join(dir, name)

	idx := &idxfmt.Index{Version: 2}
	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		if derr := idxfmt.NewDecoder(f).Decode(idx); derr != nil {
			return nil, errors.Wrap(derr, "gitstore: decode index file")
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "gitstore: open index file")
	}

	return &AuxIndex{path: path, index: idx}, nil
}

// Put inserts or replaces the entry for key, recording objectID, the
// field-kind discriminator (ino) and the index-kind discriminator (dev).
func (a *AuxIndex) Put(key string, objectID plumbing.Hash, ino, dev uint32) {
	for _, e := range a.index.Entries {
		if e.Name == key {
			e.Hash = objectID
			e.Inode = ino
			e.Dev = dev
			return
		}
	}
	a.index.Entries = append(a.index.Entries, &idxfmt.Entry{
		Name:  key,
		Hash:  objectID,
		Inode: ino,
		Dev:   dev,
		Mode:  0o100644,
	})
}

// Delete removes the entry for key, if present.
func (a *AuxIndex) Delete(key string) {
	for i, e := range a.index.Entries {
		if e.Name == key {
			a.index.Entries = append(a.index.Entries[:i], a.index.Entries[i+1:]...)
			return
		}
	}
}

// Get returns the entry for an exact key match.
func (a *AuxIndex) Get(key string) (*idxfmt.Entry, bool) {
	for _, e := range a.index.Entries {
		if e.Name == key {
			return e, true
		}
	}
	return nil, false
}

// Prefix returns every entry whose key starts with prefix, sorted
// lexicographically by key. Since entries are stored with a
// descending-counter suffix, sorted order already yields newest-first
// iteration within a shared prefix.
func (a *AuxIndex) Prefix(prefix string) []*idxfmt.Entry {
	var out []*idxfmt.Entry
	for _, e := range a.index.Entries {
		if strings.HasPrefix(e.Name, prefix) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// All returns every entry, sorted lexicographically by key.
func (a *AuxIndex) All() []*idxfmt.Entry {
	out := make([]*idxfmt.Entry, len(a.index.Entries))
	copy(out, a.index.Entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Flush encodes and writes the index back to disk.
func (a *AuxIndex) Flush() error {
	tmp := a.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "gitstore: create index temp file")
	}
	if err := idxfmt.NewEncoder(f).Encode(a.index); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "gitstore: encode index file")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "gitstore: close index temp file")
	}
	if err := os.Rename(tmp, a.path); err != nil {
		return errors.Wrap(err, "gitstore: replace index file")
	}
	return nil
}
