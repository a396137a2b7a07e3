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

package index

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"

	"github.com/yamabiko/yamabiko/internal/gitstore"
)

// Kind classifies what field types an Index accepts.
type Kind int

const (
	// Numeric indexes accept Int and Float fields.
	Numeric Kind = iota
	// Sequential indexes accept String fields.
	Sequential
	// Collection indexes are reserved; no field kind currently maps to
	// them. Declared for wire-format completeness, not load-bearing.
	Collection
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Sequential:
		return "sequential"
	case Collection:
		return "collection"
	default:
		return "unknown"
	}
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "numeric":
		return Numeric, nil
	case "sequential":
		return Sequential, nil
	case "collection":
		return Collection, nil
	default:
		return 0, errors.Errorf("index: no such index kind %q", s)
	}
}

// Index is a per-field auxiliary lookup structure: (name, indexed field,
// kind). Its entries live in a file at <repo>/.index/<name>, distinct
// from the main object tree.
type Index struct {
	name         string
	indexedField string
	kind         Kind
}

// New constructs an Index descriptor. It does not touch disk; the entry
// operations open the auxiliary file themselves.
func New(name, indexedField string, kind Kind) Index {
	return Index{name: name, indexedField: indexedField, kind: kind}
}

// FromName parses an index descriptor from its wire-format name:
// "<field>#<kind>.<suffix>".
func FromName(name string) (Index, error) {
	base, _, hasSuffix := cutLastDot(name)
	if !hasSuffix {
		return Index{}, errors.Errorf("index: malformed index name %q: missing suffix", name)
	}
	field, kindStr, hasHash := cutLastHash(base)
	if !hasHash {
		return Index{}, errors.Errorf("index: malformed index name %q: missing '#'", name)
	}
	kind, err := parseKind(kindStr)
	if err != nil {
		return Index{}, err
	}
	return Index{name: name, indexedField: field, kind: kind}, nil
}

func cutLastDot(s string) (before, after string, ok bool) {
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

func cutLastHash(s string) (before, after string, ok bool) {
	i := strings.LastIndexByte(s, '#')
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

// Name returns the index's on-disk/wire-format name.
func (idx Index) Name() string { return idx.name }

// IndexedField returns the name of the field this index is keyed on.
func (idx Index) IndexedField() string { return idx.indexedField }

// Kind returns the index's declared kind.
func (idx Index) Kind() Kind { return idx.kind }

// IndexesGivenField is the capability predicate: Numeric indexes accept
// Int and Float fields, Sequential indexes accept String fields,
// Collection indexes accept none.
func (idx Index) IndexesGivenField(field Field) bool {
	switch idx.kind {
	case Numeric:
		return field.kind == fieldInt || field.kind == fieldFloat
	case Sequential:
		return field.kind == fieldString
	default:
		return false
	}
}

// open returns the auxiliary index file for idx under repoPath.
func (idx Index) open(repoPath string) (*gitstore.AuxIndex, error) {
	return gitstore.OpenAuxIndex(repoPath, idx.name)
}

// CreateEntry inserts a new entry mapping objectID under field's token, at
// a descending-counter suffix one less than the most-recently-inserted
// entry sharing that token (or starting from the maximum 64-bit value if
// none exists yet), then persists the index.
func (idx Index) CreateEntry(repoPath string, objectID plumbing.Hash, field Field) error {
	aux, err := idx.open(repoPath)
	if err != nil {
		return err
	}
	token := field.ToIndexToken()

	next := uint64(1<<64 - 1)
	if entries := aux.Prefix(token + "/"); len(entries) > 0 {
		// Prefix returns entries sorted ascending by key, and counters
		// strictly decrease with each insertion, so the most recently
		// inserted entry — the one the next counter must be derived from —
		// sorts first, not last.
		newest := entries[0]
		counter, err := parseCounterSuffix(newest.Name)
		if err != nil {
			return err
		}
		next = counter - 1
	}

	key := fmt.Sprintf("%s/%016x", token, next)
	aux.Put(key, objectID, field.ToInoNumber(), uint32(idx.kind))
	return aux.Flush()
}

// DeleteEntry removes the first entry with a matching object id, via a
// linear scan, and reports whether one was found. O(n) in the number of
// entries; acknowledged cost per the index's design.
func (idx Index) DeleteEntry(repoPath string, objectID plumbing.Hash) (bool, error) {
	aux, err := idx.open(repoPath)
	if err != nil {
		return false, err
	}
	found := false
	for _, e := range aux.All() {
		if e.Hash == objectID {
			aux.Delete(e.Name)
			found = true
			break
		}
	}
	if err := aux.Flush(); err != nil {
		return false, err
	}
	return found, nil
}

func parseCounterSuffix(path string) (uint64, error) {
	if len(path) < 16 {
		return 0, errors.Errorf("index: malformed entry path %q: too short for counter suffix", path)
	}
	suffix := path[len(path)-16:]
	var v uint64
	if _, err := fmt.Sscanf(suffix, "%016x", &v); err != nil {
		return 0, errors.Wrapf(err, "index: parse counter suffix %q", suffix)
	}
	return v, nil
}

// ExtractValue returns the value-token segment of an entry's key: the
// counter suffix is always the final '/'-separated segment; for ino 1
// (simple tokens, never containing '/') the remaining prefix is the whole
// token, but for any other ino (compound-keyed tokens) only the segment
// immediately preceding the counter is returned — matching the original
// implementation's rsplitn(n, '/').nth(1) behavior, which recovers the
// full token only when it has no internal '/' of its own.
func ExtractValue(name string, ino uint32) (string, error) {
	n := 3
	if ino == 1 {
		n = 2
	}
	parts := rsplitN(name, "/", n)
	if len(parts) < 2 {
		return "", errors.Errorf("index: entry key %q has fewer than %d segments", name, n)
	}
	return parts[1], nil
}

// rsplitN splits s on sep from the right into at most n pieces, mirroring
// Rust's str::rsplitn: the first n-1 pieces are single segments taken
// from the end, and the final piece is whatever remains unsplit (which
// may itself still contain sep).
func rsplitN(s, sep string, n int) []string {
	if n <= 0 {
		return nil
	}
	parts := make([]string, 0, n)
	rest := s
	for len(parts) < n-1 {
		idx := strings.LastIndex(rest, sep)
		if idx < 0 {
			break
		}
		parts = append(parts, rest[idx+len(sep):])
		rest = rest[:idx]
	}
	parts = append(parts, rest)
	return parts
}
