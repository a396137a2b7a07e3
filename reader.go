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
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/yamabiko/yamabiko/internal/gitstore"
)

// resolveBranch returns the commit and tree currently at the tip of
// branch. ok is false if the branch does not exist.
func resolveBranch(repo *gitstore.Repository, branch string) (commit *object.Commit, tree *object.Tree, ok bool, err error) {
	hash, found, err := repo.FindBranch(branch)
	if err != nil {
		return nil, nil, false, err
	}
	if !found {
		return nil, nil, false, nil
	}
	commit, err = repo.FindCommit(hash)
	if err != nil {
		return nil, nil, false, err
	}
	tree, err = repo.FindTree(commit.TreeHash)
	if err != nil {
		return nil, nil, false, err
	}
	return commit, tree, true, nil
}

// readBlobAtKey walks tree by key's computed path and returns the raw
// stored bytes (still codec-tagged) of the leaf blob. found is false if
// any path segment is absent. isBlob is false if the resolved entry exists
// but is not a blob (e.g. a directory, which should never legitimately
// occur on this path but is defended against by returning CorruptedObject).
func readBlobAtKey(repo *gitstore.Repository, tree *object.Tree, key string) (data []byte, found bool, isBlob bool, err error) {
	path := pathOfKey(key)
	entry, err := tree.FindEntry(path)
	if err != nil {
		return nil, false, true, nil
	}
	if entry.Mode != filemode.Regular && entry.Mode != filemode.Executable {
		return nil, true, false, nil
	}
	data, err = repo.ReadBlob(entry.Hash)
	if err != nil {
		return nil, true, false, err
	}
	return data, true, true, nil
}
