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
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"

	"github.com/yamabiko/yamabiko/internal/gitstore"
)

// spliceKey assembles a new root tree that differs from root only along
// the path to key, reusing every other subtree unchanged. It touches
// exactly three tree objects: the level-1 (leaf-parent) tree, the level-0
// tree, and the root tree.
func spliceKey(repo *gitstore.Repository, root *object.Tree, key string, blob plumbing.Hash) (plumbing.Hash, error) {
	h := keyHash(key)
	level0Name := oct(h[0])
	level1Name := oct(h[1])

	level0Tree, err := subtree(repo, root, level0Name)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	level1Tree, err := subtree(repo, level0Tree, level1Name)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	level1Builder := gitstore.NewTreeBuilderFrom(repo, level1Tree)
	level1Builder.Insert(key, blob, filemode.Regular)
	level1Hash, err := level1Builder.Write()
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "yamabiko: write level-1 tree")
	}

	level0Builder := gitstore.NewTreeBuilderFrom(repo, level0Tree)
	level0Builder.Insert(level1Name, level1Hash, filemode.Dir)
	level0Hash, err := level0Builder.Write()
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "yamabiko: write level-0 tree")
	}

	rootBuilder := gitstore.NewTreeBuilderFrom(repo, root)
	rootBuilder.Insert(level0Name, level0Hash, filemode.Dir)
	rootHash, err := rootBuilder.Write()
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "yamabiko: write root tree")
	}
	return rootHash, nil
}

// spliceRemoveKey is the deletion counterpart of spliceKey: it removes
// key's leaf entry from the tree chain on its path, reusing every other
// subtree unchanged. It is used when replaying a transaction commit that
// deleted a key.
func spliceRemoveKey(repo *gitstore.Repository, root *object.Tree, key string) (plumbing.Hash, error) {
	h := keyHash(key)
	level0Name := oct(h[0])
	level1Name := oct(h[1])

	level0Tree, err := subtree(repo, root, level0Name)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	level1Tree, err := subtree(repo, level0Tree, level1Name)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if level1Tree == nil {
		hash, err := repo.WriteTree(root)
		return hash, err
	}

	level1Builder := gitstore.NewTreeBuilderFrom(repo, level1Tree)
	level1Builder.Remove(key)
	level1Hash, err := level1Builder.Write()
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "yamabiko: write level-1 tree")
	}

	level0Builder := gitstore.NewTreeBuilderFrom(repo, level0Tree)
	level0Builder.Insert(level1Name, level1Hash, filemode.Dir)
	level0Hash, err := level0Builder.Write()
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "yamabiko: write level-0 tree")
	}

	rootBuilder := gitstore.NewTreeBuilderFrom(repo, root)
	rootBuilder.Insert(level0Name, level0Hash, filemode.Dir)
	rootHash, err := rootBuilder.Write()
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "yamabiko: write root tree")
	}
	return rootHash, nil
}

// subtree returns the tree named by entry name under parent, or nil if
// parent has no such entry (an empty builder is then seeded by the
// caller). parent may itself be nil, meaning "no tree yet".
func subtree(repo *gitstore.Repository, parent *object.Tree, name string) (*object.Tree, error) {
	if parent == nil {
		return nil, nil
	}
	entry, err := parent.FindEntry(name)
	if err != nil {
		return nil, nil
	}
	tree, err := repo.FindTree(entry.Hash)
	if err != nil {
		return nil, errors.Wrapf(err, "yamabiko: resolve subtree %q", name)
	}
	return tree, nil
}
