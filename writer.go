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
	"github.com/pkg/errors"

	"github.com/yamabiko/yamabiko/internal/gitstore"
)

const updateDBMessage = "update db"

// writeSnapshot composes a new commit over tree with the given parent and
// advances branch to point at it. This is the only call site that moves a
// branch ref for an ordinary write.
func writeSnapshot(repo *gitstore.Repository, branch string, tree plumbing.Hash, parent plumbing.Hash) (plumbing.Hash, error) {
	var parents []plumbing.Hash
	if parent != plumbing.ZeroHash {
		parents = []plumbing.Hash{parent}
	}
	commit, err := repo.CreateCommit(tree, parents, updateDBMessage)
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "yamabiko: create commit")
	}
	if err := repo.SetBranchTarget(branch, commit, updateDBMessage); err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "yamabiko: advance branch")
	}
	return commit, nil
}
