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

// revertNCommits walks n steps backward from main's HEAD along the first
// parent and soft-resets main to the resulting commit. If a commit with
// more than one parent is encountered, the walk stops and returns a
// RevertError carrying that commit's hash (history is not a simple chain,
// so "n commits ago" is ambiguous). If a root commit is reached before n
// steps, the walk stops there instead of failing.
func revertNCommits(repo *gitstore.Repository, n int) error {
	if n == 0 {
		return nil
	}
	head, err := repo.HeadCommit()
	if err != nil {
		return errors.Wrap(err, "yamabiko: resolve HEAD for revert")
	}
	target, err := repo.FindCommit(head)
	if err != nil {
		return errors.Wrap(err, "yamabiko: load HEAD commit")
	}
	for i := 0; i < n; i++ {
		if target.NumParents() > 1 {
			return &RevertError{Commit: target.Hash}
		}
		if target.NumParents() == 0 {
			break
		}
		parent, err := target.Parent(0)
		if err != nil {
			return errors.Wrap(err, "yamabiko: walk parent history")
		}
		target = parent
	}
	if err := repo.SetBranchTarget(mainBranch, target.Hash, "revert"); err != nil {
		return errors.Wrap(err, "yamabiko: soft reset main")
	}
	return nil
}

// revertToCommit soft-resets main to commit without validating the
// traversal.
func revertToCommit(repo *gitstore.Repository, commit plumbing.Hash) error {
	if _, err := repo.FindCommit(commit); err != nil {
		return errors.Wrap(err, "yamabiko: resolve revert target")
	}
	if err := repo.SetBranchTarget(mainBranch, commit, "revert"); err != nil {
		return errors.Wrap(err, "yamabiko: soft reset main")
	}
	return nil
}
