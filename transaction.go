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
	"crypto/rand"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/pkg/errors"

	"github.com/yamabiko/yamabiko/internal/gitstore"
)

const transactionNameAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newTransactionName generates a branch name in the "t-XXXXXXXX" format
// used when the caller does not supply a name: "t-" followed by 8
// characters drawn uniformly from transactionNameAlphabet.
func newTransactionName() (string, error) {
	// Random bytes at or above limit are rejected so that the modulo below
	// maps onto every alphabet character with equal probability.
	limit := 256 - 256%len(transactionNameAlphabet)
	buf := make([]byte, 1)
	var b strings.Builder
	b.WriteString("t-")
	for b.Len() < len("t-")+8 {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, "yamabiko: generate transaction name")
		}
		if int(buf[0]) >= limit {
			continue
		}
		b.WriteByte(transactionNameAlphabet[int(buf[0])%len(transactionNameAlphabet)])
	}
	return b.String(), nil
}

// newTransaction creates (or force-resets) a branch at the current tip of
// main and returns its name.
func newTransaction(repo *gitstore.Repository, name string) (string, error) {
	if name == "" {
		generated, err := newTransactionName()
		if err != nil {
			return "", err
		}
		name = generated
	}
	head, err := repo.HeadCommit()
	if err != nil {
		return "", errors.Wrap(err, "yamabiko: resolve HEAD for new transaction")
	}
	if err := repo.SetBranchTarget(name, head, "new transaction"); err != nil {
		return "", errors.Wrap(err, "yamabiko: create transaction branch")
	}
	return name, nil
}

// applyTransaction performs an in-memory rebase of the transaction branch
// onto main: each commit unique to the transaction is replayed, one at a
// time, as a new commit on top of main's evolving tip, resolving any
// file-level conflict per resolution. The transaction branch is deleted
// once finished, whether or not any commit was produced.
func applyTransaction(repo *gitstore.Repository, name string, resolution ConflictResolution) error {
	mainHash, ok, err := repo.FindBranch(mainBranch)
	if err != nil {
		return errors.Wrap(err, "yamabiko: resolve main for apply")
	}
	if !ok {
		return errors.New("yamabiko: main branch does not exist")
	}
	mainCommit, err := repo.FindCommit(mainHash)
	if err != nil {
		return errors.Wrap(err, "yamabiko: load main commit")
	}

	txHash, ok, err := repo.FindBranch(name)
	if err != nil {
		return errors.Wrap(err, "yamabiko: resolve transaction branch")
	}
	if !ok {
		return errors.Errorf("yamabiko: transaction %q does not exist", name)
	}
	txCommit, err := repo.FindCommit(txHash)
	if err != nil {
		return errors.Wrap(err, "yamabiko: load transaction commit")
	}

	forkBase, err := mergeBase(txCommit, mainCommit)
	if err != nil {
		return errors.Wrap(err, "yamabiko: find transaction fork point")
	}

	commits, err := commitsSince(repo, txCommit, forkBase.Hash)
	if err != nil {
		return errors.Wrap(err, "yamabiko: walk transaction history")
	}

	lastCommit := mainHash
	produced := false
	for _, c := range commits {
		parentTree, err := parentTreeOf(repo, c)
		if err != nil {
			return errors.Wrap(err, "yamabiko: resolve parent tree")
		}
		childTree, err := repo.FindTree(c.TreeHash)
		if err != nil {
			return errors.Wrap(err, "yamabiko: resolve transaction tree")
		}
		changes, err := object.DiffTree(parentTree, childTree)
		if err != nil {
			return errors.Wrap(err, "yamabiko: diff transaction commit")
		}

		currentCommit, err := repo.FindCommit(lastCommit)
		if err != nil {
			return errors.Wrap(err, "yamabiko: resolve rebase tip commit")
		}
		currentTree, err := repo.FindTree(currentCommit.TreeHash)
		if err != nil {
			return errors.Wrap(err, "yamabiko: resolve rebase tip tree")
		}

		newTree, changed, err := applyChanges(repo, currentTree, parentTree, changes, resolution)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		newCommit, err := repo.CreateCommit(newTree, []plumbing.Hash{lastCommit}, updateDBMessage)
		if err != nil {
			return errors.Wrap(err, "yamabiko: create rebased commit")
		}
		lastCommit = newCommit
		produced = true
	}

	if produced {
		if err := repo.SetBranchTarget(mainBranch, lastCommit, updateDBMessage); err != nil {
			return errors.Wrap(err, "yamabiko: advance main after apply")
		}
	}
	if err := repo.DeleteBranch(name); err != nil {
		return errors.Wrap(err, "yamabiko: delete transaction branch")
	}
	return nil
}

// applyChanges replays one transaction commit's file-level changes onto
// ours (the current rebase tip tree), treating base (the transaction
// commit's own parent tree) as the common ancestor for three-way conflict
// detection: a path conflicts when both ours and the transaction's commit
// diverge from base at that path.
func applyChanges(repo *gitstore.Repository, ours, base *object.Tree, changes object.Changes, resolution ConflictResolution) (plumbing.Hash, bool, error) {
	tree := ours
	changed := false
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return plumbing.ZeroHash, false, errors.Wrap(err, "yamabiko: classify change")
		}

		var path string
		var theirsHash plumbing.Hash
		var theirsIsDelete bool
		switch action {
		case merkletrie.Insert, merkletrie.Modify:
			path = change.To.Name
			theirsHash = change.To.TreeEntry.Hash
		case merkletrie.Delete:
			path = change.From.Name
			theirsIsDelete = true
		default:
			continue
		}
		key := lastPathSegment(path)

		baseHash, baseFound, err := blobHashAt(base, key)
		if err != nil {
			return plumbing.ZeroHash, false, err
		}
		oursHash, oursFound, err := blobHashAt(tree, key)
		if err != nil {
			return plumbing.ZeroHash, false, err
		}

		oursDiverged := oursFound != baseFound || (oursFound && baseFound && oursHash != baseHash)

		applyTheirs := true
		if oursDiverged {
			switch resolution {
			case Overwrite:
				applyTheirs = true
			case DiscardChanges:
				applyTheirs = false
			case Abort:
				return plumbing.ZeroHash, false, errors.Errorf("yamabiko: conflict applying transaction at key %q", key)
			}
		}

		if !applyTheirs {
			continue
		}

		var newRoot plumbing.Hash
		if theirsIsDelete {
			newRoot, err = spliceRemoveKey(repo, tree, key)
		} else {
			newRoot, err = spliceKey(repo, tree, key, theirsHash)
		}
		if err != nil {
			return plumbing.ZeroHash, false, err
		}
		tree, err = repo.FindTree(newRoot)
		if err != nil {
			return plumbing.ZeroHash, false, errors.Wrap(err, "yamabiko: reload spliced tree")
		}
		changed = true
	}
	hash, err := repo.WriteTree(tree)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	return hash, changed, nil
}

func lastPathSegment(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

func blobHashAt(tree *object.Tree, key string) (plumbing.Hash, bool, error) {
	if tree == nil {
		return plumbing.ZeroHash, false, nil
	}
	entry, err := tree.FindEntry(pathOfKey(key))
	if err != nil {
		return plumbing.ZeroHash, false, nil
	}
	return entry.Hash, true, nil
}

func parentTreeOf(repo *gitstore.Repository, c *object.Commit) (*object.Tree, error) {
	if c.NumParents() == 0 {
		return &object.Tree{}, nil
	}
	parent, err := c.Parent(0)
	if err != nil {
		return nil, err
	}
	return repo.FindTree(parent.TreeHash)
}

func mergeBase(a, b *object.Commit) (*object.Commit, error) {
	bases, err := a.MergeBase(b)
	if err != nil {
		return nil, err
	}
	if len(bases) == 0 {
		return nil, errors.New("yamabiko: no common ancestor between transaction and main")
	}
	return bases[0], nil
}

// commitsSince walks first-parent history from tip back to (exclusive)
// stopAt, returning the unique commits oldest-first. Transaction branches
// are always linear chains of single-parent commits produced by the
// Snapshot Writer, so first-parent traversal is exact, not a heuristic.
func commitsSince(repo *gitstore.Repository, tip *object.Commit, stopAt plumbing.Hash) ([]*object.Commit, error) {
	var reversed []*object.Commit
	cur := tip
	for cur.Hash != stopAt {
		reversed = append(reversed, cur)
		if cur.NumParents() == 0 {
			break
		}
		parent, err := cur.Parent(0)
		if err != nil {
			return nil, err
		}
		cur = parent
	}
	out := make([]*object.Commit, len(reversed))
	for i, c := range reversed {
		out[len(reversed)-1-i] = c
	}
	return out, nil
}
