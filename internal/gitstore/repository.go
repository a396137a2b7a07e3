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
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
)

// CanonicalName and CanonicalEmail are the author/committer identity used
// for every commit this package creates.
const (
	CanonicalName  = "yamabiko"
	CanonicalEmail = "yamabiko"
)

// MainBranch is the branch created by Create and used as the default
// replication and revert target.
const MainBranch = "main"

// Repository wraps a bare go-git repository behind the primitives the core
// storage engine consumes. Callers are responsible for serializing access;
// this type has no internal locking of its own.
type Repository struct {
	repo *git.Repository
	path string
}

// Open opens an existing bare repository at path.
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, errors.Wrap(err, "gitstore: open repository")
	}
	return &Repository{repo: repo, path: path}, nil
}

// Create initializes a fresh bare repository at path with an empty initial
// commit on MainBranch.
func Create(path string) (*Repository, error) {
	repo, err := git.PlainInit(path, true)
	if err != nil {
		return nil, errors.Wrap(err, "gitstore: init bare repository")
	}
	r := &Repository{repo: repo, path: path}

	emptyTree := &object.Tree{}
	treeHash, err := r.writeTree(emptyTree)
	if err != nil {
		return nil, errors.Wrap(err, "gitstore: write empty tree")
	}

	commitHash, err := r.CreateCommit(treeHash, nil, "init")
	if err != nil {
		return nil, errors.Wrap(err, "gitstore: create initial commit")
	}

	if err := r.SetBranchTarget(MainBranch, commitHash, "init"); err != nil {
		return nil, errors.Wrap(err, "gitstore: create main branch")
	}
	if err := r.setHead(MainBranch); err != nil {
		return nil, errors.Wrap(err, "gitstore: set HEAD")
	}
	return r, nil
}

// Path returns the repository's on-disk location.
func (r *Repository) Path() string { return r.path }

func (r *Repository) setHead(branch string) error {
	ref := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))
	return r.repo.Storer.SetReference(ref)
}

// WriteBlob stores bytes as a blob object and returns its hash.
func (r *Repository) WriteBlob(data []byte) (plumbing.Hash, error) {
	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "gitstore: open blob writer")
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return plumbing.ZeroHash, errors.Wrap(err, "gitstore: write blob")
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "gitstore: close blob writer")
	}
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "gitstore: store blob")
	}
	return hash, nil
}

// ReadBlob returns the content of the blob at hash.
func (r *Repository) ReadBlob(hash plumbing.Hash) ([]byte, error) {
	blob, err := object.GetBlob(r.repo.Storer, hash)
	if err != nil {
		return nil, errors.Wrap(err, "gitstore: read blob")
	}
	rd, err := blob.Reader()
	if err != nil {
		return nil, errors.Wrap(err, "gitstore: open blob reader")
	}
	defer rd.Close()
	buf := make([]byte, blob.Size)
	if _, err := readFull(rd, buf); err != nil {
		return nil, errors.Wrap(err, "gitstore: drain blob")
	}
	return buf, nil
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			if total == len(buf) {
				return total, nil
			}
			return total, err
		}
	}
	return total, nil
}

// FindTree looks up a tree object by hash.
func (r *Repository) FindTree(hash plumbing.Hash) (*object.Tree, error) {
	tree, err := object.GetTree(r.repo.Storer, hash)
	if err != nil {
		return nil, errors.Wrap(err, "gitstore: find tree")
	}
	return tree, nil
}

func (r *Repository) writeTree(tree *object.Tree) (plumbing.Hash, error) {
	obj := r.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "gitstore: encode tree")
	}
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "gitstore: store tree")
	}
	return hash, nil
}

// WriteTree persists a tree built up by the caller (e.g. via the splice
// algorithm in the parent package) and returns its hash.
func (r *Repository) WriteTree(tree *object.Tree) (plumbing.Hash, error) {
	return r.writeTree(tree)
}

// FindCommit looks up a commit object by hash.
func (r *Repository) FindCommit(hash plumbing.Hash) (*object.Commit, error) {
	commit, err := object.GetCommit(r.repo.Storer, hash)
	if err != nil {
		return nil, errors.Wrap(err, "gitstore: find commit")
	}
	return commit, nil
}

// CreateCommit builds and stores a commit object with the canonical
// yamabiko signature. An empty parents slice produces a root commit.
func (r *Repository) CreateCommit(tree plumbing.Hash, parents []plumbing.Hash, message string) (plumbing.Hash, error) {
	sig := object.Signature{
		Name:  CanonicalName,
		Email: CanonicalEmail,
		// UTC, not local time: the signature's timestamp must be current
		// Unix seconds at offset 0, matching the zero-offset commit times
		// the original implementation writes.
		When: time.Now().UTC(),
	}
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     tree,
		ParentHashes: parents,
	}
	obj := r.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "gitstore: encode commit")
	}
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "gitstore: store commit")
	}
	return hash, nil
}

// FindBranch resolves a branch name to its current commit hash. ok is false
// if the branch does not exist.
func (r *Repository) FindBranch(name string) (hash plumbing.Hash, ok bool, err error) {
	ref, err := r.repo.Storer.Reference(plumbing.NewBranchReferenceName(name))
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return plumbing.ZeroHash, false, nil
		}
		return plumbing.ZeroHash, false, errors.Wrap(err, "gitstore: find branch")
	}
	return ref.Hash(), true, nil
}

// SetBranchTarget moves (or creates) a branch ref to point at commit.
// go-git does not maintain a textual reflog, so reflogMessage is accepted
// but not recorded anywhere.
func (r *Repository) SetBranchTarget(name string, commit plumbing.Hash, _reflogMessage string) error {
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), commit)
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return errors.Wrap(err, "gitstore: set branch target")
	}
	return nil
}

// DeleteBranch removes a branch ref.
func (r *Repository) DeleteBranch(name string) error {
	if err := r.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(name)); err != nil {
		return errors.Wrap(err, "gitstore: delete branch")
	}
	return nil
}

// HeadCommit resolves HEAD to its commit hash.
func (r *Repository) HeadCommit() (plumbing.Hash, error) {
	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "gitstore: resolve HEAD")
	}
	if head.Type() == plumbing.SymbolicReference {
		head, err = r.repo.Storer.Reference(head.Target())
		if err != nil {
			return plumbing.ZeroHash, errors.Wrap(err, "gitstore: resolve HEAD target")
		}
	}
	return head.Hash(), nil
}

// FindRemote looks up a configured remote by name. ok is false if none
// exists.
func (r *Repository) FindRemote(name string) (ok bool, err error) {
	_, err = r.repo.Remote(name)
	if err != nil {
		if err == git.ErrRemoteNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "gitstore: find remote")
	}
	return true, nil
}

// CreateRemote registers a new remote.
func (r *Repository) CreateRemote(name, url string) error {
	_, err := r.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		return errors.Wrap(err, "gitstore: create remote")
	}
	return nil
}

// PushOptions mirrors the subset of go-git's push options yamabiko plumbs
// through from a Replica's configured push_options.
type PushOptions = git.PushOptions

// Push pushes MainBranch to the named remote.
func (r *Repository) Push(remoteName string, opts *PushOptions) error {
	o := opts
	if o == nil {
		o = &git.PushOptions{}
	}
	o.RemoteName = remoteName
	if len(o.RefSpecs) == 0 {
		o.RefSpecs = []config.RefSpec{
			config.RefSpec("refs/heads/" + MainBranch + ":refs/heads/" + MainBranch),
		}
	}
	err := r.repo.Push(o)
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return errors.Wrap(err, "gitstore: push")
	}
	return nil
}
