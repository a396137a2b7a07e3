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

	"github.com/go-git/go-git/v5/plumbing"
)

// CollectionInitError wraps a failure to open or initialize the underlying
// repository.
type CollectionInitError struct {
	Path string
	Err  error
}

func (e *CollectionInitError) Error() string {
	return fmt.Sprintf("yamabiko: failed to initialize collection at %q: %v", e.Path, e.Err)
}

func (e *CollectionInitError) Unwrap() error { return e.Err }

// GetObjectErrorKind distinguishes the structured GetObjectError variants.
type GetObjectErrorKind int

const (
	// InvalidOperationTarget means the named branch does not exist.
	InvalidOperationTarget GetObjectErrorKind = iota
	// CorruptedObject means the entry at the resolved path is not a blob.
	CorruptedObject
	// ObjectStoreFailure wraps an underlying object-store read failure.
	ObjectStoreFailure
)

// GetObjectError is returned by Collection.Get when a read cannot be
// completed.
type GetObjectError struct {
	Kind GetObjectErrorKind
	Key  string
	Err  error
}

func (e *GetObjectError) Error() string {
	switch e.Kind {
	case InvalidOperationTarget:
		return fmt.Sprintf("yamabiko: operation target does not exist (key %q)", e.Key)
	case CorruptedObject:
		return fmt.Sprintf("yamabiko: object at key %q is not a blob", e.Key)
	default:
		return fmt.Sprintf("yamabiko: failed to read key %q: %v", e.Key, e.Err)
	}
}

func (e *GetObjectError) Unwrap() error { return e.Err }

// RevertError is returned by RevertNCommits when history cannot be
// traversed unambiguously.
type RevertError struct {
	Commit plumbing.Hash
	Err    error
}

func (e *RevertError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("yamabiko: revert failed: %v", e.Err)
	}
	return fmt.Sprintf("yamabiko: commit %s has more than one parent", e.Commit)
}

func (e *RevertError) Unwrap() error { return e.Err }

// IsBranchingHistory reports whether err is a RevertError caused by
// encountering a merge commit during traversal (Err == nil in that case,
// since the condition is itself the failure rather than a wrapped cause).
func IsBranchingHistory(err error) bool {
	re, ok := err.(*RevertError)
	return ok && re.Err == nil
}
