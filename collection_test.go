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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yamabiko/yamabiko/index"
)

func createDB(t *testing.T) *Collection {
	t.Helper()
	db, err := Create(t.TempDir(), nil)
	require.NoError(t, err)
	return db
}

func TestSetAndGet(t *testing.T) {
	db := createDB(t)
	_, _, err := db.Set("key", []byte("value"), Main())
	require.NoError(t, err)

	got, err := db.Get("key", Main())
	require.NoError(t, err)
	require.Equal(t, []byte("value"), got)
}

func TestBatchSetAndGet(t *testing.T) {
	db := createDB(t)
	_, _, err := db.SetBatch(map[string][]byte{
		"a": []byte("initial a value"),
		"b": []byte("initial b value"),
		"c": []byte("initial c value"),
	}, Main())
	require.NoError(t, err)

	for key, want := range map[string]string{
		"a": "initial a value",
		"b": "initial b value",
		"c": "initial c value",
	} {
		got, err := db.Get(key, Main())
		require.NoError(t, err)
		require.Equal(t, []byte(want), got)
	}

	_, _, err = db.SetBatch(map[string][]byte{
		"a": []byte("changed a value"),
		"b": []byte("initial b value"),
		"c": []byte("initial c value"),
	}, Main())
	require.NoError(t, err)

	got, err := db.Get("a", Main())
	require.NoError(t, err)
	require.Equal(t, []byte("changed a value"), got)
}

func TestGetNonExistentValue(t *testing.T) {
	db := createDB(t)
	got, err := db.Get("key", Main())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRevertNCommits(t *testing.T) {
	db := createDB(t)
	_, _, err := db.Set("a", []byte("initial a value"), Main())
	require.NoError(t, err)
	_, _, err = db.Set("b", []byte("initial b value"), Main())
	require.NoError(t, err)
	_, _, err = db.Set("b", []byte("changed b value"), Main())
	require.NoError(t, err)

	got, err := db.Get("b", Main())
	require.NoError(t, err)
	require.Equal(t, []byte("changed b value"), got)

	require.NoError(t, db.RevertNCommits(1))

	got, err = db.Get("b", Main())
	require.NoError(t, err)
	require.Equal(t, []byte("initial b value"), got)
}

func TestRevertToCommit(t *testing.T) {
	db := createDB(t)
	_, _, err := db.Set("a", []byte("initial a value"), Main())
	require.NoError(t, err)
	_, _, err = db.Set("a", []byte("change #1"), Main())
	require.NoError(t, err)
	_, _, err = db.Set("a", []byte("change #2"), Main())
	require.NoError(t, err)

	got, err := db.Get("a", Main())
	require.NoError(t, err)
	require.Equal(t, []byte("change #2"), got)

	head, err := db.repo.HeadCommit()
	require.NoError(t, err)
	headCommit, err := db.repo.FindCommit(head)
	require.NoError(t, err)
	parent, err := headCommit.Parent(0)
	require.NoError(t, err)
	firstCommit, err := parent.Parent(0)
	require.NoError(t, err)

	require.NoError(t, db.RevertToCommit(firstCommit.Hash))

	got, err = db.Get("a", Main())
	require.NoError(t, err)
	require.Equal(t, []byte("initial a value"), got)
}

func TestReplicaSameName(t *testing.T) {
	db := createDB(t)
	backupPath := t.TempDir()
	_, err := Create(backupPath, nil)
	require.NoError(t, err)

	require.NoError(t, db.AddReplica("test", backupPath, All(), nil))
	require.NoError(t, db.AddReplica("test", backupPath, All(), nil))
	require.Len(t, db.replicas, 1)
}

func TestReplicaAlreadyInGit(t *testing.T) {
	db := createDB(t)
	backupPath := t.TempDir()
	_, err := Create(backupPath, nil)
	require.NoError(t, err)

	require.NoError(t, db.repo.CreateRemote("test", backupPath))
	require.NoError(t, db.AddReplica("test", backupPath, All(), nil))
	require.Len(t, db.replicas, 1)
}

func TestReplicaSync(t *testing.T) {
	db := createDB(t)
	backupPath := t.TempDir()
	backup, err := Create(backupPath, nil)
	require.NoError(t, err)

	require.NoError(t, db.AddReplica("test", backupPath, All(), nil))
	require.Len(t, db.replicas, 1)

	_, tasks, err := db.Set("a", []byte("a value"), Main())
	require.NoError(t, err)
	for _, task := range tasks {
		require.NoError(t, task.Wait())
	}

	got, err := backup.Get("a", Main())
	require.NoError(t, err)
	require.Equal(t, []byte("a value"), got)
}

func TestReplicaNonExistingRepo(t *testing.T) {
	db := createDB(t)
	require.NoError(t, db.AddReplica("test", "https://800.800.800.800/git.git", All(), nil))
	require.Len(t, db.replicas, 1)

	_, tasks, err := db.Set("a", []byte("a value"), Main())
	require.NoError(t, err)
	for _, task := range tasks {
		require.Error(t, task.Wait())
	}
}

func TestSimpleTransaction(t *testing.T) {
	db := createDB(t)
	_, _, err := db.Set("a", []byte("a val"), Main())
	require.NoError(t, err)

	tx, err := db.NewTransaction("")
	require.NoError(t, err)
	_, _, err = db.Set("b", []byte("b val"), Transaction(tx))
	require.NoError(t, err)

	got, err := db.Get("b", Main())
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = db.Get("b", Transaction(tx))
	require.NoError(t, err)
	require.Equal(t, []byte("b val"), got)

	require.NoError(t, db.ApplyTransaction(tx, Overwrite))

	got, err = db.Get("b", Main())
	require.NoError(t, err)
	require.Equal(t, []byte("b val"), got)
}

func TestTransactionOverwrite(t *testing.T) {
	db := createDB(t)
	_, _, err := db.Set("a", []byte("INIT\nline2"), Main())
	require.NoError(t, err)

	tx, err := db.NewTransaction("")
	require.NoError(t, err)
	_, _, err = db.Set("a", []byte("TRAN\nline2"), Transaction(tx))
	require.NoError(t, err)
	_, _, err = db.Set("a", []byte("MAIN\nline2"), Main())
	require.NoError(t, err)

	got, err := db.Get("a", Main())
	require.NoError(t, err)
	require.Equal(t, []byte("MAIN\nline2"), got)

	got, err = db.Get("a", Transaction(tx))
	require.NoError(t, err)
	require.Equal(t, []byte("TRAN\nline2"), got)

	require.NoError(t, db.ApplyTransaction(tx, Overwrite))

	got, err = db.Get("a", Main())
	require.NoError(t, err)
	require.Equal(t, []byte("TRAN\nline2"), got)
}

func TestTransactionDiscard(t *testing.T) {
	db := createDB(t)
	_, _, err := db.Set("a", []byte("INIT\nline2"), Main())
	require.NoError(t, err)

	tx, err := db.NewTransaction("")
	require.NoError(t, err)
	_, _, err = db.Set("a", []byte("TRAN\nline2"), Transaction(tx))
	require.NoError(t, err)
	_, _, err = db.Set("a", []byte("MAIN\nline2"), Main())
	require.NoError(t, err)

	require.NoError(t, db.ApplyTransaction(tx, DiscardChanges))

	got, err := db.Get("a", Main())
	require.NoError(t, err)
	require.Equal(t, []byte("MAIN\nline2"), got)
}

func TestStructuralSharing(t *testing.T) {
	db := createDB(t)
	_, _, err := db.Set("a", []byte("a value"), Main())
	require.NoError(t, err)

	head, err := db.repo.HeadCommit()
	require.NoError(t, err)
	beforeCommit, err := db.repo.FindCommit(head)
	require.NoError(t, err)

	_, _, err = db.Set("b", []byte("b value"), Main())
	require.NoError(t, err)

	head, err = db.repo.HeadCommit()
	require.NoError(t, err)
	afterCommit, err := db.repo.FindCommit(head)
	require.NoError(t, err)

	require.NotEqual(t, beforeCommit.Hash, afterCommit.Hash)
	require.NotEqual(t, beforeCommit.TreeHash, afterCommit.TreeHash)

	// Every level-0 directory off the path to "b" is reused by object id.
	beforeTree, err := db.repo.FindTree(beforeCommit.TreeHash)
	require.NoError(t, err)
	afterTree, err := db.repo.FindTree(afterCommit.TreeHash)
	require.NoError(t, err)
	touched := oct(keyHash("b")[0])
	for _, e := range beforeTree.Entries {
		if e.Name == touched {
			continue
		}
		after, err := afterTree.FindEntry(e.Name)
		require.NoError(t, err)
		require.Equal(t, e.Hash, after.Hash)
	}
}

func TestPathDeterminism(t *testing.T) {
	h := keyHash("somekey")
	want := oct(h[0]) + "/" + oct(h[1]) + "/somekey"
	require.Equal(t, want, pathOfKey("somekey"))
}

func TestIndexWiredThroughCollection(t *testing.T) {
	db := createDB(t)
	objectID, _, err := db.Set("user:1", []byte(`{"age":42}`), Main())
	require.NoError(t, err)

	ageIndex := index.New("age#numeric.idx", "age", index.Numeric)
	require.NoError(t, db.CreateIndexEntry(ageIndex, objectID, index.IntField(42)))

	found, err := db.DeleteIndexEntry(ageIndex, objectID)
	require.NoError(t, err)
	require.True(t, found)

	found, err = db.DeleteIndexEntry(ageIndex, objectID)
	require.NoError(t, err)
	require.False(t, found)
}
