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
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
)

func TestIndexNameRoundTrip(t *testing.T) {
	idx := New("age#numeric.idx", "age", Numeric)
	require.Equal(t, "age#numeric.idx", idx.Name())

	parsed, err := FromName("age#numeric.idx")
	require.NoError(t, err)
	require.Equal(t, "age", parsed.IndexedField())
	require.Equal(t, Numeric, parsed.Kind())
}

func TestFromNameRejectsMalformed(t *testing.T) {
	_, err := FromName("noSuffixHere")
	require.Error(t, err)

	_, err = FromName("noHashHere.idx")
	require.Error(t, err)

	_, err = FromName("age#bogus.idx")
	require.Error(t, err)
}

func TestIndexesGivenField(t *testing.T) {
	numeric := New("age#numeric.idx", "age", Numeric)
	require.True(t, numeric.IndexesGivenField(IntField(5)))
	require.True(t, numeric.IndexesGivenField(FloatField(5.5)))
	require.False(t, numeric.IndexesGivenField(StringField("x")))

	sequential := New("name#sequential.idx", "name", Sequential)
	require.True(t, sequential.IndexesGivenField(StringField("x")))
	require.False(t, sequential.IndexesGivenField(IntField(5)))

	collection := New("group#collection.idx", "group", Collection)
	require.False(t, collection.IndexesGivenField(IntField(5)))
	require.False(t, collection.IndexesGivenField(StringField("x")))
}

func TestCreateAndDeleteEntry(t *testing.T) {
	repoPath := t.TempDir()
	idx := New("age#numeric.idx", "age", Numeric)

	obj1 := plumbing.NewHash("1111111111111111111111111111111111111111")
	obj2 := plumbing.NewHash("2222222222222222222222222222222222222222")
	obj3 := plumbing.NewHash("3333333333333333333333333333333333333333")

	require.NoError(t, idx.CreateEntry(repoPath, obj1, IntField(42)))
	require.NoError(t, idx.CreateEntry(repoPath, obj2, IntField(42)))
	require.NoError(t, idx.CreateEntry(repoPath, obj3, IntField(42)))

	aux, err := idx.open(repoPath)
	require.NoError(t, err)
	entries := aux.Prefix("42/")
	// A third insertion into the same bucket must add a distinct entry,
	// not silently overwrite the second one by deriving its counter from
	// the wrong (oldest) end of the sorted bucket.
	require.Len(t, entries, 3)

	// Each new entry gets a smaller counter suffix than the one before it,
	// so the newest entry sorts first lexicographically.
	require.Equal(t, obj3, entries[0].Hash)
	require.Equal(t, obj2, entries[1].Hash)
	require.Equal(t, obj1, entries[2].Hash)

	found, err := idx.DeleteEntry(repoPath, obj1)
	require.NoError(t, err)
	require.True(t, found)

	found, err = idx.DeleteEntry(repoPath, obj1)
	require.NoError(t, err)
	require.False(t, found)
}

func TestExtractValueSimpleToken(t *testing.T) {
	repoPath := t.TempDir()
	idx := New("age#numeric.idx", "age", Numeric)
	obj := plumbing.NewHash("3333333333333333333333333333333333333333")
	require.NoError(t, idx.CreateEntry(repoPath, obj, IntField(42)))

	aux, err := idx.open(repoPath)
	require.NoError(t, err)
	entries := aux.All()
	require.Len(t, entries, 1)

	value, err := ExtractValue(entries[0].Name, entries[0].Inode)
	require.NoError(t, err)
	require.Equal(t, "42", value)
}

func TestExtractValueCompoundTokenPartialRecovery(t *testing.T) {
	// A String field's token may itself contain '/'. ExtractValue's ino != 1
	// path only recovers the single segment immediately preceding the
	// counter suffix, not the full original token — this mirrors a
	// limitation in the original rsplitn-based extraction rather than
	// fixing it.
	name := "team/backend/0000000000000001"
	value, err := ExtractValue(name, 2)
	require.NoError(t, err)
	require.Equal(t, "backend", value)
}

func TestRsplitN(t *testing.T) {
	require.Equal(t, []string{"c", "a/b"}, rsplitN("a/b/c", "/", 2))
	require.Equal(t, []string{"c", "b", "a"}, rsplitN("a/b/c", "/", 3))
	require.Equal(t, []string{"only"}, rsplitN("only", "/", 3))
}
