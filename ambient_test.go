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
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
)

func TestBlobCodecRoundTripRaw(t *testing.T) {
	value := []byte("small value")
	encoded := encodeBlob(value, 1024)
	require.Equal(t, blobTagRaw, encoded[0])

	decoded, err := decodeBlob(encoded)
	require.NoError(t, err)
	require.Equal(t, value, decoded)
}

func TestBlobCodecRoundTripCompressed(t *testing.T) {
	value := []byte(strings.Repeat("a", 4096))
	encoded := encodeBlob(value, 1024)
	require.Equal(t, blobTagSnappy, encoded[0])
	require.Less(t, len(encoded), len(value))

	decoded, err := decodeBlob(encoded)
	require.NoError(t, err)
	require.Equal(t, value, decoded)
}

func TestBlobCodecRejectsUnknownTag(t *testing.T) {
	_, err := decodeBlob([]byte{0xff, 1, 2, 3})
	require.Error(t, err)
}

func TestBlobCodecRejectsEmpty(t *testing.T) {
	_, err := decodeBlob(nil)
	require.Error(t, err)
}

func TestReadCacheSelfInvalidatesOnBranchMove(t *testing.T) {
	c := newReadCache(16)
	commitA := plumbing.NewHash("1111111111111111111111111111111111111111")
	commitB := plumbing.NewHash("2222222222222222222222222222222222222222")

	c.put("main", "key", commitA, []byte("value at A"))

	got, hit := c.get("main", "key", commitA)
	require.True(t, hit)
	require.Equal(t, []byte("value at A"), got)

	_, hit = c.get("main", "key", commitB)
	require.False(t, hit)
}

func TestReadCacheDisabledWhenSizeNonPositive(t *testing.T) {
	c := newReadCache(0)
	commit := plumbing.NewHash("3333333333333333333333333333333333333333")
	c.put("main", "key", commit, []byte("value"))

	_, hit := c.get("main", "key", commit)
	require.False(t, hit)
}

func TestMetricsCollectorsNonEmpty(t *testing.T) {
	m := newMetrics()
	require.Len(t, m.Collectors(), 5)
}

func TestKeyHashPathIsDeterministic(t *testing.T) {
	first := pathOfKey("my-key")
	second := pathOfKey("my-key")
	require.Equal(t, first, second)

	h := keyHash("my-key")
	require.True(t, strings.HasPrefix(first, oct(h[0])+"/"+oct(h[1])+"/"))
	require.True(t, strings.HasSuffix(first, "/my-key"))
}

func TestOctByteEdgeCases(t *testing.T) {
	require.Equal(t, "0", oct(0))
	require.Equal(t, "10", oct(8))
	require.Equal(t, "377", oct(255))
}
