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
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/go-git/go-git/v5/plumbing"
)

// readCache is a bounded LRU of (branch, key, commit) -> decoded blob
// bytes. Because the key includes the resolved commit hash, a write that
// advances the branch can never serve stale bytes: the cache key for the
// same (branch, key) pair changes the instant the branch moves.
type readCache struct {
	cache *lru.Cache[uint64, []byte]
}

func newReadCache(size int) *readCache {
	if size <= 0 {
		return &readCache{}
	}
	c, err := lru.New[uint64, []byte](size)
	if err != nil {
		// Only returns an error for a non-positive size, already excluded above.
		panic(err)
	}
	return &readCache{cache: c}
}

func readCacheKey(branch, key string, commit plumbing.Hash) uint64 {
	h := xxhash.New()
	h.WriteString(branch)
	h.Write([]byte{0})
	h.WriteString(key)
	h.Write([]byte{0})
	h.Write(commit[:])
	return h.Sum64()
}

func (c *readCache) get(branch, key string, commit plumbing.Hash) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(readCacheKey(branch, key, commit))
}

func (c *readCache) put(branch, key string, commit plumbing.Hash, value []byte) {
	if c.cache == nil {
		return
	}
	c.cache.Add(readCacheKey(branch, key, commit), value)
}
