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
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// keyHash returns the BLAKE3-256 digest of a key's bytes.
func keyHash(key string) [32]byte {
	return blake3.Sum256([]byte(key))
}

// oct renders a single byte as unpadded base-8 ASCII, e.g. 0 -> "0",
// 8 -> "10", 255 -> "377". This must match byte-for-byte across
// implementations since it is the on-disk path format.
func oct(b byte) string {
	return strconv.FormatUint(uint64(b), 8)
}

// pathOfKey computes the storage path for a key: oct(h[0])/oct(h[1])/key,
// where h = BLAKE3(key).
func pathOfKey(key string) string {
	h := keyHash(key)
	var b strings.Builder
	b.WriteString(oct(h[0]))
	b.WriteByte('/')
	b.WriteString(oct(h[1]))
	b.WriteByte('/')
	b.WriteString(key)
	return b.String()
}
