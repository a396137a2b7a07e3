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
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

const (
	blobTagRaw    byte = 0x00
	blobTagSnappy byte = 0x01
)

// encodeBlob prefixes value with a one-byte format tag, snappy-compressing
// the payload when it is at or above threshold bytes. Reads are
// self-describing regardless of the threshold used at write time, so the
// threshold may change across the lifetime of a repository without
// breaking existing blobs.
func encodeBlob(value []byte, threshold int) []byte {
	if len(value) < threshold {
		out := make([]byte, 0, len(value)+1)
		out = append(out, blobTagRaw)
		return append(out, value...)
	}
	compressed := snappy.Encode(nil, value)
	out := make([]byte, 0, len(compressed)+1)
	out = append(out, blobTagSnappy)
	return append(out, compressed...)
}

// decodeBlob strips the format tag written by encodeBlob and decompresses
// the payload if necessary.
func decodeBlob(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, errors.New("yamabiko: empty blob has no format tag")
	}
	tag, payload := stored[0], stored[1:]
	switch tag {
	case blobTagRaw:
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	case blobTagSnappy:
		decoded, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, errors.Wrap(err, "yamabiko: snappy decode")
		}
		return decoded, nil
	default:
		return nil, errors.Errorf("yamabiko: unknown blob format tag 0x%02x", tag)
	}
}
