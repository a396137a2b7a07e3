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

// Package index implements the secondary-index subsystem: per-field
// auxiliary indexes mapping field values back to object ids, backed by
// go-git's own keyed index file format rather than the main object tree.
package index

import "strconv"

// Field is a tagged value indexed by a secondary index. Int and Float map
// to ino 1 (a "simple" token that never contains '/'); String maps to ino
// 2 (a "compound-keyed" token that may contain '/' and therefore needs
// 3-segment extraction in ExtractValue).
type Field struct {
	kind  fieldKind
	i     int64
	f     float64
	s     string
}

type fieldKind int

const (
	fieldInt fieldKind = iota
	fieldFloat
	fieldString
)

// IntField wraps an integer value.
func IntField(v int64) Field { return Field{kind: fieldInt, i: v} }

// FloatField wraps a floating-point value.
func FloatField(v float64) Field { return Field{kind: fieldFloat, f: v} }

// StringField wraps a string value.
func StringField(v string) Field { return Field{kind: fieldString, s: v} }

// ToIndexToken renders the field as the lexicographic key prefix an index
// entry is stored under.
//
// Numeric tokens are rendered as plain decimal text with no padding, so
// lexicographic order of tokens matches numeric order only for
// non-negative values of equal digit count; negative numbers and values
// of differing width do not sort numerically.
func (f Field) ToIndexToken() string {
	switch f.kind {
	case fieldInt:
		return strconv.FormatInt(f.i, 10)
	case fieldFloat:
		return strconv.FormatFloat(f.f, 'f', -1, 64)
	default:
		return f.s
	}
}

// ToInoNumber returns the field-kind discriminator stored in an index
// entry's inode field: 1 for Int/Float, 2 for String.
func (f Field) ToInoNumber() uint32 {
	if f.kind == fieldString {
		return 2
	}
	return 1
}
