// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package hash

import (
	"encoding/hex"
	"sync"

	"github.com/zeebo/blake3"
)

// Separator joins the parts hashed by Hex. Callers strip it from their
// parts, so ("ab", "c") and ("a", "bc") never hash alike.
const Separator = "\x1f"

// hashers recycles blake3 hashers across Hex calls; ids are made for
// every entity of every row.
var hashers = sync.Pool{
	New: func() interface{} { return blake3.New() },
}

// Hex returns the first size bytes of the blake3 hash of the parts, joined by
// Separator, as a hexadecimal string of length 2*size.
func Hex(size int, parts ...string) string {
	hasher := hashers.Get().(*blake3.Hasher)
	hasher.Reset()
	for i, p := range parts {
		if i > 0 {
			// "Write implements part of the hash.Hash interface. It never returns an error."
			_, _ = hasher.WriteString(Separator)
		}
		_, _ = hasher.WriteString(p)
	}
	buf := make([]byte, size)
	// "It always fills the entire buffer and never errors."
	_, _ = hasher.Digest().Read(buf)
	hashers.Put(hasher)
	return hex.EncodeToString(buf)
}
