// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package disclosure

import (
	"strings"
	"unicode/utf8"

	"github.com/molecula/disclosure/fingerprint"
	"github.com/molecula/disclosure/hash"
	"golang.org/x/exp/slices"
)

const (
	// MaxPartLength is the number of runes of a normalized part which are
	// hashed verbatim. Longer parts are cut and get a suffix derived from
	// their full content.
	MaxPartLength = 245

	// idBytes is the width of the hash in an id: 160 bits, so the chance
	// of any collision among n ids is about n²/2^161.
	idBytes = 20

	// suffixBytes is the width of the suffix added to clamped parts.
	suffixBytes = 5
)

type partKind uint8

const (
	tokenPart partKind = iota
	textPart
	namePart
)

// Part is one component of an id.
type Part struct {
	kind  partKind
	value string
}

// Token is a stable raw token, such as a registry number or a country
// code. It is only trimmed.
func Token(s string) Part { return Part{kind: tokenPart, value: s} }

// Text is free text, reduced with fingerprint.Generate.
func Text(s string) Part { return Part{kind: textPart, value: s} }

// NameText is a person's name, reduced with fingerprint.Name so that token
// order does not matter.
func NameText(s string) Part { return Part{kind: namePart, value: s} }

// Normalized returns the part as it is hashed. It never holds
// hash.Separator.
func (p Part) Normalized() string {
	var s string
	switch p.kind {
	case textPart:
		s = fingerprint.Generate(p.value)
	case namePart:
		s = fingerprint.Name(p.value)
	default:
		s = strings.TrimSpace(strings.ReplaceAll(p.value, hash.Separator, ""))
	}
	return clamp(s)
}

// clamp cuts s to MaxPartLength runes, adding a hash of the whole of s so
// that two long values sharing a prefix stay apart.
func clamp(s string) string {
	if utf8.RuneCountInString(s) <= MaxPartLength {
		return s
	}
	r := []rune(s)
	return string(r[:MaxPartLength]) + "-" + hash.Hex(suffixBytes, s)
}

// MakeID derives an id from a namespace and key parts. The id is the
// namespace in clear text followed by a hex digest of the namespace and
// the normalized parts. ok is false, and id empty, when the first part
// normalizes to nothing. Empty later parts keep their position.
//
// Callers building ids for symmetric relationships sort their parts first,
// see SortParts.
func MakeID(namespace string, parts ...Part) (id string, ok bool) {
	if len(parts) == 0 {
		return "", false
	}
	normalized := make([]string, 0, len(parts)+1)
	normalized = append(normalized, namespace)
	for i, p := range parts {
		n := p.Normalized()
		if i == 0 && n == "" {
			return "", false
		}
		normalized = append(normalized, n)
	}
	digest := hash.Hex(idBytes, normalized...)
	if namespace == "" {
		return digest, true
	}
	return namespace + "-" + digest, true
}

// MakeEntityID hashes the non-empty parts into a bare digest, or returns ""
// when all parts are empty. It combines several identifiers into one
// discriminant.
func MakeEntityID(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(strings.ReplaceAll(p, hash.Separator, "")); p != "" {
			kept = append(kept, clamp(p))
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return hash.Hex(idBytes, kept...)
}

// SortParts returns the parts ordered by their normalized form. Empty parts
// sort last.
func SortParts(parts ...Part) []Part {
	out := slices.Clone(parts)
	less := func(a, b Part) bool {
		an, bn := a.Normalized(), b.Normalized()
		if an == "" || bn == "" {
			return an != "" && bn == ""
		}
		return an < bn
	}
	slices.SortStableFunc(out, func(a, b Part) int {
		if less(a, b) {
			return -1
		}
		if less(b, a) {
			return 1
		}
		return 0
	})
	return out
}
