// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package fingerprint reduces free text to a comparison key: two spellings
// of the same name ("Acme Corp", "  ACME, Corp. ") share one fingerprint.
package fingerprint

import (
	"strings"
	"unicode"

	"golang.org/x/exp/slices"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// placeholders are inputs which mean "no value" in the source data.
var placeholders = map[string]struct{}{
	"unknown":        {},
	"n a":            {},
	"na":             {},
	"none":           {},
	"null":           {},
	"nil":            {},
	"nan":            {},
	"not applicable": {},
	"not available":  {},
	"not known":      {},
	"not provided":   {},
	"unspecified":    {},
	"tbc":            {},
}

// stopwords are dropped from fingerprints: legal-entity suffixes and
// honorifics.
var stopwords = map[string]struct{}{
	// legal forms
	"ag": {}, "bv": {}, "co": {}, "corp": {}, "corporation": {}, "gmbh": {},
	"inc": {}, "incorporated": {}, "kg": {}, "limited": {}, "llc": {},
	"llp": {}, "lp": {}, "ltd": {}, "nv": {}, "plc": {}, "pllc": {},
	"sa": {}, "sarl": {}, "sas": {}, "spa": {}, "srl": {},
	// honorifics
	"dame": {}, "dr": {}, "miss": {}, "mr": {}, "mrs": {}, "ms": {},
	"mx": {}, "prof": {}, "professor": {}, "sir": {},
}

// fold decomposes, drops combining marks and recomposes, so "é" becomes "e".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// tokens returns the lowercased, folded words of s, splitting on anything
// that is neither a letter nor a digit.
func tokens(s string) []string {
	s = fold(strings.ToLower(s))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func clean(text string) []string {
	toks := tokens(text)
	if len(toks) == 0 {
		return nil
	}
	if _, ok := placeholders[strings.Join(toks, " ")]; ok {
		return nil
	}
	kept := make([]string, 0, len(toks))
	for _, t := range toks {
		if _, ok := stopwords[t]; !ok {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		// "Co Ltd" is still a name.
		return toks
	}
	return kept
}

// Generate returns the fingerprint of text, or "" if text carries no value.
func Generate(text string) string {
	return strings.Join(clean(text), " ")
}

// Name is like Generate but sorts the tokens, so that "Smith, John" and
// "John Smith" match.
func Name(text string) string {
	toks := clean(text)
	slices.Sort(toks)
	return strings.Join(toks, " ")
}

// IsEmpty reports whether text has an empty fingerprint.
func IsEmpty(text string) bool {
	return len(clean(text)) == 0
}
