// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package disclosure

import (
	"strings"
	"sync"

	"github.com/molecula/disclosure/fingerprint"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// countryAliases are names used by the registries which are not the
// English display names of a region.
var countryAliases = map[string]string{
	"uk":                       "gb",
	"great britain":            "gb",
	"england":                  "gb",
	"scotland":                 "gb",
	"wales":                    "gb",
	"northern ireland":         "gb",
	"usa":                      "us",
	"united states of america": "us",
	"america":                  "us",
	"the netherlands":          "nl",
	"holland":                  "nl",
	"czech republic":           "cz",
	"south korea":              "kr",
	"korea republic of":        "kr",
	"russia":                   "ru",
	"russian federation":       "ru",
	"ivory coast":              "ci",
	"turkey":                   "tr",
	"vietnam":                  "vn",
	"iran":                     "ir",
	"syria":                    "sy",
	"taiwan":                   "tw",
	"macedonia":                "mk",
	"swaziland":                "sz",
}

var (
	countryNamesOnce sync.Once
	countryNames     map[string]string
)

// loadCountryNames maps the fingerprints of English region names to their
// alpha-2 codes.
func loadCountryNames() {
	countryNames = make(map[string]string, 300)
	namer := display.English.Regions()
	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			r, err := language.ParseRegion(string([]rune{a, b}))
			if err != nil || !r.IsCountry() || r.String() != string([]rune{a, b}) {
				continue
			}
			if name := namer.Name(r); name != "" {
				countryNames[fingerprint.Generate(name)] = strings.ToLower(r.String())
			}
		}
	}
	for alias, code := range countryAliases {
		countryNames[fingerprint.Generate(alias)] = code
	}
}

// CountryCode returns the lowercase ISO 3166-1 alpha-2 code of a country
// given by code (alpha-2 or alpha-3) or by English name, or "" if s names
// no country.
func CountryCode(s string) string {
	s = strings.TrimSpace(s)
	if fingerprint.IsEmpty(s) {
		return ""
	}
	countryNamesOnce.Do(loadCountryNames)
	if code, ok := countryNames[fingerprint.Generate(s)]; ok {
		return code
	}
	if len(s) == 2 || len(s) == 3 {
		if r, err := language.ParseRegion(strings.ToUpper(s)); err == nil && r.IsCountry() {
			return strings.ToLower(r.String())
		}
	}
	return ""
}

// CountryName returns the English name of a country code, or "".
func CountryName(code string) string {
	r, err := language.ParseRegion(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil || !r.IsCountry() {
		return ""
	}
	return display.English.Regions().Name(r)
}
