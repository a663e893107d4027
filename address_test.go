package disclosure_test

import (
	"testing"

	"github.com/molecula/disclosure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountryCode(t *testing.T) {
	tests := map[string]string{
		"US":                       "us",
		"usa":                      "us",
		"United States":            "us",
		"UNITED STATES OF AMERICA": "us",
		"gb":                       "gb",
		"United Kingdom":           "gb",
		"UK":                       "gb",
		"England":                  "gb",
		"Deutschland":              "",
		"Germany":                  "de",
		"DEU":                      "de",
		"France":                   "fr",
		"Unknown":                  "",
		"":                         "",
	}
	for in, exp := range tests {
		assert.Equal(t, exp, disclosure.CountryCode(in), in)
	}
	assert.Equal(t, "Germany", disclosure.CountryName("de"))
	assert.Equal(t, "", disclosure.CountryName(""))
}

func TestMakeAddress(t *testing.T) {
	a := disclosure.MakeAddress(disclosure.AddressParts{
		Street:     "1 Main St",
		PostalCode: "02139",
		City:       "Cambridge",
		State:      "MA",
		Country:    "United States",
	})
	require.NotNil(t, a)
	assert.Equal(t, "1 Main St, 02139 Cambridge, MA, United States", a.Caption())
	assert.Equal(t, []string{"us"}, a.Countries())
	assert.Regexp(t, `^addr-[0-9a-f]{40}$`, a.ID)

	b := disclosure.MakeAddress(disclosure.AddressParts{
		Street:     "1 MAIN ST.",
		PostalCode: "02139",
		City:       "CAMBRIDGE",
		State:      "ma",
		Country:    "united states",
	})
	assert.Equal(t, a.ID, b.ID)

	// A country code alone fills in the country name.
	c := disclosure.MakeAddress(disclosure.AddressParts{City: "Paris", CountryCode: "FR"})
	require.NotNil(t, c)
	assert.Equal(t, "Paris, France", c.Caption())
	assert.Equal(t, []string{"fr"}, c.Countries())

	assert.Nil(t, disclosure.MakeAddress(disclosure.AddressParts{Country: "Unknown"}))
	assert.Nil(t, disclosure.MakeAddress(disclosure.AddressParts{}))
}

func TestAttachAddress(t *testing.T) {
	p := disclosure.NewEntity(disclosure.Person, "physician-1")
	disclosure.AttachAddress(p, nil)
	assert.False(t, p.Has("address"))

	a := disclosure.MakeAddress(disclosure.AddressParts{City: "London", Country: "UK"})
	disclosure.AttachAddress(p, a)
	assert.Equal(t, "London, UK", p.First("address"))
	assert.Equal(t, a.ID, p.First("addressEntity"))
	assert.Equal(t, []string{"gb"}, p.Countries())
}
