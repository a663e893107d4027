package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		in  string
		exp string
	}{
		{in: "Acme Corp", exp: "acme"},
		{in: "  ACME   corp ", exp: "acme"},
		{in: "ACME, Corp.", exp: "acme"},
		{in: "Clínica São José", exp: "clinica sao jose"},
		{in: "Dr. Jane  Doe", exp: "jane doe"},
		{in: "Co Ltd", exp: "co ltd"},
		{in: "Müller-Lüdenscheidt GmbH", exp: "muller ludenscheidt"},
		{in: "3M Company", exp: "3m company"},
		{in: "", exp: ""},
		{in: "   \t", exp: ""},
		{in: "Unknown", exp: ""},
		{in: "N/A", exp: ""},
		{in: "n.a.", exp: ""},
		{in: "-", exp: ""},
		{in: "...", exp: ""},
		{in: "Not Applicable", exp: ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.exp, Generate(test.in), "input %q", test.in)
		assert.Equal(t, test.exp == "", IsEmpty(test.in), "input %q", test.in)
	}
}

func TestGenerateKeepsOrder(t *testing.T) {
	assert.NotEqual(t, Generate("Smith John"), Generate("John Smith"))
}

func TestName(t *testing.T) {
	assert.Equal(t, "doe jane", Name("Jane Doe"))
	assert.Equal(t, Name("Smith, John"), Name("JOHN SMITH"))
	assert.Equal(t, Name("Prof. John Smith"), Name("Smith, John"))
	assert.Equal(t, "", Name("unknown"))
}

func TestGeneratePure(t *testing.T) {
	in := "Hôpital Européen Georges-Pompidou"
	assert.Equal(t, Generate(in), Generate(in))
	assert.Equal(t, Generate(Generate(in)), Generate(in))
}
