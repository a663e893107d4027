package errors_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/molecula/disclosure/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		uncoded := errors.New(errors.ErrUncoded, "uncoded error")
		missing := newErrMissing("name")
		variant := newErrVariant("Covered Recipient Dentist")
		missingCustom := errors.New(errors.ErrMissingRequiredField, "custom message")

		tests := []struct {
			err    error
			target errors.Code
			exp    bool
		}{
			{
				err:    uncoded,
				target: errors.ErrUncoded,
				exp:    true,
			},
			{
				err:    uncoded,
				target: errors.ErrMissingRequiredField,
				exp:    false,
			},
			{
				err:    missing,
				target: errors.ErrMissingRequiredField,
				exp:    true,
			},
			{
				err:    missing,
				target: errors.ErrUnknownVariant,
				exp:    false,
			},
			{
				err:    errors.Wrap(variant, "with message"),
				target: errors.ErrUnknownVariant,
				exp:    true,
			},
			{
				err:    missingCustom,
				target: errors.ErrMissingRequiredField,
				exp:    true,
			},
		}

		for i, test := range tests {
			t.Run(fmt.Sprintf("test-%d", i), func(t *testing.T) {
				got := errors.Is(test.err, test.target)
				assert.Equal(t, test.exp, got)
			})
		}
	})

	t.Run("CodeOf", func(t *testing.T) {
		assert.Equal(t, errors.ErrSourceDecode, errors.CodeOf(errors.Wrap(errors.New(errors.ErrSourceDecode, "bad zip"), "opening")))
		assert.Equal(t, errors.ErrUncoded, errors.CodeOf(fmt.Errorf("plain")))
		assert.Equal(t, errors.ErrUncoded, errors.CodeOf(nil))
	})

	t.Run("JSON", func(t *testing.T) {
		err := errors.Wrap(newErrMissing("amount"), "row 7")
		j := errors.MarshalJSON(err)
		assert.Contains(t, j, `"code":"MissingRequiredField"`)

		back := errors.UnmarshalJSON(strings.NewReader(j))
		assert.True(t, errors.Is(back, errors.ErrMissingRequiredField))
		assert.Equal(t, "row 7: missing required field: amount", back.Error())
	})
}

func newErrMissing(field string) error {
	return errors.New(
		errors.ErrMissingRequiredField,
		"missing required field: "+field,
	)
}

func newErrVariant(v string) error {
	return errors.Newf(errors.ErrUnknownVariant, "unknown recipient type: %q", v)
}
