package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	v := NewPhoneValidator()

	t.Run("Valid numbers", func(t *testing.T) {
		cases := []string{
			"9876543210",
			"+91 98765 43210",
			"09876543210",
			"98765-43210",
			"91-9876543210",
			"6123456789",
		}
		for _, in := range cases {
			got, err := v.Validate(in)
			assert.NoError(t, err, in)
			assert.Len(t, got, 10, in)
		}
	})

	t.Run("Invalid numbers", func(t *testing.T) {
		cases := []struct {
			in   string
			want error
		}{
			{"", ErrEmptyPhone},
			{"98765", ErrInvalidLength},
			{"987654321012", ErrInvalidLength},
			{"5876543210", ErrInvalidPrefix},
			{"98765abcde", ErrInvalidFormat},
		}
		for _, tc := range cases {
			_, err := v.Validate(tc.in)
			assert.ErrorIs(t, err, tc.want, tc.in)
		}
	})
}

func TestSanitize(t *testing.T) {
	v := NewPhoneValidator()
	assert.Equal(t, "9876543210", v.Sanitize("+91 (987) 654-3210"))
	assert.Equal(t, "9876543210", v.Sanitize("09876543210"))
	assert.Equal(t, "9876543210", v.Sanitize("919876543210"))
}
