package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	v := NewPhoneValidator()

	tests := []struct {
		name      string
		phone     string
		want      string
		expectErr error
	}{
		{
			name:  "plain number",
			phone: "01012345678",
			want:  "01012345678",
		},
		{
			name:  "spaced number",
			phone: "010 1234 5678",
			want:  "01012345678",
		},
		{
			name:  "dashed number",
			phone: "012-1234-5678",
			want:  "01212345678",
		},
		{
			name:  "international format",
			phone: "+20 10 1234 5678",
			want:  "01012345678",
		},
		{
			name:      "empty",
			phone:     "",
			expectErr: ErrEmptyPhone,
		},
		{
			name:      "letters",
			phone:     "0101234abcd",
			expectErr: ErrInvalidFormat,
		},
		{
			name:      "too short",
			phone:     "0101234567",
			expectErr: ErrInvalidLength,
		},
		{
			name:      "too long",
			phone:     "010123456789",
			expectErr: ErrInvalidLength,
		},
		{
			name:      "landline prefix",
			phone:     "02212345678",
			expectErr: ErrInvalidPrefix,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(tt.phone)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	v := NewPhoneValidator()

	formatted, err := v.Format("+201012345678")
	assert.NoError(t, err)
	assert.Equal(t, "010 1234 5678", formatted)

	_, err = v.Format("123")
	assert.Error(t, err)
}

func TestGetOperator(t *testing.T) {
	v := NewPhoneValidator()

	tests := []struct {
		phone string
		want  string
	}{
		{"01012345678", "Vodafone"},
		{"01112345678", "Etisalat"},
		{"01212345678", "Orange"},
		{"01512345678", "WE"},
	}

	for _, tt := range tests {
		operator, err := v.GetOperator(tt.phone)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, operator)
	}
}

func TestIsValid(t *testing.T) {
	v := NewPhoneValidator()

	assert.True(t, v.IsValid("01512345678"))
	assert.False(t, v.IsValid("0771234567"))
}
