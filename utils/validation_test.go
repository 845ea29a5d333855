package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	testCases := []struct {
		name        string
		value       string
		expectError bool
		errorMsg    string
	}{
		{
			name:  "valid name",
			value: "api_calls",
		},
		{
			name:  "valid name with special characters",
			value: "tenant:eu-west.1@primary+read",
		},
		{
			name:        "empty name",
			value:       "",
			expectError: true,
			errorMsg:    "limiter name cannot be empty",
		},
		{
			name:        "name too long",
			value:       strings.Repeat("a", 65),
			expectError: true,
			errorMsg:    "limiter name cannot exceed 64 bytes",
		},
		{
			name:        "name with spaces",
			value:       "api calls",
			expectError: true,
			errorMsg:    "contains invalid character ' '",
		},
		{
			name:        "name with slash",
			value:       "api/calls",
			expectError: true,
			errorMsg:    "contains invalid character '/'",
		},
		{
			name:        "name with non-ASCII",
			value:       "quota_©2023",
			expectError: true,
			errorMsg:    "limiter name contains invalid character",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.value)
			if !tc.expectError {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errorMsg)
		})
	}
}

func TestValidateString_Options(t *testing.T) {
	assert.NoError(t, ValidateString("", ValidationOptions{FieldName: "label", EmptyAllowed: true}))

	err := ValidateString("ab", ValidationOptions{FieldName: "label", MinLength: 3})
	assert.EqualError(t, err, "label must be at least 3 characters, got 2")
}

func TestValidateName_Boundary(t *testing.T) {
	// Exactly 64 characters should be valid
	validLength := strings.Repeat("x", 64)
	assert.NoError(t, ValidateName(validLength))
	assert.Error(t, ValidateName(validLength+"x"))
}
