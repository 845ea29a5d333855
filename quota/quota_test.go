package quota

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQuota_Validate tests the validation logic for Quota.
func TestQuota_Validate(t *testing.T) {
	testCases := []struct {
		name        string
		quota       Quota
		expectError error
	}{
		{
			name:  "Empty quota is unlimited",
			quota: Quota{},
		},
		{
			name:  "Concurrency only",
			quota: Quota{Concurrency: 2},
		},
		{
			name:  "Rate with interval",
			quota: Quota{Interval: time.Second, Rate: 5},
		},
		{
			name:  "Everything",
			quota: Quota{Concurrency: 2, Interval: time.Second, Rate: 5, MaxDelay: time.Millisecond},
		},
		{
			name:        "Interval without rate",
			quota:       Quota{Interval: time.Second},
			expectError: ErrIntervalWithoutRate,
		},
		{
			name:        "Rate without interval",
			quota:       Quota{Rate: 3},
			expectError: ErrRateWithoutInterval,
		},
		{
			name:        "Negative concurrency",
			quota:       Quota{Concurrency: -1},
			expectError: ErrInvalidQuota,
		},
		{
			name:        "Negative interval",
			quota:       Quota{Interval: -time.Second, Rate: 1},
			expectError: ErrInvalidQuota,
		},
		{
			name:        "Negative rate",
			quota:       Quota{Interval: time.Second, Rate: -1},
			expectError: ErrInvalidQuota,
		},
		{
			name:        "Negative max delay",
			quota:       Quota{MaxDelay: -time.Second},
			expectError: ErrInvalidQuota,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.quota.Validate()
			if tc.expectError == nil {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectError)
			assert.ErrorIs(t, err, ErrInvalidQuota, "every validation failure is an invalid quota")

			var ce *ConfigError
			assert.True(t, errors.As(err, &ce))
		})
	}
}

func TestQuota_Flags(t *testing.T) {
	assert.True(t, Quota{}.IsUnlimited())
	assert.False(t, Quota{}.HasConcurrency())
	assert.False(t, Quota{}.HasRate())

	q := Quota{Concurrency: 1, Interval: time.Second, Rate: 1}
	assert.True(t, q.HasConcurrency())
	assert.True(t, q.HasRate())
	assert.False(t, q.IsUnlimited())
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Limiter: "api", Field: "rate", Value: 0, Err: ErrIntervalWithoutRate}
	assert.Contains(t, err.Error(), "limiter 'api'")
	assert.Contains(t, err.Error(), "rate")

	err = &ConfigError{Field: "concurrency", Value: -1, Err: errors.New("must not be negative")}
	assert.Equal(t, "invalid quota: concurrency (got -1): must not be negative", err.Error())
}
