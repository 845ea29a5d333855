package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajiwo/qlimit"
	"github.com/ajiwo/qlimit/quota"
)

func TestDescribeQuota(t *testing.T) {
	testCases := []struct {
		name     string
		quota    quota.Quota
		expected string
	}{
		{name: "unlimited", quota: quota.Quota{}, expected: "unlimited"},
		{name: "concurrency only", quota: quota.Quota{Concurrency: 4}, expected: "concurrency=4"},
		{
			name:     "rate only",
			quota:    quota.Quota{Interval: time.Second, Rate: 2.5},
			expected: "concurrency=unlimited rate=2.5/1s",
		},
		{
			name:     "everything",
			quota:    quota.Quota{Concurrency: 2, Interval: time.Minute, Rate: 100, MaxDelay: 250 * time.Millisecond},
			expected: "concurrency=2 rate=100/1m0s max_delay=250ms",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, describeQuota(tc.quota))
		})
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
limiters:
  search:
    rate: 5
    interval: 1s
  api:
    concurrency: 2
`), 0o600))

	var out bytes.Buffer
	require.NoError(t, validateFile(&out, good))
	assert.Equal(t, "✓ "+good+": 2 limiter(s)\n  api: concurrency=2\n  search: concurrency=unlimited rate=5/1s\n", out.String())

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
limiters:
  api:
    rate: 5
`), 0o600))

	out.Reset()
	err := validateFile(&out, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, quota.ErrInvalidQuota)
	assert.Empty(t, out.String())

	err = validateFile(&out, filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, quota.ErrReadFailed)
}

func TestSimulation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l, err := qlimit.New(qlimit.WithQuota(quota.Quota{Concurrency: 2, MaxDelay: 150 * time.Millisecond}))
		require.NoError(t, err)
		defer l.Close()

		sim := simulation{limiter: l, tasks: 5, work: 100 * time.Millisecond, weight: 1}
		results := sim.run(t.Context())
		require.Len(t, results, 5)

		// Two run at 0, two at 100ms, the last would start at 200ms
		expected := []struct {
			state   qlimit.State
			started time.Duration
		}{
			{qlimit.StateSucceeded, 0},
			{qlimit.StateSucceeded, 0},
			{qlimit.StateSucceeded, 100 * time.Millisecond},
			{qlimit.StateSucceeded, 100 * time.Millisecond},
			{qlimit.StateTimedOut, -1},
		}
		for i, e := range expected {
			assert.Equal(t, e.state, results[i].state, "task %d", i)
			assert.Equal(t, e.started, results[i].started, "task %d", i)
		}
		assert.True(t, errors.Is(results[4].err, qlimit.ErrQueueTimeout))

		var out bytes.Buffer
		printResults(&out, results)
		text := out.String()
		assert.Contains(t, text, "never started: ")
		assert.Contains(t, text, "started +100ms")
		assert.Contains(t, text, "Summary:")
		assert.Contains(t, text, "succeeded 4")
		assert.Contains(t, text, "timed_out 1")
		assert.Contains(t, text, "wait p50=")
		assert.Equal(t, 10, strings.Count(text, "\n"))

		td := startDigest(results)
		assert.Equal(t, 4.0, td.Count(), "tasks that never started are left out")
		assert.Equal(t, time.Duration(0), quantile(td, 0))
		assert.Equal(t, 100*time.Millisecond, quantile(td, 1))
	})
}
