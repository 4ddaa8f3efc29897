package janitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnceCollectsCounts(t *testing.T) {
	calls := 0
	j, err := New("", map[string]Task{
		"sessions": TaskFunc(func(context.Context) (int64, error) { calls++; return 3, nil }),
		"otps":     TaskFunc(func(context.Context) (int64, error) { return 0, errors.New("db down") }),
	})
	require.NoError(t, err)

	counts := j.RunOnce(context.Background())
	assert.Equal(t, map[string]int64{"sessions": 3}, counts)
	assert.Equal(t, 1, calls)
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New("every now and then", nil)
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	j, err := New("@every 1h", map[string]Task{})
	require.NoError(t, err)
	j.Start()
	j.Stop()
}
