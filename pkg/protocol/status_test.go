package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusDefaults(t *testing.T) {
	status := TaskStatus{
		TaskID: ID{Value: "T1"},
		State:  TaskRunning,
	}

	status.EnsureDefaults()
	assert.NotZero(t, status.Timestamp)
	assert.Len(t, status.UUID, 16)
	assert.Equal(t, SourceExecutor, status.Source)
}

func TestStatusDefaultsAreIdempotent(t *testing.T) {
	status := TaskStatus{
		TaskID:    ID{Value: "T1"},
		State:     TaskRunning,
		Source:    "SOURCE_AGENT",
		Timestamp: 42,
	}

	status.EnsureDefaults()
	token := status.UUID

	status.EnsureDefaults()
	assert.Equal(t, token, status.UUID)
	assert.Equal(t, float64(42), status.Timestamp)
	assert.Equal(t, "SOURCE_AGENT", status.Source)
}

func TestStatusToken(t *testing.T) {
	status := TaskStatus{TaskID: ID{Value: "T1"}, State: TaskRunning}
	status.EnsureDefaults()

	token, err := status.Token()
	require.NoError(t, err)
	assert.Equal(t, status.UUID, token[:])
}

func TestTaskStateIsTerminal(t *testing.T) {
	assert.False(t, TaskStarting.IsTerminal())
	assert.False(t, TaskRunning.IsTerminal())
	assert.True(t, TaskFinished.IsTerminal())
	assert.True(t, TaskFailed.IsTerminal())
	assert.True(t, TaskKilled.IsTerminal())
	assert.True(t, TaskLost.IsTerminal())
}
