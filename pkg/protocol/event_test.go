package protocol

import (
	"testing"

	"github.com/srand/mexec/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSubscribedEvent(t *testing.T) {
	data := []byte(`{
		"type": "SUBSCRIBED",
		"subscribed": {
			"executor_info": {"executor_id": {"value": "E1"}},
			"framework_info": {"id": {"value": "F1"}},
			"agent_info": {"id": {"value": "A1"}, "hostname": "node1"}
		}
	}`)

	event, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, EventSubscribed, event.Type)
	require.NotNil(t, event.Subscribed)
	assert.Equal(t, "E1", event.Subscribed.ExecutorInfo.ExecutorID.Value)
	assert.Equal(t, "F1", event.Subscribed.FrameworkInfo.ID.Value)
	assert.Equal(t, "node1", event.Subscribed.AgentInfo.Hostname)
}

func TestDecodeLaunchEvent(t *testing.T) {
	data := []byte(`{
		"type": "LAUNCH",
		"launch": {
			"task": {
				"task_id": {"value": "T1"},
				"command": {"value": "true"}
			}
		}
	}`)

	event, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, EventLaunch, event.Type)
	require.NotNil(t, event.Launch)
	assert.Equal(t, "T1", event.Launch.Task.TaskID.Value)
	assert.Equal(t, "true", event.Launch.Task.Command.Value)
}

func TestDecodeMessageDataIsBase64(t *testing.T) {
	data := []byte(`{"type": "MESSAGE", "message": {"data": "aGVsbG8="}}`)

	event, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), event.Message.Data)
}

func TestDecodeUnknownEventType(t *testing.T) {
	// Unknown types must decode so that the dispatcher can log and
	// drop them instead of failing the connection.
	event, err := DecodeEvent([]byte(`{"type": "HEARTBEAT"}`))
	require.NoError(t, err)
	assert.Equal(t, EventType("HEARTBEAT"), event.Type)
}

func TestDecodeRejectsMissingType(t *testing.T) {
	_, err := DecodeEvent([]byte(`{}`))
	assert.ErrorIs(t, err, utils.ErrParse)
}

func TestDecodeRejectsMissingPayload(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type": "LAUNCH"}`))
	assert.ErrorIs(t, err, utils.ErrParse)
}

func TestDecodeRejectsMalformedJson(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type": `))
	assert.ErrorIs(t, err, utils.ErrParse)
}
