package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/srand/mexec/pkg/utils"
)

type EventType string

const (
	EventSubscribed   EventType = "SUBSCRIBED"
	EventLaunch       EventType = "LAUNCH"
	EventLaunchGroup  EventType = "LAUNCH_GROUP"
	EventKill         EventType = "KILL"
	EventAcknowledged EventType = "ACKNOWLEDGED"
	EventMessage      EventType = "MESSAGE"
	EventError        EventType = "ERROR"
	EventShutdown     EventType = "SHUTDOWN"

	// Synthetic event delivered by the transport when the event stream
	// is lost. Never present on the wire.
	EventClosed EventType = "CLOSED"
)

// An event received from the agent on the persistent event stream.
// Exactly one of the payload fields is set, matching Type.
type Event struct {
	Type EventType `json:"type"`

	Subscribed   *SubscribedEvent   `json:"subscribed,omitempty"`
	Launch       *LaunchEvent       `json:"launch,omitempty"`
	LaunchGroup  *LaunchEvent       `json:"launch_group,omitempty"`
	Kill         *KillEvent         `json:"kill,omitempty"`
	Acknowledged *AcknowledgedEvent `json:"acknowledged,omitempty"`
	Message      *MessageEvent      `json:"message,omitempty"`
	Error        *ErrorEvent        `json:"error,omitempty"`
}

type SubscribedEvent struct {
	ExecutorInfo  ExecutorInfo  `json:"executor_info"`
	FrameworkInfo FrameworkInfo `json:"framework_info"`
	AgentInfo     AgentInfo     `json:"agent_info"`
}

type LaunchEvent struct {
	Task TaskInfo `json:"task"`
}

type KillEvent struct {
	TaskID ID `json:"task_id"`
}

type AcknowledgedEvent struct {
	TaskID ID     `json:"task_id"`
	UUID   []byte `json:"uuid"`
}

type MessageEvent struct {
	Data []byte `json:"data"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

// Returns the payload field matching the event type, or nil for
// payload-free events. Used by DecodeEvent to verify that the payload
// announced by the type tag is actually present.
func (e *Event) payload() (any, bool) {
	switch e.Type {
	case EventSubscribed:
		return e.Subscribed, e.Subscribed != nil
	case EventLaunch:
		return e.Launch, e.Launch != nil
	case EventLaunchGroup:
		return e.LaunchGroup, e.LaunchGroup != nil
	case EventKill:
		return e.Kill, e.Kill != nil
	case EventAcknowledged:
		return e.Acknowledged, e.Acknowledged != nil
	case EventMessage:
		return e.Message, e.Message != nil
	case EventError:
		return e.Error, e.Error != nil
	default:
		return nil, true
	}
}

// Decode a single event record.
//
// A decode failure is not fatal to the connection. The dispatcher treats
// it the same as an event of unknown type: logged and dropped.
func DecodeEvent(data []byte) (*Event, error) {
	var event Event

	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrParse, err)
	}

	if event.Type == "" {
		return nil, fmt.Errorf("%w: event without type", utils.ErrParse)
	}

	if _, ok := event.payload(); !ok {
		return nil, fmt.Errorf("%w: %s event without payload", utils.ErrParse, event.Type)
	}

	return &event, nil
}
