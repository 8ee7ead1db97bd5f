package protocol

type CallType string

const (
	CallSubscribe CallType = "SUBSCRIBE"
	CallUpdate    CallType = "UPDATE"
	CallMessage   CallType = "MESSAGE"
)

// A request sent by the executor to the agent.
// Every call carries the executor identity; exactly one of the payload
// fields is set, matching Type.
type Call struct {
	Type        CallType `json:"type"`
	FrameworkID ID       `json:"framework_id"`
	ExecutorID  ID       `json:"executor_id"`

	Subscribe *SubscribeCall `json:"subscribe,omitempty"`
	Update    *UpdateCall    `json:"update,omitempty"`
	Message   *MessageCall   `json:"message,omitempty"`
}

// The subscription handshake. The unacknowledged sets are replayed
// verbatim on every (re)connection, which is what gives status updates
// their at-least-once delivery guarantee.
type SubscribeCall struct {
	UnacknowledgedTasks   []TaskInfo   `json:"unacknowledged_tasks"`
	UnacknowledgedUpdates []TaskStatus `json:"unacknowledged_updates"`
}

type UpdateCall struct {
	Status TaskStatus `json:"status"`
}

type MessageCall struct {
	Data []byte `json:"data"`
}

func NewSubscribeCall(identity Identity, tasks []TaskInfo, updates []TaskStatus) *Call {
	return &Call{
		Type:        CallSubscribe,
		FrameworkID: identity.FrameworkID,
		ExecutorID:  identity.ExecutorID,
		Subscribe: &SubscribeCall{
			UnacknowledgedTasks:   tasks,
			UnacknowledgedUpdates: updates,
		},
	}
}

func NewUpdateCall(identity Identity, status TaskStatus) *Call {
	return &Call{
		Type:        CallUpdate,
		FrameworkID: identity.FrameworkID,
		ExecutorID:  identity.ExecutorID,
		Update:      &UpdateCall{Status: status},
	}
}

func NewMessageCall(identity Identity, data []byte) *Call {
	return &Call{
		Type:        CallMessage,
		FrameworkID: identity.FrameworkID,
		ExecutorID:  identity.ExecutorID,
		Message:     &MessageCall{Data: data},
	}
}
