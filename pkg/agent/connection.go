package agent

import (
	"github.com/srand/mexec/pkg/protocol"
)

// Builds the subscription call for a connection attempt.
//
// Invoked again on every reconnect, not just the first attempt, because
// the unacknowledged task and update sets may have changed since the
// previous attempt.
type SubscribeFunc func() *protocol.Call

// A persistent connection to the agent.
//
// The implementation owns all connection level state: the socket, the
// subscription request and reconnection backoff. Decoded events are
// delivered on the Events channel in arrival order. When the event
// stream is lost a synthetic CLOSED event is delivered and the
// connection resubscribes until stopped.
type Connection interface {
	// Decoded inbound events, in arrival order.
	// Closed when the connection has terminated.
	Events() <-chan *protocol.Event

	// Queue an outbound call. Never blocks on the network; delivery
	// failures are logged and recovered through resubscription replay.
	Send(call *protocol.Call)

	// Stop the connection gracefully. Queued outbound calls are
	// flushed before the connection terminates.
	Stop()

	// Abort the connection immediately, dropping queued calls.
	Abort()

	// Closed when the connection has terminated.
	Done() <-chan struct{}
}
