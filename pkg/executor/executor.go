package executor

import (
	"github.com/srand/mexec/pkg/protocol"
)

// Interface for executor implementations.
//
// An executor is the worker side participant in the orchestrator's task
// protocol: it runs tasks handed to it by the agent and reports their
// status back through the driver.
//
// Callbacks are invoked one at a time, in event arrival order, from the
// driver's event loop. A callback must not block for long; a wedged
// callback stalls all further event processing (the forced shutdown
// timer still fires regardless).
type Executor interface {
	// Called once, when the first subscription with the agent has been
	// established.
	OnRegistered(driver Driver, executorInfo protocol.ExecutorInfo, frameworkInfo protocol.FrameworkInfo, agentInfo protocol.AgentInfo)

	// Called when an already registered executor has resubscribed
	// after a connection loss.
	OnReregistered(driver Driver, agentInfo protocol.AgentInfo)

	// Called when the agent hands the executor a new task to run.
	OnLaunch(driver Driver, task protocol.TaskInfo)

	// Called when the agent asks for a task to be killed. The task
	// remains tracked until its terminal status update has been
	// acknowledged.
	OnKill(driver Driver, taskID protocol.ID)

	// Called with an opaque message forwarded from the framework.
	// Messages are best effort and may arrive more than once or not
	// at all.
	OnMessage(driver Driver, data []byte)

	// Called when the agent reports an unrecoverable error.
	OnError(driver Driver, message string)

	// Called exactly once when the executor is being shut down,
	// either on an explicit SHUTDOWN event or when the connection to
	// a non checkpointing agent has been lost.
	OnShutdown(driver Driver)
}

// The driver API available to executor implementations.
type Driver interface {
	// Report a task status update. Missing timestamp, update token
	// and source fields are defaulted. The update is retransmitted on
	// every resubscription until the agent acknowledges it.
	Update(status protocol.TaskStatus)

	// Send an opaque message to the framework. Best effort; there is
	// no delivery guarantee and no retransmission.
	Message(data []byte)
}
