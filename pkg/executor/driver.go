package executor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/srand/mexec/pkg/agent"
	"github.com/srand/mexec/pkg/log"
	"github.com/srand/mexec/pkg/protocol"
	"github.com/srand/mexec/pkg/utils"
)

// The protocol state machine.
//
// The driver turns inbound agent events into callbacks on the executor
// and executor actions into outbound calls. It owns the task and
// pending update collections and replays both in every subscription
// handshake, which is what makes status update delivery at least once.
//
// All events are handled sequentially by the event loop in Run. The
// only concurrent writers to driver state are Update and Message,
// which may be invoked from executor goroutines; the two collections
// are guarded by a mutex for that reason.
type ExecutorDriver struct {
	config   Config
	identity protocol.Identity
	executor Executor
	term     *terminator

	mu            sync.Mutex
	conn          agent.Connection
	tasks         map[string]*protocol.TaskInfo
	updates       map[uuid.UUID]*protocol.TaskStatus
	executorInfo  *protocol.ExecutorInfo
	frameworkInfo *protocol.FrameworkInfo
	shutdown      bool
}

// Statistics about the driver state, for the introspection endpoint.
type Statistics struct {
	Tasks          int
	PendingUpdates int
	Registered     bool
	ShutdownArmed  bool
}

func NewDriver(config Config, executor Executor) *ExecutorDriver {
	return &ExecutorDriver{
		config: config,
		identity: protocol.Identity{
			FrameworkID: protocol.ID{Value: config.FrameworkID},
			ExecutorID:  protocol.ID{Value: config.ExecutorID},
		},
		executor: executor,
		term:     newTerminator(),
		tasks:    map[string]*protocol.TaskInfo{},
		updates:  map[uuid.UUID]*protocol.TaskStatus{},
	}
}

// Run the protocol event loop over the given connection until the
// connection terminates. Returns an error only for protocol
// violations, which indicate desynchronization with the agent and are
// not recoverable in process.
func (d *ExecutorDriver) Run(conn agent.Connection) error {
	d.mu.Lock()
	d.conn = conn
	d.mu.Unlock()

	for event := range conn.Events() {
		if err := d.handleEvent(event); err != nil {
			conn.Abort()
			return err
		}
	}

	return nil
}

// Builds the subscription handshake from the current unacknowledged
// state. Pure snapshot, no side effects. The transport invokes this on
// every connection attempt.
func (d *ExecutorDriver) Subscription() *protocol.Call {
	d.mu.Lock()
	defer d.mu.Unlock()

	tasks := make([]protocol.TaskInfo, 0, len(d.tasks))
	for _, task := range d.tasks {
		tasks = append(tasks, *task)
	}

	updates := make([]protocol.TaskStatus, 0, len(d.updates))
	for _, update := range d.updates {
		updates = append(updates, *update)
	}

	return protocol.NewSubscribeCall(d.identity, tasks, updates)
}

// Report a task status update to the agent.
// Defaults are assigned once, here. The update is tracked until
// acknowledged and replayed in every subscription handshake; failure
// to transmit is therefore not an error.
func (d *ExecutorDriver) Update(status protocol.TaskStatus) {
	status.EnsureDefaults()

	token, err := status.Token()
	if err != nil {
		log.Error("Refusing status update with malformed token:", err)
		return
	}

	d.mu.Lock()
	stored := status
	d.updates[token] = &stored
	conn := d.conn
	d.mu.Unlock()

	log.Infof("Sending status update %s for task %s", status.State, status.TaskID.Value)
	if conn != nil {
		conn.Send(protocol.NewUpdateCall(d.identity, status))
	}
}

// Send an opaque message to the framework. Not tracked, not replayed.
func (d *ExecutorDriver) Message(data []byte) {
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()

	log.Infof("Sending framework message of %d bytes", len(data))
	if conn != nil {
		conn.Send(protocol.NewMessageCall(d.identity, data))
	}
}

func (d *ExecutorDriver) Statistics() Statistics {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Statistics{
		Tasks:          len(d.tasks),
		PendingUpdates: len(d.updates),
		Registered:     d.executorInfo != nil,
		ShutdownArmed:  d.term.Armed(),
	}
}

func (d *ExecutorDriver) handleEvent(event *protocol.Event) error {
	switch event.Type {
	case protocol.EventSubscribed:
		return d.onSubscribed(event.Subscribed)

	case protocol.EventLaunch:
		return d.onLaunch(event.Launch)

	case protocol.EventLaunchGroup:
		return d.onLaunch(event.LaunchGroup)

	case protocol.EventKill:
		d.invoke(event.Type, func() {
			d.executor.OnKill(d, event.Kill.TaskID)
		})

	case protocol.EventAcknowledged:
		d.onAcknowledged(event.Acknowledged)

	case protocol.EventMessage:
		d.invoke(event.Type, func() {
			d.executor.OnMessage(d, event.Message.Data)
		})

	case protocol.EventError:
		log.Error("Agent reported error:", event.Error.Message)
		d.invoke(event.Type, func() {
			d.executor.OnError(d, event.Error.Message)
		})

	case protocol.EventShutdown:
		d.onShutdown()

	case protocol.EventClosed:
		d.onClosed()

	default:
		// Unknown event types are dropped to stay forward compatible
		// with protocol evolution.
		log.Warnf("Unhandled event %s", event.Type)
	}

	return nil
}

func (d *ExecutorDriver) onSubscribed(event *protocol.SubscribedEvent) error {
	if event.ExecutorInfo.ExecutorID != d.identity.ExecutorID ||
		event.FrameworkInfo.ID != d.identity.FrameworkID {
		return fmt.Errorf("%w: subscribed as %s/%s but agent sent %s/%s",
			utils.ErrProtocolViolation,
			d.identity.FrameworkID.Value, d.identity.ExecutorID.Value,
			event.FrameworkInfo.ID.Value, event.ExecutorInfo.ExecutorID.Value)
	}

	d.mu.Lock()
	registered := d.executorInfo != nil && d.frameworkInfo != nil
	if !registered {
		d.executorInfo = &event.ExecutorInfo
		d.frameworkInfo = &event.FrameworkInfo
	}
	d.mu.Unlock()

	if registered {
		log.Info("Reregistered with agent", event.AgentInfo.ID.Value)
		d.invoke(protocol.EventSubscribed, func() {
			d.executor.OnReregistered(d, event.AgentInfo)
		})
	} else {
		log.Info("Registered with agent", event.AgentInfo.ID.Value)
		d.invoke(protocol.EventSubscribed, func() {
			d.executor.OnRegistered(d, event.ExecutorInfo, event.FrameworkInfo, event.AgentInfo)
		})
	}

	return nil
}

func (d *ExecutorDriver) onLaunch(event *protocol.LaunchEvent) error {
	task := event.Task

	d.mu.Lock()
	if _, ok := d.tasks[task.TaskID.Value]; ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: task %s launched twice",
			utils.ErrProtocolViolation, task.TaskID.Value)
	}
	d.tasks[task.TaskID.Value] = &task
	d.mu.Unlock()

	log.Info("Launching task", task.TaskID.Value)
	d.invoke(protocol.EventLaunch, func() {
		d.executor.OnLaunch(d, task)
	})

	return nil
}

// The agent acknowledges one status update and thereby also the task
// it belongs to. Unknown tokens and task ids are ignored; the agent
// may acknowledge the same update more than once after a replay.
func (d *ExecutorDriver) onAcknowledged(event *protocol.AcknowledgedEvent) {
	token, err := uuid.FromBytes(event.UUID)
	if err != nil {
		log.Warn("Ignoring acknowledgement with malformed token:", err)
		return
	}

	d.mu.Lock()
	delete(d.updates, token)
	delete(d.tasks, event.TaskID.Value)
	d.mu.Unlock()

	log.Debugf("Update %s for task %s acknowledged", token, event.TaskID.Value)
}

func (d *ExecutorDriver) onShutdown() {
	d.mu.Lock()
	conn := d.conn
	already := d.shutdown
	d.shutdown = true
	d.mu.Unlock()

	if already {
		return
	}

	log.Info("Shutdown requested by agent")

	if !d.config.Local {
		d.term.Arm(d.config.ShutdownGracePeriod)
	}

	d.invoke(protocol.EventShutdown, func() {
		d.executor.OnShutdown(d)
	})

	if conn != nil {
		conn.Stop()
	}
}

// The transport lost the event stream. A checkpointing agent restarts
// and replays, so the executor just waits for resubscription. Without
// checkpointing the agent is gone for good and the executor tears
// itself down.
func (d *ExecutorDriver) onClosed() {
	if d.config.Checkpoint {
		log.Debug("Event stream closed, awaiting resubscription")
		return
	}

	d.mu.Lock()
	conn := d.conn
	already := d.shutdown
	d.shutdown = true
	d.mu.Unlock()

	if already {
		return
	}

	log.Warn("Lost connection to non-checkpointing agent, shutting down")

	if !d.config.Local {
		d.term.Arm(d.config.ShutdownGracePeriod)
	}

	d.invoke(protocol.EventClosed, func() {
		d.executor.OnShutdown(d)
	})

	if conn != nil {
		conn.Abort()
	}
}

// Callback failures are isolated per event: a panicking executor
// callback must not take down the dispatcher or the connection.
func (d *ExecutorDriver) invoke(event protocol.EventType, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Executor callback for %s panicked: %v", event, r)
		}
	}()

	fn()
}

// Reports whether err is fatal to the process rather than to a single
// event. Used by callers of Run.
func IsProtocolViolation(err error) bool {
	return errors.Is(err, utils.ErrProtocolViolation)
}
