package protocol

// An opaque identifier assigned by the orchestrator.
type ID struct {
	Value string `json:"value"`
}

// The identity of this executor within the cluster.
// Assigned by the agent at launch and immutable for the process lifetime.
type Identity struct {
	FrameworkID ID
	ExecutorID  ID
}

// Returns true if both identifiers are non-empty.
func (i Identity) Valid() bool {
	return i.FrameworkID.Value != "" && i.ExecutorID.Value != ""
}

type ExecutorInfo struct {
	ExecutorID ID     `json:"executor_id"`
	Name       string `json:"name,omitempty"`
	Data       []byte `json:"data,omitempty"`
}

type FrameworkInfo struct {
	ID   ID     `json:"id"`
	Name string `json:"name,omitempty"`
	User string `json:"user,omitempty"`
}

type AgentInfo struct {
	ID       ID     `json:"id"`
	Hostname string `json:"hostname,omitempty"`
	Port     int    `json:"port,omitempty"`
}

// The command a task should run.
// If Shell is set, Value is passed to the system shell and Arguments
// are ignored.
type CommandInfo struct {
	Value     string   `json:"value"`
	Arguments []string `json:"arguments,omitempty"`
	Shell     bool     `json:"shell,omitempty"`
}

// A task as handed to the executor by the agent.
type TaskInfo struct {
	TaskID  ID           `json:"task_id"`
	Name    string       `json:"name,omitempty"`
	Command *CommandInfo `json:"command,omitempty"`
	Data    []byte       `json:"data,omitempty"`
}
