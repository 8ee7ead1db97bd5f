package protocol

import (
	"time"

	"github.com/google/uuid"
)

const SourceExecutor = "SOURCE_EXECUTOR"

// A status update for a task.
//
// The UUID is an opaque 16 byte token identifying this particular update.
// It travels base64 encoded on the wire and is echoed back by the agent
// in the ACKNOWLEDGED event.
type TaskStatus struct {
	TaskID    ID        `json:"task_id"`
	State     TaskState `json:"state"`
	Message   string    `json:"message,omitempty"`
	Source    string    `json:"source,omitempty"`
	Timestamp float64   `json:"timestamp,omitempty"`
	UUID      []byte    `json:"uuid,omitempty"`
	Data      []byte    `json:"data,omitempty"`
}

// Fills in timestamp, update token and source unless already set.
// Called once when the update is recorded. Fields that are already
// set are left untouched, so the call is idempotent.
func (s *TaskStatus) EnsureDefaults() {
	if s.Timestamp == 0 {
		s.Timestamp = float64(time.Now().Unix())
	}

	if len(s.UUID) == 0 {
		token := uuid.New()
		s.UUID = token[:]
	}

	if s.Source == "" {
		s.Source = SourceExecutor
	}
}

// The update token as a uuid, for use as a map key.
func (s *TaskStatus) Token() (uuid.UUID, error) {
	return uuid.FromBytes(s.UUID)
}
