package protocol

type TaskState string

const (
	TaskStarting TaskState = "TASK_STARTING"
	TaskRunning  TaskState = "TASK_RUNNING"
	TaskFinished TaskState = "TASK_FINISHED"
	TaskFailed   TaskState = "TASK_FAILED"
	TaskKilled   TaskState = "TASK_KILLED"
	TaskLost     TaskState = "TASK_LOST"
)

// Should return true if the task is no longer in progress
func (state TaskState) IsTerminal() bool {
	switch state {
	case TaskStarting, TaskRunning:
		return false
	default:
		return true
	}
}
