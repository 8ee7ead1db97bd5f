// Package runner provides an executor implementation that runs task
// commands in their own process groups.
package runner

import (
	"path"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/srand/mexec/pkg/executor"
	"github.com/srand/mexec/pkg/log"
	"github.com/srand/mexec/pkg/protocol"
	"github.com/srand/mexec/pkg/utils"
)

// How long an interrupted task gets to exit before its process group
// is killed.
const killGracePeriod = 5 * time.Second

type task struct {
	cmd    *utils.Command
	killed bool
	done   chan struct{}
}

type runner struct {
	// Sandbox filesystem. One directory per task, removed when the
	// task reaches a terminal state.
	fs afero.Fs

	// Real path of the sandbox root, or empty when the sandbox is
	// not backed by the host filesystem. Task working directories are
	// only assigned when set.
	workDir string

	mu    sync.Mutex
	tasks map[string]*task

	// Kill requests for tasks whose process has not been registered
	// yet. Consumed when the task registers.
	kills map[string]bool
}

func NewRunner(fs afero.Fs, workDir string) *runner {
	return &runner{
		fs:      fs,
		workDir: workDir,
		tasks:   map[string]*task{},
		kills:   map[string]bool{},
	}
}

func (r *runner) OnRegistered(driver executor.Driver, executorInfo protocol.ExecutorInfo, frameworkInfo protocol.FrameworkInfo, agentInfo protocol.AgentInfo) {
	log.Info("Registered executor", executorInfo.ExecutorID.Value, "for framework", frameworkInfo.ID.Value)
}

func (r *runner) OnReregistered(driver executor.Driver, agentInfo protocol.AgentInfo) {
	log.Info("Reregistered with agent", agentInfo.ID.Value)
}

func (r *runner) OnLaunch(driver executor.Driver, info protocol.TaskInfo) {
	driver.Update(protocol.TaskStatus{
		TaskID: info.TaskID,
		State:  protocol.TaskStarting,
	})

	go r.run(driver, info)
}

func (r *runner) OnKill(driver executor.Driver, taskID protocol.ID) {
	r.mu.Lock()
	t := r.tasks[taskID.Value]
	if t != nil {
		t.killed = true
	} else {
		// The task may have been launched but not registered yet.
		// Record the kill so registration picks it up.
		r.kills[taskID.Value] = true
	}
	r.mu.Unlock()

	if t == nil {
		log.Info("Kill requested for unregistered task, deferring:", taskID.Value)
		return
	}

	log.Info("Killing task", taskID.Value)
	if err := t.cmd.Interrupt(); err != nil {
		log.Debug(err)
	}

	go func() {
		select {
		case <-t.done:
		case <-time.After(killGracePeriod):
			log.Warn("Task ignored interrupt, killing process group:", taskID.Value)
			if err := t.cmd.Kill(); err != nil {
				log.Debug(err)
			}
		}
	}()
}

func (r *runner) OnMessage(driver executor.Driver, data []byte) {
	// Framework messages are echoed back. Both directions are best
	// effort.
	driver.Message(data)
}

func (r *runner) OnError(driver executor.Driver, message string) {
	log.Error("Agent error:", message)
}

func (r *runner) OnShutdown(driver executor.Driver) {
	r.mu.Lock()
	tasks := make([]*task, 0, len(r.tasks))
	for _, t := range r.tasks {
		t.killed = true
		tasks = append(tasks, t)
	}
	r.mu.Unlock()

	log.Infof("Shutting down, killing %d live tasks", len(tasks))
	for _, t := range tasks {
		if err := t.cmd.Kill(); err != nil {
			log.Debug(err)
		}
	}
}

// Number of tasks with a live process.
func (r *runner) LiveTasks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

func (r *runner) run(driver executor.Driver, info protocol.TaskInfo) {
	id := info.TaskID.Value

	// A deferred kill that was never consumed cannot be honored once
	// this task is gone.
	defer func() {
		r.mu.Lock()
		delete(r.kills, id)
		r.mu.Unlock()
	}()

	argv, err := commandArgv(info.Command)
	if err != nil {
		driver.Update(protocol.TaskStatus{
			TaskID:  info.TaskID,
			State:   protocol.TaskFailed,
			Message: err.Error(),
		})
		return
	}

	sandbox, stdout, stderr, err := r.createSandbox(info)
	if err != nil {
		log.Error("Failed to create task sandbox:", err)
		driver.Update(protocol.TaskStatus{
			TaskID:  info.TaskID,
			State:   protocol.TaskFailed,
			Message: err.Error(),
		})
		return
	}
	defer stdout.Close()
	defer stderr.Close()
	defer r.removeSandbox(sandbox)

	cmd := utils.NewCommand(argv...)
	cmd.SetStdout(stdout)
	cmd.SetStderr(stderr)
	if r.workDir != "" {
		cmd.SetDir(path.Join(r.workDir, sandbox))
	}

	log.Info("Running task", id)
	if err := cmd.Start(); err != nil {
		driver.Update(protocol.TaskStatus{
			TaskID:  info.TaskID,
			State:   protocol.TaskFailed,
			Message: err.Error(),
		})
		return
	}

	t := &task{cmd: cmd, done: make(chan struct{})}
	r.mu.Lock()
	t.killed = r.kills[id]
	delete(r.kills, id)
	r.tasks[id] = t
	r.mu.Unlock()

	if t.killed {
		log.Info("Killing task on deferred request:", id)
		if err := cmd.Kill(); err != nil {
			log.Debug(err)
		}
	}

	driver.Update(protocol.TaskStatus{
		TaskID: info.TaskID,
		State:  protocol.TaskRunning,
	})

	err = cmd.Wait()
	close(t.done)

	r.mu.Lock()
	killed := t.killed
	delete(r.tasks, id)
	r.mu.Unlock()

	status := protocol.TaskStatus{TaskID: info.TaskID}
	switch {
	case killed:
		status.State = protocol.TaskKilled
	case err != nil:
		status.State = protocol.TaskFailed
		status.Message = err.Error()
	default:
		status.State = protocol.TaskFinished
	}

	log.Infof("Task %s terminated with status %s", id, status.State)
	driver.Update(status)
}

// The sandbox holds the task payload and the captured output streams.
func (r *runner) createSandbox(info protocol.TaskInfo) (string, afero.File, afero.File, error) {
	sandbox := info.TaskID.Value

	if err := r.fs.MkdirAll(sandbox, 0777); err != nil {
		return "", nil, nil, err
	}

	if len(info.Data) > 0 {
		if err := afero.WriteFile(r.fs, path.Join(sandbox, "data"), info.Data, 0666); err != nil {
			r.removeSandbox(sandbox)
			return "", nil, nil, err
		}
	}

	stdout, err := r.fs.Create(path.Join(sandbox, "stdout"))
	if err != nil {
		r.removeSandbox(sandbox)
		return "", nil, nil, err
	}

	stderr, err := r.fs.Create(path.Join(sandbox, "stderr"))
	if err != nil {
		stdout.Close()
		r.removeSandbox(sandbox)
		return "", nil, nil, err
	}

	return sandbox, stdout, stderr, nil
}

func (r *runner) removeSandbox(sandbox string) {
	if err := r.fs.RemoveAll(sandbox); err != nil {
		log.Warn("Failed to remove task sandbox:", err)
	}
}

func commandArgv(command *protocol.CommandInfo) ([]string, error) {
	if command == nil || command.Value == "" {
		return nil, utils.NewDetailedError("Task has no command", "")
	}

	if command.Shell {
		return []string{"/bin/sh", "-c", command.Value}, nil
	}

	return append([]string{command.Value}, command.Arguments...), nil
}
