package runner

import (
	"path"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/srand/mexec/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Implements executor.Driver
type fakeDriver struct {
	mu       sync.Mutex
	updates  chan protocol.TaskStatus
	messages [][]byte
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{updates: make(chan protocol.TaskStatus, 16)}
}

func (d *fakeDriver) Update(status protocol.TaskStatus) {
	d.updates <- status
}

func (d *fakeDriver) Message(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, data)
}

func awaitUpdate(t *testing.T, driver *fakeDriver) protocol.TaskStatus {
	t.Helper()

	select {
	case status := <-driver.updates:
		return status
	case <-time.After(10 * time.Second):
		t.Fatal("Timeout waiting for status update")
		return protocol.TaskStatus{}
	}
}

func awaitState(t *testing.T, driver *fakeDriver, state protocol.TaskState) protocol.TaskStatus {
	t.Helper()

	status := awaitUpdate(t, driver)
	require.Equal(t, state, status.State)
	return status
}

func shellTask(id, command string) protocol.TaskInfo {
	return protocol.TaskInfo{
		TaskID:  protocol.ID{Value: id},
		Name:    id,
		Command: &protocol.CommandInfo{Value: command, Shell: true},
	}
}

func TestTaskFinishes(t *testing.T) {
	driver := newFakeDriver()
	runner := NewRunner(afero.NewMemMapFs(), "")

	runner.OnLaunch(driver, shellTask("T1", "exit 0"))

	awaitState(t, driver, protocol.TaskStarting)
	awaitState(t, driver, protocol.TaskRunning)
	awaitState(t, driver, protocol.TaskFinished)
	assert.Equal(t, 0, runner.LiveTasks())
}

func TestTaskFails(t *testing.T) {
	driver := newFakeDriver()
	runner := NewRunner(afero.NewMemMapFs(), "")

	runner.OnLaunch(driver, shellTask("T1", "exit 1"))

	awaitState(t, driver, protocol.TaskStarting)
	awaitState(t, driver, protocol.TaskRunning)
	status := awaitState(t, driver, protocol.TaskFailed)
	assert.NotEmpty(t, status.Message)
}

func TestTaskWithArguments(t *testing.T) {
	driver := newFakeDriver()
	runner := NewRunner(afero.NewMemMapFs(), "")

	runner.OnLaunch(driver, protocol.TaskInfo{
		TaskID:  protocol.ID{Value: "T1"},
		Command: &protocol.CommandInfo{Value: "true", Arguments: []string{"ignored"}},
	})

	awaitState(t, driver, protocol.TaskStarting)
	awaitState(t, driver, protocol.TaskRunning)
	awaitState(t, driver, protocol.TaskFinished)
}

func TestTaskWithoutCommandFails(t *testing.T) {
	driver := newFakeDriver()
	runner := NewRunner(afero.NewMemMapFs(), "")

	runner.OnLaunch(driver, protocol.TaskInfo{TaskID: protocol.ID{Value: "T1"}})

	awaitState(t, driver, protocol.TaskStarting)
	status := awaitState(t, driver, protocol.TaskFailed)
	assert.NotEmpty(t, status.Message)
}

func TestTaskWithBogusExecutableFails(t *testing.T) {
	driver := newFakeDriver()
	runner := NewRunner(afero.NewMemMapFs(), "")

	runner.OnLaunch(driver, protocol.TaskInfo{
		TaskID:  protocol.ID{Value: "T1"},
		Command: &protocol.CommandInfo{Value: "/no/such/binary"},
	})

	awaitState(t, driver, protocol.TaskStarting)
	status := awaitState(t, driver, protocol.TaskFailed)
	assert.NotEmpty(t, status.Message)
}

func TestKillInterruptsTask(t *testing.T) {
	driver := newFakeDriver()
	runner := NewRunner(afero.NewMemMapFs(), "")

	runner.OnLaunch(driver, shellTask("T1", "sleep 60"))

	awaitState(t, driver, protocol.TaskStarting)
	awaitState(t, driver, protocol.TaskRunning)

	runner.OnKill(driver, protocol.ID{Value: "T1"})

	awaitState(t, driver, protocol.TaskKilled)
	assert.Equal(t, 0, runner.LiveTasks())
}

func TestKillRightAfterLaunchStillKills(t *testing.T) {
	driver := newFakeDriver()
	runner := NewRunner(afero.NewMemMapFs(), "")

	// The kill races the run goroutine and may arrive before the
	// task process has been registered. It must be honored either way.
	runner.OnLaunch(driver, shellTask("T1", "sleep 60"))
	runner.OnKill(driver, protocol.ID{Value: "T1"})

	awaitState(t, driver, protocol.TaskStarting)
	awaitState(t, driver, protocol.TaskRunning)
	awaitState(t, driver, protocol.TaskKilled)
	assert.Equal(t, 0, runner.LiveTasks())
}

func TestKillUnknownTaskIsNoop(t *testing.T) {
	driver := newFakeDriver()
	runner := NewRunner(afero.NewMemMapFs(), "")

	runner.OnKill(driver, protocol.ID{Value: "nope"})
	assert.Empty(t, driver.updates)
}

func TestShutdownKillsLiveTasks(t *testing.T) {
	driver := newFakeDriver()
	runner := NewRunner(afero.NewMemMapFs(), "")

	runner.OnLaunch(driver, shellTask("T1", "sleep 60"))
	awaitState(t, driver, protocol.TaskStarting)
	awaitState(t, driver, protocol.TaskRunning)

	runner.OnShutdown(driver)

	awaitState(t, driver, protocol.TaskKilled)
	assert.Equal(t, 0, runner.LiveTasks())
}

func TestSandboxLifecycle(t *testing.T) {
	fs := afero.NewMemMapFs()
	driver := newFakeDriver()
	runner := NewRunner(fs, "")

	info := shellTask("T1", "sleep 60")
	info.Data = []byte("payload")
	runner.OnLaunch(driver, info)

	awaitState(t, driver, protocol.TaskStarting)
	awaitState(t, driver, protocol.TaskRunning)

	data, err := afero.ReadFile(fs, path.Join("T1", "data"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	for _, name := range []string{"stdout", "stderr"} {
		exists, err := afero.Exists(fs, path.Join("T1", name))
		require.NoError(t, err)
		assert.True(t, exists)
	}

	runner.OnKill(driver, protocol.ID{Value: "T1"})
	awaitState(t, driver, protocol.TaskKilled)

	// Removal happens in a deferred call after the terminal update.
	assert.Eventually(t, func() bool {
		exists, err := afero.DirExists(fs, "T1")
		return err == nil && !exists
	}, 5*time.Second, 10*time.Millisecond)
}

func TestTaskOutputIsCaptured(t *testing.T) {
	fs := afero.NewMemMapFs()
	driver := newFakeDriver()
	runner := NewRunner(fs, "")

	runner.OnLaunch(driver, shellTask("T1", "echo hello"))

	awaitState(t, driver, protocol.TaskStarting)
	awaitState(t, driver, protocol.TaskRunning)
	awaitState(t, driver, protocol.TaskFinished)
}

func TestMessageIsEchoed(t *testing.T) {
	driver := newFakeDriver()
	runner := NewRunner(afero.NewMemMapFs(), "")

	runner.OnMessage(driver, []byte("ping"))

	driver.mu.Lock()
	defer driver.mu.Unlock()
	require.Len(t, driver.messages, 1)
	assert.Equal(t, []byte("ping"), driver.messages[0])
}
