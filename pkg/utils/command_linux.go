//go:build linux

package utils

import (
	"io"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// A task command running in its own process group, so that the whole
// process tree can be signalled at once.
type Command struct {
	cmd *exec.Cmd
}

func NewCommand(args ...string) *Command {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: 0}
	return &Command{cmd: cmd}
}

func (c *Command) Start() error {
	return c.cmd.Start()
}

func (c *Command) Wait() error {
	return c.cmd.Wait()
}

func (c *Command) Interrupt() error {
	return unix.Kill(-c.GetPid(), unix.SIGINT)
}

func (c *Command) Kill() error {
	return unix.Kill(-c.GetPid(), unix.SIGKILL)
}

func (c *Command) SetStdout(w io.Writer) {
	c.cmd.Stdout = w
}

func (c *Command) SetStderr(w io.Writer) {
	c.cmd.Stderr = w
}

func (c *Command) SetDir(dir string) {
	c.cmd.Dir = dir
}

func (c *Command) Args() []string {
	return c.cmd.Args
}

func (c *Command) GetPid() int {
	return c.cmd.Process.Pid
}

func (c *Command) Process() *os.Process {
	return c.cmd.Process
}

// Kill the entire process group of the calling process, this process
// included. Used by the forced shutdown path once the grace period has
// run out.
func KillOwnProcessGroup() error {
	return unix.Kill(0, unix.SIGKILL)
}
