package executor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/srand/mexec/pkg/log"
	"github.com/srand/mexec/pkg/utils"
)

// Enforces bounded time shutdown.
//
// Once armed, a timer on its own goroutine kills the entire process
// group when the grace period runs out. There is no way to cancel it:
// the timer deliberately races the rest of shutdown processing so that
// a hung executor callback cannot keep the process alive. Only the
// first arming takes effect.
type terminator struct {
	once  sync.Once
	armed atomic.Bool
	kill  func() error
}

func newTerminator() *terminator {
	return &terminator{
		kill: utils.KillOwnProcessGroup,
	}
}

func (t *terminator) Arm(grace time.Duration) {
	t.once.Do(func() {
		t.armed.Store(true)
		log.Infof("Forced termination in %v", grace)

		go func() {
			time.Sleep(grace)
			log.Warn("Shutdown grace period expired, killing process group")
			if err := t.kill(); err != nil {
				log.Error("Failed to kill process group:", err)
			}
		}()
	})
}

func (t *terminator) Armed() bool {
	return t.armed.Load()
}
