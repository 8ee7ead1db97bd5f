package executor

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

func NewHttpHandler(driver *ExecutorDriver, r *echo.Echo) {
	r.GET("/metrics", func(c echo.Context) error {
		stats := driver.Statistics()

		metrics := fmt.Sprintln("# TYPE mexec_executor_tasks gauge")
		metrics += fmt.Sprintln("# HELP mexec_executor_tasks The number of currently tracked tasks.")
		metrics += fmt.Sprintf("mexec_executor_tasks %d\n", stats.Tasks)

		metrics += fmt.Sprintln("# TYPE mexec_executor_pending_updates gauge")
		metrics += fmt.Sprintln("# HELP mexec_executor_pending_updates The number of unacknowledged status updates.")
		metrics += fmt.Sprintf("mexec_executor_pending_updates %d\n", stats.PendingUpdates)

		metrics += fmt.Sprintln("# TYPE mexec_executor_registered gauge")
		metrics += fmt.Sprintln("# HELP mexec_executor_registered Whether the executor has registered with the agent.")
		metrics += fmt.Sprintf("mexec_executor_registered %d\n", boolToGauge(stats.Registered))

		metrics += fmt.Sprintln("# TYPE mexec_executor_shutdown_armed gauge")
		metrics += fmt.Sprintln("# HELP mexec_executor_shutdown_armed Whether the forced shutdown timer has been armed.")
		metrics += fmt.Sprintf("mexec_executor_shutdown_armed %d\n", boolToGauge(stats.ShutdownArmed))

		return c.String(http.StatusOK, metrics)
	})
}

func boolToGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}
