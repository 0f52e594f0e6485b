package adapters

import (
	"avatar-video-api/application/ports/outbound"
	"fmt"

	"github.com/panjf2000/ants/v2"
)

// NewWorkerPool builds an ants pool. The server keeps one for pipeline jobs and one for progress watchers.
// Panics inside a task are logged instead of crashing the process.
func NewWorkerPool(size int, logger outbound.LoggerPort) (*ants.Pool, error) {
	panicHandler := func(p interface{}) {
		logger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}
	return ants.NewPool(size, ants.WithPanicHandler(panicHandler), ants.WithNonblocking(true))
}

var _ outbound.TaskDispatcher = (*ants.Pool)(nil)
