package services

import (
	"avatar-video-api/application/ports/inbound"
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/domain"
	"context"
	"time"
)

const defaultWatchInterval = time.Second

type progressReader struct {
	logger     outbound.LoggerPort
	store      outbound.ProgressStorePort
	workerPool outbound.TaskDispatcher
}

func NewProgressReader(logger outbound.LoggerPort, store outbound.ProgressStorePort, workerPool outbound.TaskDispatcher) inbound.ProgressReaderPort {
	return &progressReader{
		logger:     logger,
		store:      store,
		workerPool: workerPool,
	}
}

func (p *progressReader) Read(ctx context.Context, jobID string) (domain.ProgressRecord, error) {
	return p.store.Read(ctx, jobID)
}

// Watch emits a snapshot every time the record changes and closes both channels after the
// terminal snapshot, on the first read error, or when ctx is done.
func (p *progressReader) Watch(ctx context.Context, jobID string, interval time.Duration) (<-chan domain.ProgressRecord, <-chan error) {
	out := make(chan domain.ProgressRecord)
	errCh := make(chan error, 1)
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	err := p.workerPool.Submit(func() {
		defer close(out)
		defer close(errCh)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last domain.ProgressRecord
		first := true
		for {
			record, err := p.store.Read(ctx, jobID)
			if err != nil {
				if ctx.Err() == nil {
					errCh <- err
				}
				return
			}

			if first || changed(last, record) {
				select {
				case out <- record:
				case <-ctx.Done():
					return
				}
				first = false
				last = record
			}
			if record.IsTerminal() {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	})
	if err != nil {
		p.logger.Error(err, "Failed to submit progress watcher")
		errCh <- err
		close(errCh)
		close(out)
	}

	return out, errCh
}

func changed(prev, next domain.ProgressRecord) bool {
	return prev.Percent != next.Percent ||
		prev.Stage != next.Stage ||
		prev.StageDetail != next.StageDetail ||
		prev.Status != next.Status ||
		!prev.UpdatedAt.Equal(next.UpdatedAt)
}
