package services

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/domain"
	"avatar-video-api/infrastructure/adapters"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

func newTestLogger() outbound.LoggerPort {
	return adapters.NewZerologWrapperWithWriter(io.Discard, "debug")
}

type goDispatcher struct{}

func (goDispatcher) Submit(task func()) error {
	go task()
	return nil
}

type rejectingDispatcher struct{}

func (rejectingDispatcher) Submit(task func()) error {
	return errors.New("pool overload")
}

type recordingMetrics struct {
	mu        sync.Mutex
	submitted int
	finished  map[domain.JobStatus]int
	polls     map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		finished: make(map[domain.JobStatus]int),
		polls:    make(map[string]int),
	}
}

func (m *recordingMetrics) JobSubmitted(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted++
}

func (m *recordingMetrics) JobFinished(ctx context.Context, status domain.JobStatus, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished[status]++
}

func (m *recordingMetrics) PollAttempt(ctx context.Context, stage domain.Stage, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls[outcome]++
}

func (m *recordingMetrics) pollCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls[outcome]
}

func (m *recordingMetrics) finishedCount(status domain.JobStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished[status]
}

// historyStore wraps the memory store and keeps every merged snapshot per job.
type historyStore struct {
	outbound.ProgressStorePort
	mu          sync.Mutex
	history     map[string][]domain.ProgressRecord
	failInterim bool
}

func newHistoryStore() *historyStore {
	return &historyStore{
		ProgressStorePort: adapters.NewMemoryProgressStore(),
		history:           make(map[string][]domain.ProgressRecord),
	}
}

func (h *historyStore) Merge(ctx context.Context, jobID string, patch domain.ProgressPatch) (domain.ProgressRecord, error) {
	terminal := patch.Percent != nil && *patch.Percent == domain.TerminalPercent
	if h.failInterim && !terminal {
		return domain.ProgressRecord{}, errors.New("store unavailable")
	}
	record, err := h.ProgressStorePort.Merge(ctx, jobID, patch)
	if err == nil {
		h.mu.Lock()
		h.history[jobID] = append(h.history[jobID], record)
		h.mu.Unlock()
	}
	return record, err
}

func (h *historyStore) percents(jobID string) []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []int
	for _, r := range h.history[jobID] {
		if len(out) == 0 || out[len(out)-1] != r.Percent {
			out = append(out, r.Percent)
		}
	}
	return out
}

func (h *historyStore) reached(jobID string, stage domain.Stage, percent int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.history[jobID] {
		if r.Stage == stage && r.Percent == percent {
			return true
		}
	}
	return false
}

func waitForTerminal(t *testing.T, store outbound.ProgressStorePort, jobID string) domain.ProgressRecord {
	t.Helper()
	return waitForRecord(t, store, jobID, domain.ProgressRecord.IsTerminal)
}

func waitForRecord(t *testing.T, store outbound.ProgressStorePort, jobID string, ready func(domain.ProgressRecord) bool) domain.ProgressRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		record, err := store.Read(context.Background(), jobID)
		if err == nil && ready(record) {
			return record
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach the expected state", jobID)
	return domain.ProgressRecord{}
}
