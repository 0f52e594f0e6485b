package services

import (
	"avatar-video-api/domain"
	"avatar-video-api/infrastructure/adapters"
	"context"
	"errors"
	"testing"
	"time"
)

func TestProgressReader_Read(t *testing.T) {
	store := adapters.NewMemoryProgressStore()
	reader := NewProgressReader(newTestLogger(), store, goDispatcher{})
	ctx := context.Background()

	if _, err := reader.Read(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := store.Initialize(ctx, "job-1", domain.NewProgressRecord("job-1", time.Now())); err != nil {
		t.Fatal("Failed to initialize progress:", err)
	}
	record, err := reader.Read(ctx, "job-1")
	if err != nil {
		t.Fatal("Failed to read progress:", err)
	}
	if record.JobID != "job-1" || record.Status != domain.RunningJobStatus || record.Percent != 0 {
		t.Errorf("unexpected record %+v", record)
	}
}

func TestProgressReader_WatchUntilTerminal(t *testing.T) {
	store := adapters.NewMemoryProgressStore()
	reader := NewProgressReader(newTestLogger(), store, goDispatcher{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := store.Initialize(ctx, "job-1", domain.NewProgressRecord("job-1", time.Now())); err != nil {
		t.Fatal("Failed to initialize progress:", err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		store.Merge(ctx, "job-1", domain.ScriptPatch("Hello world"))
		time.Sleep(10 * time.Millisecond)
		store.Merge(ctx, "job-1", domain.SucceededPatch("https://cdn.example.com/final.mp4"))
	}()

	records, errs := reader.Watch(ctx, "job-1", 2*time.Millisecond)

	var percents []int
	for record := range records {
		percents = append(percents, record.Percent)
	}
	if err, ok := <-errs; ok && err != nil {
		t.Fatalf("unexpected watch error: %v", err)
	}

	if len(percents) < 2 || percents[0] != 0 || percents[len(percents)-1] != 100 {
		t.Errorf("unexpected snapshots %v", percents)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("expected non-decreasing snapshots, got %v", percents)
		}
	}
}

func TestProgressReader_WatchUnknownJob(t *testing.T) {
	reader := NewProgressReader(newTestLogger(), adapters.NewMemoryProgressStore(), goDispatcher{})

	records, errs := reader.Watch(context.Background(), "missing", time.Millisecond)

	if _, ok := <-records; ok {
		t.Error("expected no snapshots for an unknown job")
	}
	if err := <-errs; !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProgressReader_WatchStopsOnCancel(t *testing.T) {
	store := adapters.NewMemoryProgressStore()
	reader := NewProgressReader(newTestLogger(), store, goDispatcher{})
	ctx, cancel := context.WithCancel(context.Background())

	if _, err := store.Initialize(ctx, "job-1", domain.NewProgressRecord("job-1", time.Now())); err != nil {
		t.Fatal("Failed to initialize progress:", err)
	}

	records, errs := reader.Watch(ctx, "job-1", time.Millisecond)
	<-records
	cancel()

	select {
	case <-waitClosed(records):
	case <-time.After(time.Second):
		t.Fatal("expected the watch to stop after cancellation")
	}
	if err := <-errs; err != nil {
		t.Errorf("expected no error on cancellation, got %v", err)
	}
}

func TestProgressReader_WatchRejected(t *testing.T) {
	reader := NewProgressReader(newTestLogger(), adapters.NewMemoryProgressStore(), rejectingDispatcher{})

	records, errs := reader.Watch(context.Background(), "job-1", time.Millisecond)

	if err := <-errs; err == nil {
		t.Error("expected the dispatcher error")
	}
	if _, ok := <-records; ok {
		t.Error("expected the record channel to be closed")
	}
}

func waitClosed(records <-chan domain.ProgressRecord) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for range records {
		}
		close(done)
	}()
	return done
}
