package controllers

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/application/services"
	"avatar-video-api/domain"
	"avatar-video-api/infrastructure/adapters"
	"avatar-video-api/middleware"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type goDispatcher struct{}

func (goDispatcher) Submit(task func()) error {
	go task()
	return nil
}

type fakePipeline struct {
	mu       sync.Mutex
	requests []domain.GenerationRequest
	store    outbound.ProgressStorePort
	err      error
}

func (f *fakePipeline) Submit(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	jobID := "job-1"
	f.store.Initialize(ctx, jobID, domain.NewProgressRecord(jobID, time.Now()))
	return jobID, nil
}

func (f *fakePipeline) Shutdown(ctx context.Context) error {
	return nil
}

func newTestRouter(pipeline *fakePipeline, store outbound.ProgressStorePort) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := adapters.NewZerologWrapperWithWriter(io.Discard, "debug")
	reader := services.NewProgressReader(logger, store, goDispatcher{})
	controller := NewVideoJobsController(logger, pipeline, reader, 5*time.Millisecond)

	router := gin.New()
	controller.RegisterRoutes(router)
	return router
}

func TestVideoJobsController_SubmitVideo(t *testing.T) {
	store := adapters.NewMemoryProgressStore()
	pipeline := &fakePipeline{store: store}
	router := newTestRouter(pipeline, store)

	body := `{"script_source":"custom","script":"Hello world","voice_id":"v1",
		"supporting_media":{"file_name":"bg.png","content":"aGVsbG8="}}`
	req := httptest.NewRequest(http.MethodPost, "/videos", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var res map[string]string
	json.Unmarshal(rr.Body.Bytes(), &res)
	if res["job_id"] != "job-1" {
		t.Errorf("unexpected response %v", res)
	}

	got := pipeline.requests[0]
	if got.Script != "Hello world" || got.ScriptSource != domain.CustomScriptSource {
		t.Errorf("unexpected request %+v", got)
	}
	if got.SupportingMedia == nil || string(got.SupportingMedia.Content) != "hello" {
		t.Errorf("expected decoded media content, got %+v", got.SupportingMedia)
	}
}

func TestVideoJobsController_SubmitUsesAuthenticatedUser(t *testing.T) {
	store := adapters.NewMemoryProgressStore()
	pipeline := &fakePipeline{store: store}
	gin.SetMode(gin.TestMode)
	logger := adapters.NewZerologWrapperWithWriter(io.Discard, "debug")
	controller := NewVideoJobsController(logger, pipeline, services.NewProgressReader(logger, store, goDispatcher{}), time.Millisecond)

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set(middleware.ContextUserIDKey, "sub-1") })
	controller.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/videos", strings.NewReader(`{"voice_id":"v","user_id":"spoofed"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rr.Code)
	}
	if pipeline.requests[0].UserID != "sub-1" {
		t.Errorf("expected the token subject, got %q", pipeline.requests[0].UserID)
	}
}

func TestVideoJobsController_SubmitMalformedJSON(t *testing.T) {
	store := adapters.NewMemoryProgressStore()
	router := newTestRouter(&fakePipeline{store: store}, store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/videos", bytes.NewBufferString("{not json")))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestVideoJobsController_SubmitSchedulingFailure(t *testing.T) {
	store := adapters.NewMemoryProgressStore()
	router := newTestRouter(&fakePipeline{store: store, err: errors.New("pool overload")}, store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/videos", strings.NewReader(`{"voice_id":"v"}`)))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestVideoJobsController_GetProgress(t *testing.T) {
	store := adapters.NewMemoryProgressStore()
	router := newTestRouter(&fakePipeline{store: store}, store)
	ctx := context.Background()
	store.Initialize(ctx, "job-7", domain.NewProgressRecord("job-7", time.Now()))
	store.Merge(ctx, "job-7", domain.ScriptPatch("Hello world"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/videos/job-7/progress", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var record domain.ProgressRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &record); err != nil {
		t.Fatal("Failed to decode record:", err)
	}
	if record.Percent != domain.ScriptReadyPercent || record.ScriptText != "Hello world" {
		t.Errorf("unexpected record %+v", record)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/videos/unknown/progress", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestVideoJobsController_StreamProgress(t *testing.T) {
	store := adapters.NewMemoryProgressStore()
	router := newTestRouter(&fakePipeline{store: store}, store)
	ctx := context.Background()
	store.Initialize(ctx, "job-9", domain.NewProgressRecord("job-9", time.Now()))

	go func() {
		time.Sleep(20 * time.Millisecond)
		store.Merge(ctx, "job-9", domain.StagePatch(domain.ComposingVideoStage, domain.ComposingVideoPercent))
		time.Sleep(20 * time.Millisecond)
		store.Merge(ctx, "job-9", domain.SucceededPatch("https://cdn.example.com/final.mp4"))
	}()

	server := httptest.NewServer(router)
	defer server.Close()

	res, err := http.Get(server.URL + "/videos/job-9/progress/stream")
	if err != nil {
		t.Fatal("Failed to open stream:", err)
	}
	defer res.Body.Close()

	if ct := res.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	payload, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal("Failed to read stream:", err)
	}

	text := string(payload)
	if strings.Count(text, "event:progress") < 2 {
		t.Errorf("expected several progress events, got %s", text)
	}
	if !strings.Contains(text, "final.mp4") {
		t.Errorf("expected the terminal record in the stream, got %s", text)
	}
}

func TestVideoJobsController_StreamUnknownJob(t *testing.T) {
	store := adapters.NewMemoryProgressStore()
	router := newTestRouter(&fakePipeline{store: store}, store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/videos/nope/progress/stream", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestVideoJobsController_Health(t *testing.T) {
	store := adapters.NewMemoryProgressStore()
	router := newTestRouter(&fakePipeline{store: store}, store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}
