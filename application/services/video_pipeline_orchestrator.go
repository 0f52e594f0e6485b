package services

import (
	"avatar-video-api/application/ports/inbound"
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/domain"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const terminalWriteTimeout = 10 * time.Second

var errShuttingDown = errors.New("pipeline is shutting down")

type PipelineOptions struct {
	PollInterval    time.Duration
	PollMaxAttempts int
}

type VideoPipelineDeps struct {
	Logger         outbound.LoggerPort
	WorkerPool     outbound.TaskDispatcher
	ProgressStore  outbound.ProgressStorePort
	MediaStage     inbound.MediaUploadStagePort
	ScriptAcquirer inbound.ScriptAcquirerPort
	Synthesizer    outbound.AvatarSynthesizerPort
	Compositor     outbound.VideoCompositorPort
	Cleaner        outbound.MediaCleanerPort
	Poller         *PollLoop
	Metrics        outbound.PipelineMetricsPort
}

type videoPipelineOrchestrator struct {
	logger         outbound.LoggerPort
	workerPool     outbound.TaskDispatcher
	store          outbound.ProgressStorePort
	mediaStage     inbound.MediaUploadStagePort
	scriptAcquirer inbound.ScriptAcquirerPort
	synthesizer    outbound.AvatarSynthesizerPort
	compositor     outbound.VideoCompositorPort
	cleaner        outbound.MediaCleanerPort
	poller         *PollLoop
	metrics        outbound.PipelineMetricsPort
	tracer         trace.Tracer
	options        PipelineOptions
	now            func() time.Time

	baseCtx    context.Context
	baseCancel context.CancelFunc
	mu         sync.Mutex
	running    map[string]context.CancelFunc
	closed     bool
	wg         sync.WaitGroup
}

func NewVideoPipelineOrchestrator(deps VideoPipelineDeps, options PipelineOptions) inbound.VideoPipelinePort {
	if options.PollInterval <= 0 {
		options.PollInterval = DefaultPollInterval
	}
	if options.PollMaxAttempts <= 0 {
		options.PollMaxAttempts = DefaultPollMaxAttempts
	}
	poller := deps.Poller
	if poller == nil {
		poller = NewPollLoop(deps.Logger, deps.Metrics)
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())

	return &videoPipelineOrchestrator{
		logger:         deps.Logger,
		workerPool:     deps.WorkerPool,
		store:          deps.ProgressStore,
		mediaStage:     deps.MediaStage,
		scriptAcquirer: deps.ScriptAcquirer,
		synthesizer:    deps.Synthesizer,
		compositor:     deps.Compositor,
		cleaner:        deps.Cleaner,
		poller:         poller,
		metrics:        deps.Metrics,
		tracer:         otel.Tracer("avatar-video-api/pipeline"),
		options:        options,
		now:            time.Now,
		baseCtx:        baseCtx,
		baseCancel:     baseCancel,
		running:        make(map[string]context.CancelFunc),
	}
}

// Submit returns as soon as the job is recorded and scheduled. The job runs on its own
// context, detached from ctx, so a finished HTTP request does not stop it.
func (o *videoPipelineOrchestrator) Submit(ctx context.Context, req domain.GenerationRequest) (string, error) {
	jobID := uuid.NewString()

	if _, err := o.store.Initialize(ctx, jobID, domain.NewProgressRecord(jobID, o.now())); err != nil {
		o.logger.ErrorWithFields(err, "Failed to initialize job progress", map[string]interface{}{
			"job_id": jobID,
		})
		return "", err
	}
	o.metrics.JobSubmitted(ctx)

	jobCtx, err := o.track(jobID)
	if err != nil {
		o.finish(ctx, o.logger, jobID, o.now(), "", err)
		return "", err
	}

	startedAt := o.now()
	err = o.workerPool.Submit(func() {
		defer o.untrack(jobID)
		o.run(jobCtx, jobID, req, startedAt)
	})
	if err != nil {
		o.untrack(jobID)
		o.logger.ErrorWithFields(err, "Failed to schedule job", map[string]interface{}{
			"job_id": jobID,
		})
		o.finish(ctx, o.logger, jobID, startedAt, "", fmt.Errorf("failed to schedule job: %w", err))
		return "", err
	}

	o.logger.InfoWithFields("Job submitted", map[string]interface{}{
		"job_id":        jobID,
		"script_source": req.ScriptSource,
	})
	return jobID, nil
}

// Shutdown cancels every running job and waits for their terminal records to be written.
func (o *videoPipelineOrchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.baseCancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *videoPipelineOrchestrator) track(jobID string) (context.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil, errShuttingDown
	}
	jobCtx, cancel := context.WithCancel(o.baseCtx)
	o.running[jobID] = cancel
	o.wg.Add(1)
	return jobCtx, nil
}

func (o *videoPipelineOrchestrator) untrack(jobID string) {
	o.mu.Lock()
	cancel, ok := o.running[jobID]
	delete(o.running, jobID)
	o.mu.Unlock()
	if ok {
		cancel()
		o.wg.Done()
	}
}

func (o *videoPipelineOrchestrator) run(ctx context.Context, jobID string, req domain.GenerationRequest, startedAt time.Time) {
	logger := o.logger.With(map[string]interface{}{"job_id": jobID})

	ctx, span := o.tracer.Start(ctx, "video_pipeline", trace.WithAttributes(
		attribute.String("job.id", jobID),
		attribute.String("job.script_source", string(req.ScriptSource)),
	))
	defer span.End()

	artifactURL, err := o.execute(ctx, logger, jobID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.finish(ctx, logger, jobID, startedAt, artifactURL, err)
}

func (o *videoPipelineOrchestrator) execute(ctx context.Context, logger outbound.LoggerPort, jobID string,
	req domain.GenerationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		logger.WarnWithFields("Rejecting invalid request", map[string]interface{}{"error": err.Error()})
		return "", err
	}

	cleanup := domain.NewCleanupSet()

	media, err := o.uploadMedia(ctx, logger, jobID, req, cleanup)
	if err != nil {
		return "", err
	}

	script, err := o.acquireScript(ctx, logger, jobID, req)
	if err != nil {
		return "", err
	}

	avatarURL, err := o.synthesizeAvatar(ctx, logger, jobID, req, script, media)
	if err != nil {
		return "", err
	}

	finalURL, err := o.composeVideo(ctx, logger, jobID, req, avatarURL, media)
	if err != nil {
		return "", err
	}

	o.cleanUp(ctx, logger, jobID, cleanup)

	return finalURL, nil
}

func (o *videoPipelineOrchestrator) uploadMedia(ctx context.Context, logger outbound.LoggerPort, jobID string,
	req domain.GenerationRequest, cleanup *domain.CleanupSet) (inbound.ResolvedMedia, error) {
	if err := checkCancelled(ctx, domain.UploadingMediaStage); err != nil {
		return inbound.ResolvedMedia{}, err
	}
	ctx, span := o.tracer.Start(ctx, string(domain.UploadingMediaStage))
	defer span.End()

	o.update(ctx, logger, jobID, domain.StagePatch(domain.UploadingMediaStage, domain.UploadingMediaPercent))

	media := o.mediaStage.Upload(ctx, inbound.UploadMediaParams{
		JobID:               jobID,
		UserID:              req.UserID,
		SupportingMedia:     req.SupportingMedia,
		VoiceCharacterMedia: req.VoiceCharacterMedia,
	}, cleanup)

	uploaded := domain.MediaUploadedPercent
	o.update(ctx, logger, jobID, domain.ProgressPatch{Percent: &uploaded})
	span.SetAttributes(attribute.Int("media.temporary_uploads", cleanup.Len()))

	return media, nil
}

func (o *videoPipelineOrchestrator) acquireScript(ctx context.Context, logger outbound.LoggerPort, jobID string,
	req domain.GenerationRequest) (string, error) {
	if err := checkCancelled(ctx, domain.GeneratingScriptStage); err != nil {
		return "", err
	}
	ctx, span := o.tracer.Start(ctx, string(domain.GeneratingScriptStage))
	defer span.End()

	o.update(ctx, logger, jobID, domain.StagePatch(domain.GeneratingScriptStage, domain.GeneratingScriptPercent))

	script, err := o.scriptAcquirer.Acquire(ctx, req)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	o.update(ctx, logger, jobID, domain.ScriptPatch(script))
	return script, nil
}

func (o *videoPipelineOrchestrator) synthesizeAvatar(ctx context.Context, logger outbound.LoggerPort, jobID string,
	req domain.GenerationRequest, script string, media inbound.ResolvedMedia) (string, error) {
	stage := domain.SynthesizingAvatarStage
	if err := checkCancelled(ctx, stage); err != nil {
		return "", err
	}
	ctx, span := o.tracer.Start(ctx, string(stage))
	defer span.End()

	o.update(ctx, logger, jobID, domain.StagePatch(stage, domain.SynthesizingAvatarPercent))

	externalJobID, err := o.synthesizer.Start(ctx, outbound.SynthesisRequest{
		Script:         script,
		VoiceID:        req.VoiceID,
		AvatarID:       req.AvatarID,
		AvatarMediaURL: media.VoiceCharacterMediaURL,
		HighQuality:    req.HighQuality,
	})
	if err != nil {
		err = startError(ctx, stage, err)
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("avatar.job_id", externalJobID))
	o.update(ctx, logger, jobID, domain.ExternalJobPatch(externalJobID))
	logger.InfoWithFields("Avatar synthesis started", map[string]interface{}{"external_job_id": externalJobID})

	status, err := o.poller.Poll(ctx, func(ctx context.Context) (domain.StageStatus, error) {
		return o.synthesizer.Status(ctx, externalJobID)
	}, o.pollOptions(stage), o.onTick(ctx, logger, jobID, stage))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if status.ResultURL == "" {
		err = domain.NewStageError(stage, errors.New("avatar job completed without a video url"))
		span.RecordError(err)
		return "", err
	}

	return status.ResultURL, nil
}

func (o *videoPipelineOrchestrator) composeVideo(ctx context.Context, logger outbound.LoggerPort, jobID string,
	req domain.GenerationRequest, avatarURL string, media inbound.ResolvedMedia) (string, error) {
	stage := domain.ComposingVideoStage
	if err := checkCancelled(ctx, stage); err != nil {
		return "", err
	}
	ctx, span := o.tracer.Start(ctx, string(stage))
	defer span.End()

	o.update(ctx, logger, jobID, domain.StagePatch(stage, domain.ComposingVideoPercent))

	renderID, err := o.compositor.Start(ctx, outbound.CompositionRequest{
		JobID:              jobID,
		AvatarVideoURL:     avatarURL,
		SupportingMediaURL: media.SupportingMediaURL,
		HighQuality:        req.HighQuality,
	})
	if err != nil {
		err = startError(ctx, stage, err)
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("render.id", renderID))
	o.update(ctx, logger, jobID, domain.ExternalRenderPatch(renderID))
	logger.InfoWithFields("Composition started", map[string]interface{}{"render_id": renderID})

	status, err := o.poller.Poll(ctx, func(ctx context.Context) (domain.StageStatus, error) {
		return o.compositor.Status(ctx, renderID)
	}, o.pollOptions(stage), o.onTick(ctx, logger, jobID, stage))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if status.ResultURL == "" {
		err = domain.NewStageError(stage, errors.New("render completed without a video url"))
		span.RecordError(err)
		return "", err
	}

	return status.ResultURL, nil
}

// cleanUp is best effort: its outcome never changes the job result.
func (o *videoPipelineOrchestrator) cleanUp(ctx context.Context, logger outbound.LoggerPort, jobID string, cleanup *domain.CleanupSet) {
	if cleanup.Len() == 0 {
		return
	}
	ctx, span := o.tracer.Start(ctx, string(domain.CleaningUpStage))
	defer span.End()

	o.update(ctx, logger, jobID, domain.StagePatch(domain.CleaningUpStage, domain.CleaningUpPercent))

	urls := cleanup.Drain()
	if err := o.cleaner.Delete(ctx, urls); err != nil {
		span.RecordError(err)
		logger.ErrorWithFields(err, "Failed to delete temporary media", map[string]interface{}{
			"urls": urls,
		})
		return
	}
	logger.DebugWithFields("Temporary media deleted", map[string]interface{}{"count": len(urls)})
}

// finish writes the terminal record. It uses a context that survives job cancellation so a
// cancelled job still ends at 100 percent with an error message.
func (o *videoPipelineOrchestrator) finish(ctx context.Context, logger outbound.LoggerPort, jobID string, startedAt time.Time,
	artifactURL string, jobErr error) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()

	patch := domain.SucceededPatch(artifactURL)
	status := domain.SucceededJobStatus
	if jobErr != nil {
		patch = domain.FailedPatch(jobErr)
		status = domain.FailedJobStatus
	}

	if _, err := o.store.Merge(writeCtx, jobID, patch); err != nil {
		logger.ErrorWithFields(err, "Failed to write terminal progress", map[string]interface{}{
			"job_id": jobID,
			"status": status,
		})
	}
	o.metrics.JobFinished(writeCtx, status, o.now().Sub(startedAt))

	if jobErr != nil {
		logger.ErrorWithFields(jobErr, "Job failed", map[string]interface{}{"job_id": jobID})
		return
	}
	logger.InfoWithFields("Job completed", map[string]interface{}{
		"job_id":             jobID,
		"final_artifact_url": artifactURL,
	})
}

// update persists an intermediate checkpoint. A failed write is logged, the job goes on.
func (o *videoPipelineOrchestrator) update(ctx context.Context, logger outbound.LoggerPort, jobID string, patch domain.ProgressPatch) {
	if _, err := o.store.Merge(ctx, jobID, patch); err != nil {
		logger.Error(err, "Failed to update job progress")
	}
}

func (o *videoPipelineOrchestrator) onTick(ctx context.Context, logger outbound.LoggerPort, jobID string, stage domain.Stage) func(string) {
	return func(status string) {
		detail := stage.Description()
		if status != "" {
			detail = fmt.Sprintf("%s (%s)", detail, status)
		}
		o.update(ctx, logger, jobID, domain.StageDetailPatch(detail))
	}
}

func (o *videoPipelineOrchestrator) pollOptions(stage domain.Stage) PollOptions {
	return PollOptions{
		Stage:       stage,
		Interval:    o.options.PollInterval,
		MaxAttempts: o.options.PollMaxAttempts,
	}
}

func checkCancelled(ctx context.Context, stage domain.Stage) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w before %s: %v", domain.ErrCancelled, stage, ctx.Err())
	}
	return nil
}

func startError(ctx context.Context, stage domain.Stage, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %s start aborted: %v", domain.ErrCancelled, stage, ctx.Err())
	}
	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		return err
	}
	return domain.NewStageError(stage, err)
}
