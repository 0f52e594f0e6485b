package domain

import "time"

// ProgressRecord is the persisted snapshot of a job. Updates are merged onto it, never replace it.
type ProgressRecord struct {
	JobID            string    `json:"job_id"`
	Status           JobStatus `json:"status"`
	Percent          int       `json:"percent"`
	Stage            Stage     `json:"stage"`
	StageDetail      string    `json:"stage_detail,omitempty"`
	ScriptText       string    `json:"script_text,omitempty"`
	ExternalJobID    string    `json:"external_job_id,omitempty"`
	ExternalRenderID string    `json:"external_render_id,omitempty"`
	FinalArtifactURL string    `json:"final_artifact_url,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsTerminal reports whether the job reached 100 percent, successfully or not.
// Callers tell the outcomes apart through FinalArtifactURL and ErrorMessage.
func (r ProgressRecord) IsTerminal() bool {
	return r.Percent >= TerminalPercent
}

func (r ProgressRecord) Succeeded() bool {
	return r.IsTerminal() && r.FinalArtifactURL != ""
}

func (r ProgressRecord) Failed() bool {
	return r.IsTerminal() && r.ErrorMessage != ""
}

// ProgressPatch is a partial update. Nil fields keep the previous value.
type ProgressPatch struct {
	Status           *JobStatus
	Percent          *int
	Stage            *Stage
	StageDetail      *string
	ScriptText       *string
	ExternalJobID    *string
	ExternalRenderID *string
	FinalArtifactURL *string
	ErrorMessage     *string
}

// Merge applies the patch on top of the record. Percent never decreases, empty strings
// never clear an observed field and a terminal record is returned unchanged.
func (r ProgressRecord) Merge(jobID string, patch ProgressPatch, now time.Time) ProgressRecord {
	if r.IsTerminal() {
		return r
	}
	if r.JobID == "" {
		r.JobID = jobID
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.Status == "" {
		r.Status = RunningJobStatus
	}
	if patch.Status != nil && *patch.Status != "" {
		r.Status = *patch.Status
	}
	if patch.Percent != nil {
		p := clampPercent(*patch.Percent)
		if p > r.Percent {
			r.Percent = p
		}
	}
	if patch.Stage != nil && *patch.Stage != "" {
		r.Stage = *patch.Stage
	}
	mergeString(&r.StageDetail, patch.StageDetail)
	mergeString(&r.ScriptText, patch.ScriptText)
	mergeString(&r.ExternalJobID, patch.ExternalJobID)
	mergeString(&r.ExternalRenderID, patch.ExternalRenderID)
	mergeString(&r.FinalArtifactURL, patch.FinalArtifactURL)
	mergeString(&r.ErrorMessage, patch.ErrorMessage)
	r.UpdatedAt = now
	return r
}

func mergeString(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > TerminalPercent {
		return TerminalPercent
	}
	return p
}

// StagePatch moves the job to a new stage. The stage detail is replaced by the stage description
// so tick text from a previous stage does not linger.
func StagePatch(stage Stage, percent int) ProgressPatch {
	detail := stage.Description()
	return ProgressPatch{Stage: &stage, Percent: &percent, StageDetail: &detail}
}

func StageDetailPatch(detail string) ProgressPatch {
	return ProgressPatch{StageDetail: &detail}
}

func ScriptPatch(script string) ProgressPatch {
	patch := StagePatch(ScriptReadyStage, ScriptReadyPercent)
	patch.ScriptText = &script
	return patch
}

func ExternalJobPatch(externalJobID string) ProgressPatch {
	return ProgressPatch{ExternalJobID: &externalJobID}
}

func ExternalRenderPatch(renderID string) ProgressPatch {
	return ProgressPatch{ExternalRenderID: &renderID}
}

// SucceededPatch is the terminal patch of a successful job.
func SucceededPatch(artifactURL string) ProgressPatch {
	status := SucceededJobStatus
	patch := StagePatch(CompletedStage, TerminalPercent)
	patch.Status = &status
	patch.FinalArtifactURL = &artifactURL
	return patch
}

// FailedPatch is the terminal patch of a job that gave up.
func FailedPatch(err error) ProgressPatch {
	status := FailedJobStatus
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	patch := StagePatch(FailedStage, TerminalPercent)
	patch.Status = &status
	patch.ErrorMessage = &msg
	return patch
}

// NewProgressRecord is the seed written when a job is submitted.
func NewProgressRecord(jobID string, now time.Time) ProgressRecord {
	return ProgressRecord{
		JobID:     jobID,
		Status:    RunningJobStatus,
		Percent:   QueuedPercent,
		Stage:     QueuedStage,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
