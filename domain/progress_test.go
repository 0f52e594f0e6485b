package domain

import (
	"errors"
	"testing"
	"time"
)

func TestProgressRecord_MergeKeepsObservedFields(t *testing.T) {
	now := time.Now()
	record := NewProgressRecord("job-1", now)

	record = record.Merge("job-1", ScriptPatch("Hello world"), now)
	record = record.Merge("job-1", ExternalJobPatch("avatar-1"), now)
	record = record.Merge("job-1", StagePatch(SynthesizingAvatarStage, SynthesizingAvatarPercent), now)

	empty := ""
	record = record.Merge("job-1", ProgressPatch{ScriptText: &empty, ExternalJobID: &empty}, now)

	if record.ScriptText != "Hello world" {
		t.Errorf("script text = %q, want %q", record.ScriptText, "Hello world")
	}
	if record.ExternalJobID != "avatar-1" {
		t.Errorf("external job id = %q, want %q", record.ExternalJobID, "avatar-1")
	}
	if record.Stage != SynthesizingAvatarStage {
		t.Errorf("stage = %q, want %q", record.Stage, SynthesizingAvatarStage)
	}
}

func TestProgressRecord_MergePercentNeverDecreases(t *testing.T) {
	now := time.Now()
	record := NewProgressRecord("job-1", now)
	record = record.Merge("job-1", StagePatch(ComposingVideoStage, ComposingVideoPercent), now)
	record = record.Merge("job-1", StagePatch(ScriptReadyStage, ScriptReadyPercent), now)

	if record.Percent != ComposingVideoPercent {
		t.Errorf("percent = %d, want %d", record.Percent, ComposingVideoPercent)
	}

	over := 250
	record = record.Merge("job-1", ProgressPatch{Percent: &over}, now)
	if record.Percent != TerminalPercent {
		t.Errorf("percent = %d, want clamp to %d", record.Percent, TerminalPercent)
	}
}

func TestProgressRecord_TerminalIsFinal(t *testing.T) {
	now := time.Now()
	record := NewProgressRecord("job-1", now)
	record = record.Merge("job-1", SucceededPatch("https://cdn.example.com/final.mp4"), now)

	if !record.IsTerminal() || !record.Succeeded() || record.Failed() {
		t.Fatalf("expected succeeded terminal record, got %+v", record)
	}
	if record.Status != SucceededJobStatus {
		t.Errorf("status = %q, want %q", record.Status, SucceededJobStatus)
	}

	after := record.Merge("job-1", FailedPatch(errors.New("late failure")), now.Add(time.Second))
	if after.ErrorMessage != "" {
		t.Errorf("terminal record was mutated: %+v", after)
	}
	if !after.UpdatedAt.Equal(record.UpdatedAt) {
		t.Errorf("terminal record timestamp changed")
	}
}

func TestProgressRecord_MergeOntoZeroValue(t *testing.T) {
	now := time.Now()
	record := ProgressRecord{}.Merge("job-9", StageDetailPatch("rendering"), now)

	if record.JobID != "job-9" {
		t.Errorf("job id = %q, want job-9", record.JobID)
	}
	if record.Status != RunningJobStatus {
		t.Errorf("status = %q, want %q", record.Status, RunningJobStatus)
	}
	if record.StageDetail != "rendering" {
		t.Errorf("stage detail = %q, want rendering", record.StageDetail)
	}
}

func TestFailedPatch_RecordsErrorText(t *testing.T) {
	now := time.Now()
	err := NewStageError(SynthesizingAvatarStage, ErrPollTimeout)
	record := NewProgressRecord("job-1", now).Merge("job-1", FailedPatch(err), now)

	if !record.Failed() || record.Succeeded() {
		t.Fatalf("expected failed terminal record, got %+v", record)
	}
	if record.ErrorMessage != err.Error() {
		t.Errorf("error message = %q, want %q", record.ErrorMessage, err.Error())
	}
	if !errors.Is(err, ErrPollTimeout) {
		t.Errorf("stage error should unwrap to ErrPollTimeout")
	}
}

func TestGenerationRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     GenerationRequest
		wantErr bool
	}{
		{"custom script", GenerationRequest{ScriptSource: CustomScriptSource, Script: "Hello world", VoiceID: "v1"}, false},
		{"generated script", GenerationRequest{ScriptSource: GeneratedScriptSource, Topic: "mermaids", VoiceID: "v1"}, false},
		{"custom without script", GenerationRequest{ScriptSource: CustomScriptSource, Script: "  ", VoiceID: "v1"}, true},
		{"generated without topic", GenerationRequest{ScriptSource: GeneratedScriptSource, VoiceID: "v1"}, true},
		{"unknown source", GenerationRequest{ScriptSource: "other", Script: "x", VoiceID: "v1"}, true},
		{"missing voice", GenerationRequest{ScriptSource: CustomScriptSource, Script: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error %v should wrap ErrInvalidRequest", err)
			}
		})
	}
}

func TestMediaInput_IsExternalReference(t *testing.T) {
	var nilMedia *MediaInput
	if nilMedia.IsExternalReference() {
		t.Error("nil media is not an external reference")
	}
	if !(&MediaInput{URL: "HTTPS://cdn.example.com/a.png"}).IsExternalReference() {
		t.Error("https url should be an external reference")
	}
	if (&MediaInput{URL: "file:///tmp/a.png", Content: []byte("x")}).IsExternalReference() {
		t.Error("file url is not an external reference")
	}
}
