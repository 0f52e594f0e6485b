package domain

import (
	"fmt"
	"strings"
)

type ScriptSource string

const (
	GeneratedScriptSource ScriptSource = "generated"
	CustomScriptSource    ScriptSource = "custom"
)

type MediaKind string

const (
	SupportingMediaKind     MediaKind = "supporting"
	VoiceCharacterMediaKind MediaKind = "voice_character"
)

// MediaInput is either an external reference (URL) or raw content that still has to be uploaded.
type MediaInput struct {
	URL         string
	FileName    string
	ContentType string
	Content     []byte
}

// IsExternalReference reports whether the media already points at a remote location.
func (m *MediaInput) IsExternalReference() bool {
	if m == nil {
		return false
	}
	url := strings.ToLower(m.URL)
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func (m *MediaInput) HasContent() bool {
	return m != nil && len(m.Content) > 0
}

type GenerationRequest struct {
	ScriptSource        ScriptSource
	Topic               string
	Script              string
	VoiceID             string
	AvatarID            string
	SupportingMedia     *MediaInput
	VoiceCharacterMedia *MediaInput
	HighQuality         bool
	UserID              string
}

// Validate checks that a script can be resolved and a voice is selected.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.VoiceID) == "" {
		return fmt.Errorf("%w: voice id is required", ErrInvalidRequest)
	}
	switch r.ScriptSource {
	case GeneratedScriptSource:
		if strings.TrimSpace(r.Topic) == "" {
			return fmt.Errorf("%w: topic is required for a generated script", ErrInvalidRequest)
		}
	case CustomScriptSource:
		if strings.TrimSpace(r.Script) == "" {
			return fmt.Errorf("%w: script is required for a custom script", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown script source %q", ErrInvalidRequest, r.ScriptSource)
	}
	return nil
}

type JobStatus string

const (
	RunningJobStatus   JobStatus = "running"
	SucceededJobStatus JobStatus = "succeeded"
	FailedJobStatus    JobStatus = "failed"
)

type Stage string

const (
	QueuedStage             Stage = "queued"
	UploadingMediaStage     Stage = "uploading_media"
	GeneratingScriptStage   Stage = "generating_script"
	ScriptReadyStage        Stage = "script_ready"
	SynthesizingAvatarStage Stage = "synthesizing_avatar"
	ComposingVideoStage     Stage = "composing_video"
	CleaningUpStage         Stage = "cleaning_up"
	CompletedStage          Stage = "completed"
	FailedStage             Stage = "failed"
)

func (s Stage) Description() string {
	switch s {
	case QueuedStage:
		return "Waiting to start"
	case UploadingMediaStage:
		return "Uploading media"
	case GeneratingScriptStage:
		return "Generating script"
	case ScriptReadyStage:
		return "Script ready"
	case SynthesizingAvatarStage:
		return "Synthesizing avatar video"
	case ComposingVideoStage:
		return "Composing final video"
	case CleaningUpStage:
		return "Removing temporary files"
	case CompletedStage:
		return "Video ready"
	case FailedStage:
		return "Generation failed"
	default:
		return string(s)
	}
}

// Percent checkpoints reached when entering or leaving a stage.
const (
	QueuedPercent             = 0
	UploadingMediaPercent     = 5
	MediaUploadedPercent      = 10
	GeneratingScriptPercent   = 15
	ScriptReadyPercent        = 25
	SynthesizingAvatarPercent = 50
	ComposingVideoPercent     = 75
	CleaningUpPercent         = 75
	TerminalPercent           = 100
)

// StageStatus is the answer of a single status check against an asynchronous external job.
type StageStatus struct {
	Completed  bool
	Failed     bool
	ResultURL  string
	StatusText string
}

type UploadedMedia struct {
	URL       string
	Ephemeral bool
}
