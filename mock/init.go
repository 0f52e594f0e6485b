package mock

import "avatar-video-api/application/ports/outbound"

// Collaborators bundles in-memory stand-ins for every external service the pipeline calls.
type Collaborators struct {
	ScriptGenerator *ScriptGenerator
	Synthesizer     *AvatarSynthesizer
	Compositor      *VideoCompositor
	Uploader        *MediaUploader
	Cleaner         *MediaCleaner
}

// Init builds stubs that complete after a few polls. scriptsFile is optional.
func Init(logger outbound.LoggerPort, scriptsFile string, pendingPolls int) (*Collaborators, error) {
	scriptGenerator := NewScriptGenerator(nil)
	if scriptsFile != "" {
		var err error
		scriptGenerator, err = NewFileScriptGenerator(logger, scriptsFile)
		if err != nil {
			return nil, err
		}
	}

	return &Collaborators{
		ScriptGenerator: scriptGenerator,
		Synthesizer:     NewAvatarSynthesizer(RunnerOptions{PendingPolls: pendingPolls, StatusText: "rendering avatar"}),
		Compositor:      NewVideoCompositor(RunnerOptions{PendingPolls: pendingPolls, StatusText: "compositing"}),
		Uploader:        &MediaUploader{},
		Cleaner:         &MediaCleaner{},
	}, nil
}
