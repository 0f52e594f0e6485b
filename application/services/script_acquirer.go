package services

import (
	"avatar-video-api/application/ports/inbound"
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/domain"
	"context"
	"fmt"
	"strings"
)

type scriptAcquirer struct {
	logger          outbound.LoggerPort
	scriptGenerator outbound.ScriptGeneratorPort
	wordsPerScript  int
}

func NewScriptAcquirer(logger outbound.LoggerPort, scriptGenerator outbound.ScriptGeneratorPort, wordsPerScript int) inbound.ScriptAcquirerPort {
	return &scriptAcquirer{
		logger:          logger,
		scriptGenerator: scriptGenerator,
		wordsPerScript:  wordsPerScript,
	}
}

// Acquire never fails for a generated script: a generator error is replaced by a fallback
// built from the topic so the job keeps moving.
func (s *scriptAcquirer) Acquire(ctx context.Context, req domain.GenerationRequest) (string, error) {
	switch req.ScriptSource {
	case domain.CustomScriptSource:
		if strings.TrimSpace(req.Script) == "" {
			return "", fmt.Errorf("%w: script is required for a custom script", domain.ErrInvalidRequest)
		}
		return req.Script, nil
	case domain.GeneratedScriptSource:
		topic := strings.TrimSpace(req.Topic)
		if topic == "" {
			return "", fmt.Errorf("%w: topic is required for a generated script", domain.ErrInvalidRequest)
		}
		script, err := s.scriptGenerator.Generate(ctx, outbound.GenerateScriptRequest{
			Topic:          topic,
			WordsPerScript: s.wordsPerScript,
		})
		if err != nil {
			s.logger.ErrorWithFields(err, "Script generation failed, using fallback script", map[string]interface{}{
				"topic": topic,
			})
			return FallbackScript(topic), nil
		}
		script = strings.TrimSpace(script)
		if script == "" {
			s.logger.WarnWithFields("Script generator returned an empty script, using fallback script", map[string]interface{}{
				"topic": topic,
			})
			return FallbackScript(topic), nil
		}
		return script, nil
	default:
		return "", fmt.Errorf("%w: unknown script source %q", domain.ErrInvalidRequest, req.ScriptSource)
	}
}

// FallbackScript is deterministic for a given topic.
func FallbackScript(topic string) string {
	topic = strings.TrimSpace(topic)
	return fmt.Sprintf("Welcome! Today we are talking about %s. "+
		"Stay with me for a short tour of %s and the ideas that make it worth your time. "+
		"Thanks for watching, and see you next time.", topic, topic)
}
