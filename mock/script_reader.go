package mock

import (
	"avatar-video-api/application/ports/outbound"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

type stubScript struct {
	Topic  string `json:"topic"`
	Script string `json:"script"`
}

// ScriptGenerator answers with canned scripts keyed by topic.
type ScriptGenerator struct {
	mu       sync.Mutex
	scripts  map[string]string
	Err      error
	requests []outbound.GenerateScriptRequest
}

func NewScriptGenerator(scripts map[string]string) *ScriptGenerator {
	if scripts == nil {
		scripts = make(map[string]string)
	}
	return &ScriptGenerator{scripts: scripts}
}

// NewFileScriptGenerator loads a JSON array of {"topic", "script"} pairs.
func NewFileScriptGenerator(logger outbound.LoggerPort, fileName string) (*ScriptGenerator, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			logger.Error(err, "failed to close file")
		}
	}(file)

	var entries []stubScript
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		logger.Error(err, "failed to decode json")
		return nil, err
	}

	scripts := make(map[string]string, len(entries))
	for _, e := range entries {
		scripts[strings.ToLower(e.Topic)] = e.Script
	}
	return NewScriptGenerator(scripts), nil
}

func (s *ScriptGenerator) Generate(ctx context.Context, req outbound.GenerateScriptRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.Err != nil {
		return "", s.Err
	}
	if script, ok := s.scripts[strings.ToLower(req.Topic)]; ok {
		return script, nil
	}
	return fmt.Sprintf("Here is a short story about %s.", req.Topic), nil
}

func (s *ScriptGenerator) Requests() []outbound.GenerateScriptRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbound.GenerateScriptRequest(nil), s.requests...)
}
