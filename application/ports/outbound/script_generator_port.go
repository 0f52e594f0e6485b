package outbound

import "context"

type GenerateScriptRequest struct {
	Topic          string
	WordsPerScript int
}

type ScriptGeneratorPort interface {
	Generate(ctx context.Context, req GenerateScriptRequest) (string, error)
}
