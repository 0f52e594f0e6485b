package adapters

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/config"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/donovanhide/eventsource"
)

const DoneSignal = "[DONE]"
const MaxRetries = 3

var errEmptyScript = errors.New("script stream produced no text")

type chatGptRequest struct {
	Stream      bool             `json:"stream"`
	Model       string           `json:"model"`
	Messages    []chatGptMessage `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

type chatGptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatGptChunkBody struct {
	Choices []chatGptResponseChoice `json:"choices"`
}

type chatGptResponseChoice struct {
	Index int `json:"index"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
}

type scriptGenerator struct {
	logger    outbound.LoggerPort
	gptConfig *config.GptConfig
	client    *http.Client
}

func NewScriptGenerator(gptConfig *config.GptConfig, logger outbound.LoggerPort) outbound.ScriptGeneratorPort {
	return &scriptGenerator{
		logger:    logger,
		gptConfig: gptConfig,
		client:    &http.Client{},
	}
}

// Generate subscribes to the completion stream and concatenates the tokens until the done signal.
func (s *scriptGenerator) Generate(ctx context.Context, req outbound.GenerateScriptRequest) (string, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	httpReq, err := s.createRequest(streamCtx, req.Topic, req.WordsPerScript)
	if err != nil {
		cancel()
		return "", err
	}

	stream, err := eventsource.SubscribeWith("", s.client, httpReq)
	if err != nil {
		cancel()
		s.logger.Error(err, "Failed to subscribe to script stream")
		return "", err
	}

	receiving := true
	defer func() {
		release(stream, cancel, receiving)
	}()

	var builder strings.Builder
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev := <-stream.Events:
			if ev.Data() == DoneSignal {
				return s.result(builder.String())
			}
			payload, err := s.extractPayload(ev)
			if err != nil {
				return "", err
			}
			builder.WriteString(payload)
			retryCount = 0
		case err := <-stream.Errors:
			if err == io.EOF {
				receiving = false
				s.logger.Info("Script stream closed")
				return s.result(builder.String())
			}
			if retryCount < MaxRetries {
				s.logger.ErrorWithFields(err, "Error occurred during streaming, retrying", map[string]interface{}{
					"retry_count": retryCount})
				retryCount++
				// the reconnected stream starts the completion over
				builder.Reset()
				continue
			}
			receiving = false
			s.logger.Error(err, "Error occurred during streaming, max retries reached")
			return "", err
		}
	}
}

// release stops the stream. Close must not race with a pending send of the reader goroutine,
// so while it may still be receiving the channels are drained until it reports its exit error.
func release(stream *eventsource.Stream, cancel context.CancelFunc, receiving bool) {
	cancel()
	if !receiving {
		stream.Close()
		return
	}
	go func() {
		for {
			select {
			case <-stream.Events:
			case <-stream.Errors:
				stream.Close()
				return
			}
		}
	}()
}

func (s *scriptGenerator) result(script string) (string, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		return "", errEmptyScript
	}
	return script, nil
}

func (s *scriptGenerator) extractPayload(event eventsource.Event) (string, error) {
	var chunkBody chatGptChunkBody
	err := json.Unmarshal([]byte(event.Data()), &chunkBody)
	if err != nil {
		s.logger.Error(err, "Failed to unmarshal event data")
		return "", err
	}
	if len(chunkBody.Choices) == 0 {
		return "", nil
	}

	return chunkBody.Choices[0].Delta.Content, nil
}

func (s *scriptGenerator) createRequest(ctx context.Context, topic string, wordsPerScript int) (*http.Request, error) {
	promptMessage := chatGptMessage{
		Role: "system",
		Content: fmt.Sprintf("Write the narration for a short video presented by a talking avatar on the topic: %s.\n"+
			"The narration:\n"+
			"- Should be spoken in the first person, directly to the viewer\n"+
			"- Should not contain stage directions, headings or emojis\n"+
			"- Should open with a one sentence hook and close with a short sign-off\n"+
			"The narration should be of about %d words.", topic, wordsPerScript),
	}

	promptReq := chatGptRequest{
		Stream:      true,
		Model:       s.gptConfig.Model,
		Messages:    []chatGptMessage{promptMessage},
		Temperature: s.gptConfig.Temperature,
		MaxTokens:   s.gptConfig.MaxTokens,
	}

	payloadBytes, err := json.Marshal(promptReq)
	if err != nil {
		s.logger.Error(err, "Failed to marshal the request body")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gptConfig.ApiUrl, bytes.NewBuffer(payloadBytes))
	if err != nil {
		s.logger.Error(err, "Failed to create the HTTP request")
		return nil, err
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payloadBytes)), nil
	}

	req.Header.Set("Authorization", "Bearer "+s.gptConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}
