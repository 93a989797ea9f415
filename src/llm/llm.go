package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Prompt leads every request; the captured images follow it in capture order.
const Prompt = "Solve the question and give the final answer."

const defaultMaxTokens = 1000

var (
	ErrNoImages  = errors.New("no images to submit")
	ErrNoChoices = errors.New("no choices in API response")
)

type Config struct {
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// Client binds the credential and endpoint of the inference service.
type Client struct {
	api       *openai.Client
	maxTokens int
}

func New(cfg Config) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{
		api:       openai.NewClientWithConfig(clientConfig),
		maxTokens: maxTokens,
	}
}

// Submit sends the base64 PNG images with the fixed prompt as a single user
// message and returns the text of the first choice. It never retries.
func (c *Client) Submit(ctx context.Context, images []string, model string) (string, error) {
	if len(images) == 0 {
		return "", ErrNoImages
	}

	request := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  []openai.ChatCompletionMessage{buildMessage(images)},
		MaxTokens: c.maxTokens,
	}

	log.Printf("llm: submitting %d image(s) to %s", len(images), model)
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("inference request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	answer := resp.Choices[0].Message.Content
	if answer == "" {
		log.Printf("llm: empty answer (finish_reason=%s)", resp.Choices[0].FinishReason)
	}
	log.Printf("llm: answer received in %v (%d chars)", time.Since(start).Round(time.Millisecond), len(answer))
	return answer, nil
}

func buildMessage(images []string) openai.ChatCompletionMessage {
	parts := make([]openai.ChatMessagePart, 0, len(images)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: Prompt,
	})
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: "data:image/png;base64," + img,
			},
		})
	}
	return openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	}
}
