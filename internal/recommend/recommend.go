// Package recommend asks a chat model for artists similar to a listener's
// favourites.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	DefaultModel = openai.GPT3Dot5Turbo
	// DefaultCount is how many artists are asked for, following the Wrapped
	// convention of five.
	DefaultCount = 5
)

var ErrNoArtists = errors.New("no artists to base recommendations on")

var logger = zap.NewNop()

// InitializeLogger sets the logger for the recommend package.
func InitializeLogger(l *zap.Logger) {
	logger = l
}

type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the OpenAI endpoint, e.g. for a compatible proxy.
	BaseURL string
	Count   int
}

type Recommender struct {
	client *openai.Client
	model  string
	count  int
}

func New(cfg Config) (*Recommender, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Count < 1 {
		cfg.Count = DefaultCount
	}
	return &Recommender{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		count:  cfg.Count,
	}, nil
}

// Prompt is the system message sent for topArtists.
func Prompt(topArtists []string, count int) string {
	return fmt.Sprintf("My top artists are %s and I want to listen to more artists like them. Recommend %d more artists.",
		strings.Join(topArtists, ", "), count)
}

// Recommend returns the model's free-text answer.
func (r *Recommender) Recommend(ctx context.Context, topArtists []string) (string, error) {
	if len(topArtists) == 0 {
		return "", ErrNoArtists
	}
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: Prompt(topArtists, r.count),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("requesting recommendations: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("requesting recommendations: empty response")
	}
	logger.Debug("Received recommendations",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
