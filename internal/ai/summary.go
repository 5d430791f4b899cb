package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/deskline/support-tickets/internal/config"
)

const systemPrompt = "You analyze support tickets and write short, actionable summaries. " +
	"Identify the main problem, include key technical details and context, note any urgency, " +
	"and keep it 2-3 short sentences (max 10 words each). Use clear, simple, professional " +
	"language and focus only on actionable information for support staff. Format as a direct " +
	"factual summary with no preamble."

const userPromptPrefix = "Analyze and summarize this support ticket:\n\n"

// ErrTimeout is returned when the provider does not answer within the
// configured per-call timeout. It is a provider failure, not a cancellation.
var ErrTimeout = errors.New("summary request timed out")

// SummaryGenerator produces short ticket summaries through an OpenAI
// compatible chat completion endpoint.
type SummaryGenerator struct {
	client    *openai.Client
	cfg       config.AIConfig
	logger    *zap.Logger
	enabled   bool
	maxLength int
}

// NewSummaryGenerator builds a generator. When AI is disabled or no key is set
// the generator returns empty summaries without calling out.
func NewSummaryGenerator(cfg config.AIConfig, logger *zap.Logger) *SummaryGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &SummaryGenerator{
		cfg:       cfg,
		logger:    logger,
		enabled:   cfg.Enabled && strings.TrimSpace(cfg.APIKey) != "",
		maxLength: cfg.MaxDescriptionLength,
	}
	if !g.enabled {
		logger.Warn("AI summaries disabled", zap.Bool("enabled_flag", cfg.Enabled))
		return g
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	g.client = openai.NewClientWithConfig(clientCfg)
	return g
}

// Enabled reports whether summaries are requested from the provider.
func (g *SummaryGenerator) Enabled() bool {
	return g.enabled
}

// GenerateSummary returns a summary of description, or "" when nothing could be
// produced without an error (disabled, blank input, empty completion).
// Cancellation of ctx is reported as ctx.Err().
func (g *SummaryGenerator) GenerateSummary(ctx context.Context, description string) (string, error) {
	if !g.enabled {
		return "", nil
	}
	if strings.TrimSpace(description) == "" {
		g.logger.Warn("empty description, skipping summary")
		return "", nil
	}

	callCtx := ctx
	if timeout := g.cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPromptPrefix + truncate(description, g.maxLength)},
		},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: float32(g.cfg.Temperature),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if callCtx.Err() != nil {
			return "", fmt.Errorf("%w after %s: %v", ErrTimeout, g.cfg.Timeout(), err)
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		g.logger.Warn("AI returned no choices")
		return "", nil
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		g.logger.Warn("AI returned an empty summary")
		return "", nil
	}
	g.logger.Debug("generated summary",
		zap.Int("length", len(summary)),
		zap.Duration("took", time.Since(start)))
	return summary, nil
}

func truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
