// Package analysis turns uploaded shift data into report prose with Claude.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"verivault/config"
)

var (
	ErrNotConfigured = errors.New("analysis service not configured")
	ErrEmptyInput    = errors.New("no data to analyze")
	ErrEmptyResponse = errors.New("empty response from model")
)

type Request struct {
	ReportType string
	Table      Table
	Notes      string
}

type Analyzer interface {
	Analyze(ctx context.Context, req Request) (string, error)
}

type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	log       *slog.Logger
}

// NewClaude returns ErrNotConfigured when no API key is set.
func NewClaude(cfg config.LLMConfig, log *slog.Logger) (*Claude, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Claude{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		log:       log,
	}, nil
}

func (c *Claude) Analyze(ctx context.Context, req Request) (string, error) {
	if req.Table.Rows == 0 {
		return "", ErrEmptyInput
	}
	kind := KindFor(req.ReportType)
	started := time.Now()

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: SystemPrompt(kind)}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(UserPrompt(kind, req))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm api call for %s report: %w", kind, err)
	}
	if len(msg.Content) == 0 {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, block := range msg.Content {
		b.WriteString(block.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.log.Info("analysis complete",
		slog.String("kind", string(kind)),
		slog.Int("rows", req.Table.Rows),
		slog.Duration("took", time.Since(started)))
	return text, nil
}

// Report is the formatted body returned to the client.
type Report struct {
	Title       string    `json:"title"`
	Kind        Kind      `json:"reportType"`
	Body        string    `json:"report"`
	Rows        int       `json:"rowsAnalyzed"`
	Truncated   bool      `json:"truncated"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// FormatReport wraps model prose with a title and data summary line.
func FormatReport(kind Kind, prose string, t Table, at time.Time) Report {
	var b strings.Builder
	b.WriteString("# " + kind.Title() + "\n\n")
	fmt.Fprintf(&b, "Generated %s from %d data rows", at.UTC().Format("2006-01-02 15:04 MST"), t.Rows)
	if t.Truncated {
		b.WriteString(" (input truncated)")
	}
	b.WriteString(".\n\n")
	b.WriteString(strings.TrimSpace(prose))
	b.WriteString("\n")
	return Report{
		Title:       kind.Title(),
		Kind:        kind,
		Body:        b.String(),
		Rows:        t.Rows,
		Truncated:   t.Truncated,
		GeneratedAt: at.UTC(),
	}
}
