// Package openai implements domain.RecommendationGenerator on the OpenAI chat
// completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"

	maxTokens   = 500
	temperature = 0.7

	maxRetries     = 2
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

var (
	// ErrGeneratorDisabled is returned when the client has no API key.
	ErrGeneratorDisabled = errors.New("openai: API key not configured")
	// ErrNoCompletion is returned when the API answers without any choices.
	ErrNoCompletion = errors.New("openai: no completion returned")
)

const systemPrompt = "You are an expert architect specializing in flood-resilient design. Provide concise, actionable recommendations."

// Client implements domain.RecommendationGenerator using the chat completions API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	backoff    time.Duration // first retry delay
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a chat completions client. Empty baseURL or model select
// the public API and gpt-4o.
func NewClient(apiKey, baseURL, model string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		backoff: initialBackoff,
		metrics: metrics,
		logger:  logger,
	}
}

// Generate asks the model for recommendations and returns the bulleted lines
// of its answer.
func (c *Client) Generate(ctx context.Context, design domain.BuildingDesign, timeline []domain.TimelineEntry, targetYear int, scenario string) ([]string, error) {
	if c.apiKey == "" {
		return nil, ErrGeneratorDisabled
	}

	content, err := c.complete(ctx, buildPrompt(design, timeline, targetYear, scenario))
	if err != nil {
		return nil, err
	}
	return bulletLines(content), nil
}

func (c *Client) complete(ctx context.Context, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	backoff := c.backoff
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying chat completion", "attempt", attempt, "backoff", backoff, "error", lastErr)
			if !retry.SleepWithContext(ctx, backoff) {
				return "", fmt.Errorf("chat completion: %w", ctx.Err())
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
		}

		content, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doRequest performs one API call. The bool reports whether a failure is worth
// retrying (rate limits and server errors).
func (c *Client) doRequest(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeneratorAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", false, fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		return "", retryable, fmt.Errorf("openai API error: status %d: %s", resp.StatusCode, msg)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Error != nil {
		return "", false, fmt.Errorf("openai API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", false, ErrNoCompletion
	}

	c.logger.Debug("chat completion received",
		"model", c.model,
		"finish_reason", chatResp.Choices[0].FinishReason,
		"duration", time.Since(start),
	)
	return chatResp.Choices[0].Message.Content, false, nil
}

func buildPrompt(design domain.BuildingDesign, timeline []domain.TimelineEntry, targetYear int, scenario string) string {
	var b strings.Builder

	b.WriteString("You are an expert architect specializing in climate-adaptive and flood-resilient design for coastal areas like New Orleans.\n")
	fmt.Fprintf(&b, "A client has provided details for a building design and a simulation of its flood resilience performance through %d under an '%s' climate scenario.\n\n", targetYear, scenario)

	b.WriteString("Here are the details of the initial building design:\n")
	fmt.Fprintf(&b, "Foundation Type: %s\n", design.FoundationType)
	fmt.Fprintf(&b, "Elevation (Lowest Floor): %g feet above datum\n", design.ElevationHeight)
	fmt.Fprintf(&b, "Materials (relevant to flood zone): %s\n", joinOrNA(design.Materials))
	fmt.Fprintf(&b, "Flood Mitigation Features: %s\n\n", joinOrNA(design.MitigationFeatures))

	b.WriteString("Here is the simulated performance timeline:\n")
	for _, e := range timeline {
		fmt.Fprintf(&b, "By %d: Resilience Score: %d%%, Projected Flood Level: %gft, Flood Depth Above Lowest Floor: %g inches.\n",
			e.Year, e.ResilienceScore, e.ProjectedFloodLevelFeet, e.FloodDepthInches)
	}

	fmt.Fprintf(&b, "\nBased on this information, provide specific, actionable, and practical recommendations to improve the building's flood resilience and \"future-proof\" it through %d. ", targetYear)
	b.WriteString("Focus on architectural and material interventions. Provide recommendations as a concise bulleted list.\n")
	b.WriteString("Example recommendation: \"- Elevate HVAC unit to 13 feet by 2035.\"\n")
	return b.String()
}

func joinOrNA(items []string) string {
	if len(items) == 0 {
		return "N/A"
	}
	return strings.Join(items, ", ")
}

// bulletLines returns the list items of a completion. A completion with no
// list markers at all is returned line by line.
func bulletLines(content string) []string {
	var bullets, plain []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		plain = append(plain, line)
		if isBullet(line) {
			bullets = append(bullets, line)
		}
	}
	if len(bullets) == 0 {
		return plain
	}
	return bullets
}

func isBullet(line string) bool {
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•") {
		return true
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')')
}

// Chat completions API request and response types.

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}
