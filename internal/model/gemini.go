package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-2.5-flash"
)

type GeminiConfig struct {
	APIKey        string
	Model         string
	Endpoint      string
	Timeout       time.Duration
	RatePerSecond float64
	MaxAttempts   int
	Backoff       time.Duration
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// Gemini calls the generateContent REST endpoint.
type Gemini struct {
	apiKey      string
	model       string
	endpoint    string
	maxAttempts int
	backoff     time.Duration
	client      *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
}

var _ Generator = (*Gemini)(nil)

func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		modelName = DefaultModel
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gemini{
		apiKey:      apiKey,
		model:       modelName,
		endpoint:    endpoint,
		maxAttempts: attempts,
		backoff:     backoff,
		client:      client,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger,
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(buildGeminiRequest(req))
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	return doWithRetry(ctx, g.logger, g.maxAttempts, g.backoff, func() (string, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
		g.logger.InfoContext(ctx, "generating", "model", g.model)
		return g.send(ctx, body)
	})
}

func buildGeminiRequest(req Request) geminiRequest {
	out := geminiRequest{}
	if strings.TrimSpace(req.System) != "" {
		out.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	// Roles must alternate, so consecutive turns of one role share a content.
	add := func(role Role, text string) {
		if n := len(out.Contents); n > 0 && out.Contents[n-1].Role == string(role) {
			out.Contents[n-1].Parts = append(out.Contents[n-1].Parts, geminiPart{Text: text})
			return
		}
		out.Contents = append(out.Contents, geminiContent{Role: string(role), Parts: []geminiPart{{Text: text}}})
	}
	for _, turn := range req.History {
		if strings.TrimSpace(turn.Text) == "" {
			continue
		}
		role := RoleUser
		if turn.Role == RoleModel {
			role = RoleModel
		}
		add(role, turn.Text)
	}
	add(RoleUser, req.Prompt)
	if req.Temperature != nil {
		out.GenerationConfig = &geminiGenerationConfig{Temperature: req.Temperature}
	}
	return out
}

func (g *Gemini) send(ctx context.Context, body []byte) (string, error) {
	target := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.endpoint, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &Error{Kind: KindTransport, Err: redactKey(err, g.apiKey)}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", &Error{Kind: KindTransport, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		providerErr := &Error{Kind: KindProvider, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errBody geminiErrorBody
		if json.Unmarshal(payload, &errBody) == nil && errBody.Error.Message != "" {
			providerErr.Message = errBody.Error.Message
			providerErr.Code = errBody.Error.Status
		}
		return "", providerErr
	}

	var decoded geminiResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", &Error{Kind: KindProvider, Status: resp.StatusCode, Message: "undecodable response body", Err: err}
	}
	if decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
		return "", &Error{Kind: KindProvider, Status: resp.StatusCode, Code: decoded.PromptFeedback.BlockReason, Message: "prompt was blocked"}
	}
	if len(decoded.Candidates) == 0 {
		return "", &Error{Kind: KindEmpty, Message: "no candidates"}
	}

	var text strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", &Error{Kind: KindEmpty, Message: "candidate has no text"}
	}
	return text.String(), nil
}

// redactKey keeps the API key out of transport errors, which embed the URL.
func redactKey(err error, key string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return errors.New(strings.ReplaceAll(urlErr.Error(), url.QueryEscape(key), "REDACTED"))
	}
	return err
}

func doWithRetry[T any](
	ctx context.Context,
	logger *slog.Logger,
	attempts int,
	backoff time.Duration,
	fn func() (T, error),
) (ret T, err error) {
	for i := range attempts {
		ret, err = fn()
		if err == nil {
			return ret, nil
		}
		if !isRetryable(err) || i == attempts-1 {
			return ret, err
		}
		logger.WarnContext(ctx, "retry",
			"attempt", i+1, "error", err,
		)
		select {
		case <-ctx.Done():
			return ret, ctx.Err()
		case <-time.After(backoff * time.Duration(1<<i)):
		}
	}
	return ret, err
}
