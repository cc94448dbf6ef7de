package transcription

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrEmptyResponse is returned when the model answers without any text
var ErrEmptyResponse = errors.New("model returned no text")

// Client calls the Gemini generateContent REST API. It implements Transcriber,
// ReportGenerator and CombinedAnalyzer.
type Client struct {
	config     Config
	httpClient *http.Client
	semaphore  chan struct{} // bounds in-flight requests

	// Statistics
	totalRequests   uint64
	successRequests uint64
	failedRequests  uint64
	avgResponseTime time.Duration

	mu sync.RWMutex
}

// Config contains model client configuration
type Config struct {
	Endpoint      string // e.g. https://generativelanguage.googleapis.com/v1beta
	APIKey        string
	Model         string // with or without the "models/" prefix
	Timeout       time.Duration
	MaxConcurrent int
}

// ClientStats represents client statistics
type ClientStats struct {
	TotalRequests   uint64        `json:"total_requests"`
	SuccessRequests uint64        `json:"success_requests"`
	FailedRequests  uint64        `json:"failed_requests"`
	SuccessRate     float64       `json:"success_rate"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	ActiveRequests  int           `json:"active_requests"`
}

// APIError is a non-2xx answer from the model API
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("model API error %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("model API error %d", e.StatusCode)
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewClient creates a new model HTTP client
func NewClient(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	if config.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}

	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 8
	}

	config.Endpoint = strings.TrimRight(config.Endpoint, "/")
	config.Model = strings.TrimPrefix(config.Model, "models/")

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		semaphore:  make(chan struct{}, config.MaxConcurrent),
	}, nil
}

// Transcribe returns the model's transcription of the audio
func (c *Client) Transcribe(ctx context.Context, audio AudioInput) (string, error) {
	text, err := c.generate(ctx, textPart(transcribePrompt), audioPart(audio))
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	return text, nil
}

// GenerateReport returns narrative feedback for the features and transcript
func (c *Client) GenerateReport(ctx context.Context, in ReportInput) (string, error) {
	text, err := c.generate(ctx, textPart(reportPrompt(in)))
	if err != nil {
		return "", fmt.Errorf("report request failed: %w", err)
	}
	return text, nil
}

// AnalyzeSpeech transcribes and reports in one call, splitting the response on its
// TRANSCRIPT:/ANALYSIS: markers.
func (c *Client) AnalyzeSpeech(ctx context.Context, audio AudioInput, in ReportInput) (string, string, error) {
	text, err := c.generate(ctx, textPart(combinedPrompt(in)), audioPart(audio))
	if err != nil {
		return "", "", fmt.Errorf("combined analysis request failed: %w", err)
	}
	transcript, report := ParseCombined(text)
	return transcript, report, nil
}

func textPart(text string) part {
	return part{Text: text}
}

func audioPart(audio AudioInput) part {
	return part{InlineData: &inlineData{
		MIMEType: audio.MIMEType,
		Data:     base64.StdEncoding.EncodeToString(audio.Data),
	}}
}

// generate sends one generateContent request. There is no retry.
func (c *Client) generate(ctx context.Context, parts ...part) (string, error) {
	select {
	case c.semaphore <- struct{}{}:
		defer func() { <-c.semaphore }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	startTime := time.Now()
	c.incrementTotalRequests()

	text, err := c.doRequest(ctx, parts)
	if err != nil {
		c.incrementFailedRequests()
		return "", err
	}

	c.incrementSuccessRequests()
	c.updateAvgResponseTime(time.Since(startTime))
	return text, nil
}

// doRequest performs a single HTTP request to the model API
func (c *Client) doRequest(ctx context.Context, parts []part) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.config.Endpoint, url.PathEscape(c.config.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.config.APIKey)
	httpReq.Header.Set("User-Agent", "Sprov-Audio-Service/1.0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			apiErr.Status = errResp.Error.Status
			apiErr.Message = errResp.Error.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return "", apiErr
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse response JSON: %w", err)
	}

	if genResp.PromptFeedback != nil && genResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", genResp.PromptFeedback.BlockReason)
	}

	var b strings.Builder
	for _, cand := range genResp.Candidates {
		for _, p := range cand.Content.Parts {
			b.WriteString(p.Text)
		}
		if b.Len() > 0 {
			break
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Statistics methods
func (c *Client) incrementTotalRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
}

func (c *Client) incrementSuccessRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successRequests++
}

func (c *Client) incrementFailedRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedRequests++
}

func (c *Client) updateAvgResponseTime(responseTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Simple moving average
	if c.avgResponseTime == 0 {
		c.avgResponseTime = responseTime
	} else {
		c.avgResponseTime = (c.avgResponseTime + responseTime) / 2
	}
}

// GetStats returns current client statistics
func (c *Client) GetStats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	successRate := float64(0)
	if c.totalRequests > 0 {
		successRate = float64(c.successRequests) / float64(c.totalRequests) * 100
	}

	return ClientStats{
		TotalRequests:   c.totalRequests,
		SuccessRequests: c.successRequests,
		FailedRequests:  c.failedRequests,
		SuccessRate:     successRate,
		AvgResponseTime: c.avgResponseTime,
		ActiveRequests:  len(c.semaphore),
	}
}

// Close waits for in-flight requests to complete
func (c *Client) Close() error {
	for i := 0; i < c.config.MaxConcurrent; i++ {
		c.semaphore <- struct{}{}
	}
	return nil
}
