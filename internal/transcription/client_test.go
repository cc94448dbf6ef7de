package transcription

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeModelServer stands in for the generateContent API and records what it received.
type fakeModelServer struct {
	mu       sync.Mutex
	requests []generateRequest
	paths    []string
	keys     []string

	reply  string
	status int
	delay  time.Duration
}

func (f *fakeModelServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error parsing body", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.paths = append(f.paths, r.URL.Path)
	f.keys = append(f.keys, r.Header.Get("x-goog-api-key"))
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": f.status, "message": "quota exhausted", "status": "RESOURCE_EXHAUSTED"},
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"role": "model", "parts": []map[string]any{{"text": f.reply}}}},
		},
	})
}

type recorded struct {
	requests []generateRequest
	paths    []string
	keys     []string
}

func (f *fakeModelServer) recorded() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return recorded{
		requests: append([]generateRequest(nil), f.requests...),
		paths:    append([]string(nil), f.paths...),
		keys:     append([]string(nil), f.keys...),
	}
}

func newTestClient(t *testing.T, fake *fakeModelServer) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Endpoint:      srv.URL + "/v1beta/",
		APIKey:        "test-key",
		Model:         "models/gemini-2.0-flash",
		Timeout:       5 * time.Second,
		MaxConcurrent: 2,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"missing endpoint", Config{APIKey: "k", Model: "m"}},
		{"missing key", Config{Endpoint: "http://x", Model: "m"}},
		{"missing model", Config{Endpoint: "http://x", APIKey: "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.config); err == nil {
				t.Error("Expected configuration error")
			}
		})
	}
}

func TestTranscribeSendsInlineAudio(t *testing.T) {
	fake := &fakeModelServer{reply: "  hello there  "}
	client := newTestClient(t, fake)

	audio := AudioInput{Data: []byte("RIFFdata"), MIMEType: "audio/wav", Filename: "a.wav"}
	text, err := client.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello there" {
		t.Errorf("Expected trimmed transcript, got %q", text)
	}

	rec := fake.recorded()
	if len(rec.requests) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(rec.requests))
	}
	if rec.paths[0] != "/v1beta/models/gemini-2.0-flash:generateContent" {
		t.Errorf("Unexpected request path %s", rec.paths[0])
	}
	if rec.keys[0] != "test-key" {
		t.Errorf("Expected API key header, got %q", rec.keys[0])
	}

	parts := rec.requests[0].Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("Expected prompt and audio parts, got %d", len(parts))
	}
	if parts[0].Text != transcribePrompt {
		t.Errorf("Unexpected prompt %q", parts[0].Text)
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "audio/wav" {
		t.Fatalf("Expected inline audio/wav part, got %+v", parts[1])
	}
	decoded, _ := base64.StdEncoding.DecodeString(parts[1].InlineData.Data)
	if string(decoded) != "RIFFdata" {
		t.Errorf("Audio bytes were not sent verbatim, got %q", decoded)
	}

	stats := client.GetStats()
	if stats.TotalRequests != 1 || stats.SuccessRequests != 1 || stats.SuccessRate != 100 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestGenerateReportIncludesMetrics(t *testing.T) {
	fake := &fakeModelServer{reply: "Pitch: +2"}
	client := newTestClient(t, fake)

	report, err := client.GenerateReport(context.Background(), ReportInput{
		Transcript:     "I I think so",
		AveragePitch:   182.34,
		PitchVariation: 31.5,
		SpeechStyle:    "Dynamic",
	})
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	if report != "Pitch: +2" {
		t.Errorf("Unexpected report %q", report)
	}

	rec := fake.recorded()
	prompt := rec.requests[0].Contents[0].Parts[0].Text
	for _, want := range []string{"-5", "+5", "182.3 Hz", "31.50", "Dynamic", "I I think so"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected report prompt to contain %q", want)
		}
	}
	if len(rec.requests[0].Contents[0].Parts) != 1 {
		t.Errorf("Report requests must not carry audio")
	}
}

func TestAnalyzeSpeechParsesMarkers(t *testing.T) {
	fake := &fakeModelServer{reply: "TRANSCRIPT: the the cat\nANALYSIS: Clear speech."}
	client := newTestClient(t, fake)

	transcript, report, err := client.AnalyzeSpeech(context.Background(),
		AudioInput{Data: []byte{1, 2, 3}, MIMEType: "audio/mp3"}, ReportInput{SpeechStyle: "Monotonous"})
	if err != nil {
		t.Fatalf("AnalyzeSpeech failed: %v", err)
	}
	if transcript != "the the cat" {
		t.Errorf("Unexpected transcript %q", transcript)
	}
	if report != "Clear speech." {
		t.Errorf("Unexpected report %q", report)
	}
}

func TestParseCombined(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		wantTranscript string
		wantReport     string
	}{
		{"both markers", "TRANSCRIPT: hello world ANALYSIS: good", "hello world", "good"},
		{"missing analysis", "TRANSCRIPT: hello world", "TRANSCRIPT: hello world", UnparsedReport},
		{"no markers", "just words", "just words", UnparsedReport},
		{"multiline", "TRANSCRIPT:\nline one\n\nANALYSIS:\n- tip", "line one", "- tip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transcript, report := ParseCombined(tt.text)
			if transcript != tt.wantTranscript || report != tt.wantReport {
				t.Errorf("ParseCombined(%q) = (%q, %q), want (%q, %q)",
					tt.text, transcript, report, tt.wantTranscript, tt.wantReport)
			}
		})
	}
}

func TestAPIErrorIsNotRetried(t *testing.T) {
	fake := &fakeModelServer{status: http.StatusTooManyRequests}
	client := newTestClient(t, fake)

	_, err := client.Transcribe(context.Background(), AudioInput{Data: []byte{0}, MIMEType: "audio/wav"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests || apiErr.Message != "quota exhausted" {
		t.Errorf("Unexpected API error %+v", apiErr)
	}
	if n := len(fake.recorded().requests); n != 1 {
		t.Errorf("Expected a single attempt, got %d", n)
	}
	if stats := client.GetStats(); stats.FailedRequests != 1 {
		t.Errorf("Expected 1 failed request, got %d", stats.FailedRequests)
	}
}

func TestContextDeadlineAbortsCall(t *testing.T) {
	fake := &fakeModelServer{reply: "late", delay: 2 * time.Second}
	client := newTestClient(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Transcribe(ctx, AudioInput{Data: []byte{0}, MIMEType: "audio/wav"})
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded in chain, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("Call was not aborted promptly: %v", time.Since(start))
	}
}

func TestEmptyReplyIsAnError(t *testing.T) {
	fake := &fakeModelServer{reply: "   "}
	client := newTestClient(t, fake)

	_, err := client.GenerateReport(context.Background(), ReportInput{})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestSentinels(t *testing.T) {
	err := errors.New("deadline exceeded")
	if got := FailedTranscript(err); got != "Transcription failed: deadline exceeded" {
		t.Errorf("Unexpected transcript sentinel %q", got)
	}
	if got := FailedReport(err); got != "AI analysis failed: deadline exceeded" {
		t.Errorf("Unexpected report sentinel %q", got)
	}
}
