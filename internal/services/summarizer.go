package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vaporscope-backend/internal/models"
)

// GenerationError marks a failed or unparseable completion. The request that
// hit it is dead; callers may try again later with a fresh request.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Reason, e.Err)
	}
	return "generation failed: " + e.Reason
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// SummarizerService turns a batch of raw review snippets into a structured
// verdict by prompting the Gemini completion endpoint. Single attempt, no
// retry; a hung upstream call is cut off by the client timeout.
type SummarizerService struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	now        func() time.Time
}

func NewSummarizerService(baseURL, apiKey, model string, timeout time.Duration) *SummarizerService {
	return &SummarizerService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// Gemini generateContent request/response wire shapes (the subset we use).
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (s *SummarizerService) buildPrompt(reviews []string) (string, error) {
	serialized, err := json.Marshal(reviews)
	if err != nil {
		return "", err
	}

	today := s.now().Format("1/2/2006")
	prompt := fmt.Sprintf(`You are a helpful game critic. Context: Today is %s.
Analyze these reviews: %s
Return JSON: { "verdict": "Buy / Wait / Avoid", "one_liner": "...", "performance_score": 0-10, "pros": [], "cons": [] }`,
		today, serialized)
	return prompt, nil
}

func (s *SummarizerService) Summarize(ctx context.Context, appID string, reviews []string) (models.Summary, error) {
	prompt, err := s.buildPrompt(reviews)
	if err != nil {
		return models.Summary{}, &GenerationError{Reason: "prompt build failed", Err: err}
	}

	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return models.Summary{}, err
	}

	return ParseSummaryText(raw)
}

func (s *SummarizerService) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", &GenerationError{Reason: "request encode failed", Err: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &GenerationError{Reason: "request build failed", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &GenerationError{Reason: "upstream call failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GenerationError{Reason: "upstream read failed", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &GenerationError{Reason: fmt.Sprintf("upstream status %d", resp.StatusCode)}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", &GenerationError{Reason: "upstream decode failed", Err: err}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &GenerationError{Reason: "empty completion"}
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// ParseSummaryText extracts the JSON object embedded in a completion. Models
// tend to wrap the object in prose or code fences, so everything between the
// first '{' and the last '}' is taken as the payload. Unrelated braces in
// surrounding text can still mis-extract; that is a known limitation of this
// contract with the provider.
func ParseSummaryText(text string) (models.Summary, error) {
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 {
		return models.Summary{}, &GenerationError{Reason: "invalid response"}
	}
	if last < first {
		return models.Summary{}, &GenerationError{Reason: "invalid response"}
	}

	var summary models.Summary
	if err := json.Unmarshal([]byte(text[first:last+1]), &summary); err != nil {
		return models.Summary{}, &GenerationError{Reason: "malformed JSON", Err: err}
	}
	return summary, nil
}
