package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"technician-route-service/internal/domain"
	"technician-route-service/internal/platform/obs"
)

const providerName = "llm"

const systemPrompt = `You are a dispatch assistant that reorders a field technician's jobs for the day.
You receive a JSON object {"jobList": [...]} where every job has an id, customerName, address,
scheduledTime and estimatedArrivalTime. Return a JSON object {"optimizedJobList": [...]} containing
exactly the same jobs, each id exactly once, ordered to minimize travel while respecting the
scheduled times where possible. Do not add, remove or modify jobs.`

type Observer interface {
	ObserveProviderCall(provider, operation, outcome string, d time.Duration)
}

// LLM asks an OpenAI-compatible chat completions endpoint for a new job order.
type LLM struct {
	session  *http.Client
	apiKey   string
	baseURL  string
	model    string
	observer Observer
}

type LLMOption func(*LLM)

func WithHTTPClient(c *http.Client) LLMOption { return func(l *LLM) { l.session = c } }
func WithObserver(o Observer) LLMOption       { return func(l *LLM) { l.observer = o } }

func NewLLM(apiKey, baseURL, model string, opts ...LLMOption) *LLM {
	l := &LLM{
		session: &http.Client{Timeout: 60 * time.Second},
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type jobListPayload struct {
	JobList []domain.JobSummary `json:"jobList"`
}

type optimizedPayload struct {
	OptimizedJobList []domain.JobSummary `json:"optimizedJobList"`
}

func (l *LLM) Reorder(ctx context.Context, jobs []domain.JobSummary) (_ []domain.JobSummary, err error) {
	if l.apiKey == "" {
		return nil, &domain.ConfigurationError{
			Setting: "ORACLE_API_KEY",
			Message: "reordering oracle API key is not configured",
		}
	}

	defer obs.Time(ctx, "oracle.LLM")(&err)

	start := time.Now()
	defer func() {
		if l.observer == nil {
			return
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		l.observer.ObserveProviderCall(providerName, "reorder", outcome, time.Since(start))
	}()

	user, err := json.Marshal(jobListPayload{JobList: jobs})
	if err != nil {
		return nil, fmt.Errorf("llm reorder: encode jobs: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: l.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(user)},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    0,
	})
	if err != nil {
		return nil, fmt.Errorf("llm reorder: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm reorder: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+l.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := l.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm reorder: %w", &domain.ProviderError{Provider: providerName, Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm reorder: %w", &domain.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Err: err})
	}

	var decoded chatResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return nil, fmt.Errorf("llm reorder: %w", &domain.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    msg,
		})
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("llm reorder: %w", &domain.ProviderError{
			Provider: providerName, StatusCode: resp.StatusCode, Message: "malformed response body", Err: decodeErr,
		})
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("llm reorder: %w", &domain.ProviderError{
			Provider: providerName, StatusCode: resp.StatusCode, Message: "response has no choices",
		})
	}

	var answer optimizedPayload
	if err := json.Unmarshal([]byte(decoded.Choices[0].Message.Content), &answer); err != nil {
		return nil, fmt.Errorf("llm reorder: %w", &domain.ProviderError{
			Provider: providerName, StatusCode: resp.StatusCode, Message: "response content is not the expected JSON object", Err: err,
		})
	}
	if answer.OptimizedJobList == nil {
		return nil, fmt.Errorf("llm reorder: %w", &domain.ProviderError{
			Provider: providerName, StatusCode: resp.StatusCode, Message: "response is missing optimizedJobList",
		})
	}

	return answer.OptimizedJobList, nil
}
