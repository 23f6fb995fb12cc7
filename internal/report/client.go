package report

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leaselens/leaselens/internal/model"
)

// Generator produces completion text for a prompt. Implementations talk to an
// OpenAI-compatible chat completions endpoint.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAIClient calls a chat completions endpoint. Works against api.openai.com
// or any compatible gateway via the configured base URL.
type OpenAIClient struct {
	client *resty.Client
	model  string
}

// NewOpenAIClient builds a generation client. The API key may be empty; the
// failure is reported at call time so the rest of the service still starts.
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	if apiKey == "" {
		return &OpenAIClient{model: model}
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		}).
		SetRetryAfter(func(c *resty.Client, r *resty.Response) (time.Duration, error) {
			if secs, err := strconv.Atoi(r.Header().Get("Retry-After")); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second, nil
			}
			return 0, nil
		}).
		SetAuthToken(apiKey)
	return &OpenAIClient{client: client, model: model}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.client == nil {
		return "", model.NewConfiguration("generation API key is not configured")
	}

	var out chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:          c.model,
			Messages:       []chatMessage{{Role: "user", Content: prompt}},
			Temperature:    0.4,
			ResponseFormat: responseFormat{Type: "json_object"},
		}).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return "", model.NewAPI("generation request failed", 0, err)
	}
	if resp.IsError() {
		msg := "generation upstream error"
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		if resp.StatusCode() == 429 {
			return "", model.NewRateLimited(msg, nil)
		}
		return "", model.NewAPI(msg, resp.StatusCode(), nil)
	}
	if len(out.Choices) == 0 {
		return "", model.NewAPI("generation returned no choices", resp.StatusCode(), nil)
	}
	return out.Choices[0].Message.Content, nil
}
