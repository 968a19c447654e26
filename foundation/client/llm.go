package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// LLM provides chat completion calls against a single model on an
// OpenAI-compatible endpoint.
type LLM struct {
	cln          *Client
	url          string
	model        string
	retryCount   int
	retryBackoff time.Duration
}

func NewLLM(url string, model string, options ...func(llm *LLM)) *LLM {
	llm := LLM{
		cln:          New(),
		url:          url,
		model:        model,
		retryCount:   0,
		retryBackoff: 500 * time.Millisecond,
	}

	for _, option := range options {
		option(&llm)
	}

	return &llm
}

// WithAuth configures the bearer credential used on every call.
func WithAuth(apiKey string) func(llm *LLM) {
	return func(llm *LLM) {
		llm.cln = New(WithAPIKey(apiKey))
	}
}

// WithRetry configures how many extra attempts are made after a transient
// failure and the initial backoff, which doubles per attempt. Authorization
// failures and context cancellation are never retried.
func WithRetry(count int, backoff time.Duration) func(llm *LLM) {
	return func(llm *LLM) {
		llm.retryCount = count
		if backoff > 0 {
			llm.retryBackoff = backoff
		}
	}
}

type withParam struct {
	typ string
	d   D
}

func WithParams(temperature float32, topP float32, maxTokens int) withParam {
	return withParam{
		typ: "params",
		d: D{
			"temperature": temperature,
			"top_p":       topP,
			"max_tokens":  maxTokens,
		},
	}
}

func (llm *LLM) ChatCompletions(ctx context.Context, text string, options ...withParam) (string, error) {
	d := D{
		"model": llm.model,
		"messages": []D{
			{
				"role":    "user",
				"content": text,
			},
		},
	}

	for _, opt := range options {
		if opt.typ == "params" {
			for k, v := range opt.d {
				d[k] = v
			}
		}
	}

	backoff := llm.retryBackoff

	var lastErr error
	for attempt := 0; attempt <= llm.retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= 2
		}

		var chat Chat
		if err := llm.cln.Do(ctx, http.MethodPost, llm.url, d, &chat); err != nil {
			if errors.Is(err, ErrUnauthorized) || ctx.Err() != nil {
				return "", err
			}
			lastErr = err
			continue
		}

		if len(chat.Choices) == 0 {
			return "", fmt.Errorf("no response")
		}

		return chat.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("do: %w", lastErr)
}
