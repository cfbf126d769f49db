// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

// Package ai provides a client for the generative-text backend used by
// message transforms such as summarize and simplify.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/syncora/syncora/internal/chat"
)

// Compile-time interface check.
var _ chat.Transformer = (*Client)(nil)

// Tasks the backend understands.
const (
	TaskSentiment   = "sentiment"
	TaskSimplify    = "simplify"
	TaskSummarize   = "summarize"
	TaskAnalyzeFile = "analyze_file"
)

var supportedTasks = map[string]bool{
	TaskSentiment:   true,
	TaskSimplify:    true,
	TaskSummarize:   true,
	TaskAnalyzeFile: true,
}

// SupportedTask reports whether the backend understands the given task.
func SupportedTask(task string) bool {
	return supportedTasks[task]
}

// Config holds client settings for the generative-text backend.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries uint64
}

// DefaultConfig returns client settings suitable for production.
func DefaultConfig(baseURL, apiKey string) Config {
	return Config{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      "syncora-text-1",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}
}

// Client calls the generative-text backend over HTTP. It satisfies the
// chat.Transformer interface.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, oops.Code("AI_CONFIG_INVALID").Errorf("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// SupportedAction reports whether the backend understands a conversation
// action. Only the rewrite-style tasks apply to whole conversations.
func SupportedAction(action string) bool {
	return action == TaskSummarize || action == TaskSimplify
}

type transformRequest struct {
	Model   string `json:"model"`
	Task    string `json:"task"`
	Content string `json:"content"`
}

type conversationRequest struct {
	Model          string   `json:"model"`
	Action         string   `json:"action"`
	ConversationID string   `json:"conversationId"`
	Messages       []string `json:"messages"`
}

type transformResponse struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Transform runs a single text transform against the backend. Transient
// failures (network errors, 5xx, 429) are retried with fibonacci backoff.
func (c *Client) Transform(ctx context.Context, task, content string) (string, error) {
	if !SupportedTask(task) {
		return "", oops.Code("AI_TASK_UNSUPPORTED").With("task", task).Errorf("unsupported task %q", task)
	}
	if content == "" {
		return "", oops.Code("AI_CONTENT_EMPTY").Errorf("content is empty")
	}

	body, err := json.Marshal(transformRequest{
		Model:   c.cfg.Model,
		Task:    task,
		Content: content,
	})
	if err != nil {
		return "", oops.Code("AI_MARSHAL_FAILED").Wrap(err)
	}

	result, err := c.doWithRetry(ctx, body)
	if err != nil {
		return "", oops.Code("AI_TRANSFORM_FAILED").With("task", task).Wrap(err)
	}
	return result, nil
}

// TransformConversation runs an action over the messages of one conversation.
func (c *Client) TransformConversation(ctx context.Context, action, conversationID string, messages []string) (string, error) {
	if !SupportedAction(action) {
		return "", oops.Code("AI_TASK_UNSUPPORTED").With("action", action).Errorf("unsupported action %q", action)
	}
	if len(messages) == 0 {
		return "", oops.Code("AI_CONTENT_EMPTY").Errorf("conversation has no messages")
	}

	body, err := json.Marshal(conversationRequest{
		Model:          c.cfg.Model,
		Action:         action,
		ConversationID: conversationID,
		Messages:       messages,
	})
	if err != nil {
		return "", oops.Code("AI_MARSHAL_FAILED").Wrap(err)
	}

	result, err := c.doWithRetry(ctx, body)
	if err != nil {
		return "", oops.Code("AI_TRANSFORM_FAILED").With("action", action).Wrap(err)
	}
	return result, nil
}

func (c *Client) doWithRetry(ctx context.Context, body []byte) (string, error) {
	var result string
	backoff := retry.NewFibonacci(250 * time.Millisecond)
	backoff = retry.WithMaxRetries(c.cfg.MaxRetries, backoff)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = c.transform(ctx, body)
		return innerErr
	})
	return result, err
}

func (c *Client) transform(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/transform", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", retry.RetryableError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", retry.RetryableError(err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", retry.RetryableError(fmt.Errorf("backend returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("backend returned %d: %s", resp.StatusCode, data)
	}

	var parsed transformResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("backend error: %s", parsed.Error)
	}
	return parsed.Result, nil
}
