// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncora/syncora/pkg/errutil"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Model:      "syncora-text-1",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	})
	require.NoError(t, err)
	return client
}

func TestClient_Transform(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transform", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req transformRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, TaskSummarize, req.Task)
		assert.Equal(t, "syncora-text-1", req.Model)

		json.NewEncoder(w).Encode(transformResponse{Result: "a summary"}) //nolint:errcheck
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.Transform(context.Background(), TaskSummarize, "a very long message")
	require.NoError(t, err)
	assert.Equal(t, "a summary", result)
}

func TestClient_TransformConversation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transform", r.URL.Path)

		var req conversationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, TaskSummarize, req.Action)
		assert.Equal(t, "conv-1", req.ConversationID)
		assert.Len(t, req.Messages, 2)

		json.NewEncoder(w).Encode(transformResponse{Result: "they agreed to ship friday"}) //nolint:errcheck
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.TransformConversation(context.Background(), TaskSummarize, "conv-1",
		[]string{"shipping friday", "sounds good"})
	require.NoError(t, err)
	assert.Equal(t, "they agreed to ship friday", result)
}

func TestClient_TransformConversation_Rejections(t *testing.T) {
	client := newTestClient(t, "http://localhost:0")

	_, err := client.TransformConversation(context.Background(), TaskSentiment, "conv-1", []string{"hi"})
	errutil.AssertErrorCode(t, err, "AI_TASK_UNSUPPORTED")

	_, err = client.TransformConversation(context.Background(), TaskSummarize, "conv-1", nil)
	errutil.AssertErrorCode(t, err, "AI_CONTENT_EMPTY")
}

func TestClient_Transform_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(transformResponse{Result: "ok"}) //nolint:errcheck
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.Transform(context.Background(), TaskSimplify, "text")
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Transform_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Transform(context.Background(), TaskSentiment, "text")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AI_TRANSFORM_FAILED")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Transform_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(transformResponse{Error: "model overloaded"}) //nolint:errcheck
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Transform(context.Background(), TaskAnalyzeFile, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestClient_Transform_UnsupportedTask(t *testing.T) {
	client := newTestClient(t, "http://localhost:0")
	_, err := client.Transform(context.Background(), "translate", "text")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AI_TASK_UNSUPPORTED")
}

func TestClient_Transform_EmptyContent(t *testing.T) {
	client := newTestClient(t, "http://localhost:0")
	_, err := client.Transform(context.Background(), TaskSummarize, "")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AI_CONTENT_EMPTY")
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AI_CONFIG_INVALID")
}

func TestSupportedTask(t *testing.T) {
	assert.True(t, SupportedTask(TaskSummarize))
	assert.True(t, SupportedTask(TaskSentiment))
	assert.False(t, SupportedTask("translate"))
	assert.False(t, SupportedTask(""))
}
