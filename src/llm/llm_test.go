package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL *struct {
				URL string `json:"url"`
			} `json:"image_url"`
		} `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, status int, body string, got *capturedRequest, auth *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if auth != nil {
			*auth = r.Header.Get("Authorization")
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmitBuildsOrderedRequest(t *testing.T) {
	var got capturedRequest
	var auth string
	srv := newTestServer(t, http.StatusOK,
		`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"x = 4"},"finish_reason":"stop"}]}`,
		&got, &auth)

	client := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", MaxTokens: 300})
	answer, err := client.Submit(context.Background(), []string{"Zmlyc3Q=", "c2Vjb25k"}, "gpt-4o-mini")
	require.NoError(t, err)
	require.Equal(t, "x = 4", answer)

	require.Equal(t, "Bearer sk-test", auth)
	require.Equal(t, "gpt-4o-mini", got.Model)
	require.Equal(t, 300, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	msg := got.Messages[0]
	require.Equal(t, "user", msg.Role)
	require.Len(t, msg.Content, 3)
	require.Equal(t, "text", msg.Content[0].Type)
	require.Equal(t, Prompt, msg.Content[0].Text)
	require.Equal(t, "image_url", msg.Content[1].Type)
	require.Equal(t, "data:image/png;base64,Zmlyc3Q=", msg.Content[1].ImageURL.URL)
	require.Equal(t, "data:image/png;base64,c2Vjb25k", msg.Content[2].ImageURL.URL)
}

func TestSubmitNoImages(t *testing.T) {
	client := New(Config{APIKey: "sk-test"})
	_, err := client.Submit(context.Background(), nil, "gpt-4o-mini")
	require.ErrorIs(t, err, ErrNoImages)
}

func TestSubmitAPIError(t *testing.T) {
	srv := newTestServer(t, http.StatusUnauthorized,
		`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
		nil, nil)

	client := New(Config{APIKey: "sk-bad", BaseURL: srv.URL + "/v1"})
	_, err := client.Submit(context.Background(), []string{"aW1n"}, "gpt-4o-mini")
	require.Error(t, err)

	var apiErr *openai.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatusCode)
	require.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestSubmitNoChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"id":"x","choices":[]}`, nil, nil)

	client := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	_, err := client.Submit(context.Background(), []string{"aW1n"}, "gpt-4o-mini")
	require.ErrorIs(t, err, ErrNoChoices)
}

func TestSubmitEmptyAnswerIsReturned(t *testing.T) {
	srv := newTestServer(t, http.StatusOK,
		`{"id":"x","choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"length"}]}`,
		nil, nil)

	client := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	answer, err := client.Submit(context.Background(), []string{"aW1n"}, "gpt-4o-mini")
	require.NoError(t, err)
	require.Empty(t, answer)
}

func TestSubmitCancelled(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"id":"x","choices":[]}`, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	_, err := client.Submit(ctx, []string{"aW1n"}, "gpt-4o-mini")
	require.ErrorIs(t, err, context.Canceled)
}
