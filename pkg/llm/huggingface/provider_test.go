package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"research-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuggingFaceChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		msgs := req["messages"].([]interface{})
		first := msgs[0].(map[string]interface{})
		assert.Equal(t, "user", first["role"])

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"answer"}}]}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("secret", srv.URL, "mistral")
	out, err := p.Generate(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
}

func TestHuggingFaceFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		"status": {http.StatusTooManyRequests, `rate limited`, func(t *testing.T, err error) {
			var se *llm.StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, 429, se.Code)
		}},
		"api error": {http.StatusOK, `{"error":{"message":"bad model"}}`, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "bad model")
		}},
		"no choices": {http.StatusOK, `{"choices":[]}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
		}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.status)
				w.Write([]byte(c.body))
			}))
			defer srv.Close()

			_, err := NewHuggingFaceProvider("k", srv.URL, "m").Generate(context.Background(), "q")
			c.check(t, err)
		})
	}
}
