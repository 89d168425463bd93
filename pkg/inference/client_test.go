package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string) (*httptest.Server, *askRequest) {
	t.Helper()
	var got askRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate-quiz", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestAskObjectAnswer(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"answer":"Photosynthesis converts light."}`)
	answer, err := NewClient(srv.URL+"/", time.Second).Ask(context.Background(), "What is photosynthesis?", "file-1")
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis converts light.", answer)
	assert.Equal(t, askRequest{Question: "What is photosynthesis?", FileID: "file-1"}, *got)
}

func TestAskBareString(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `"just text"`)
	answer, err := NewClient(srv.URL, time.Second).Ask(context.Background(), "q", "f")
	require.NoError(t, err)
	assert.Equal(t, "just text", answer)
}

func TestAskObjectWithoutAnswerReturnsJSON(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{ "quiz": [1, 2] }`)
	answer, err := NewClient(srv.URL, time.Second).Ask(context.Background(), "q", "f")
	require.NoError(t, err)
	assert.Equal(t, `{"quiz":[1,2]}`, answer)
}

func TestAskErrorPayloads(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, `{"error":"model crashed"}`)
	_, err := NewClient(srv.URL, time.Second).Ask(context.Background(), "q", "f")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "model crashed", apiErr.Message)

	srv, _ = newServer(t, http.StatusOK, `{"error":"file not found"}`)
	_, err = NewClient(srv.URL, time.Second).Ask(context.Background(), "q", "f")
	require.True(t, errors.As(err, &apiErr))

	srv, _ = newServer(t, http.StatusOK, ``)
	_, err = NewClient(srv.URL, time.Second).Ask(context.Background(), "q", "f")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestAskTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL, time.Minute).Ask(ctx, "q", "f")
	require.Error(t, err)
}
