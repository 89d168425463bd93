package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	generatePath = "/generate-quiz"
	maxBodyBytes = 1 << 20
)

// ErrEmptyAnswer is returned when the service replies without usable text.
var ErrEmptyAnswer = errors.New("inference service returned an empty answer")

// APIError reports a non-success response from the inference service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("inference api error: status %d", e.Status)
	}
	return fmt.Sprintf("inference api error: status %d: %s", e.Status, e.Message)
}

// Client calls the external question-answering service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for baseURL. A non-positive timeout falls back to
// one minute.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type askRequest struct {
	Question string `json:"question"`
	FileID   string `json:"fileId"`
}

// Ask sends question about the file identified by fileID and returns the answer text.
func (c *Client) Ask(ctx context.Context, question, fileID string) (string, error) {
	body, err := json.Marshal(askRequest{Question: question, FileID: fileID})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call inference service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read inference response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	return parseAnswer(raw)
}

// parseAnswer accepts a bare JSON string, an object carrying "answer", or any
// other JSON object, which is returned verbatim as text.
func parseAnswer(raw []byte) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", ErrEmptyAnswer
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyAnswer
		}
		return text, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("decode inference response: %w", err)
	}
	if msg, ok := obj["error"]; ok && len(obj) == 1 {
		return "", &APIError{Status: http.StatusOK, Message: rawText(msg)}
	}
	if answer, ok := obj["answer"]; ok {
		if s := rawText(answer); s != "" {
			return s, nil
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw), nil
	}
	return compact.String(), nil
}

func errorMessage(raw []byte) string {
	var obj struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		switch {
		case len(obj.Error) > 0:
			return rawText(obj.Error)
		case obj.Message != "":
			return obj.Message
		case len(obj.Detail) > 0:
			return rawText(obj.Detail)
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}
