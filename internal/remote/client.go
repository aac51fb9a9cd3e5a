// Package remote is the HTTP backend for answer keys and outcome mappings.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SAP-F-2025/answer-key-service/internal/matrix"
	"github.com/SAP-F-2025/answer-key-service/internal/models"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the remote API. Message holds the text the
// API meant for a person, when it sent one.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// HumanMessage returns the message to show the user.
func (e *APIError) HumanMessage() string {
	return e.Message
}

// Client talks to the remote answer-key API. It performs exactly one attempt
// per call.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.With("component", "remote_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchByPaper returns the raw answer-key records of a paper.
func (c *Client) FetchByPaper(ctx context.Context, paperID string) ([]models.RawRecord, error) {
	path := "/answer-key/" + url.PathEscape(paperID)
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecords(body, "answer_key", "questions")
}

// FetchStudentView returns the graded records of one student for one question.
func (c *Client) FetchStudentView(ctx context.Context, studentID, questionID string) ([]models.RawRecord, error) {
	path := fmt.Sprintf("/student-answers/%s/%s", url.PathEscape(studentID), url.PathEscape(questionID))
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecords(body, "answers", "questions")
}

// SaveQuestion sends one edited question.
func (c *Client) SaveQuestion(ctx context.Context, req *models.SaveQuestionRequest) error {
	path := "/answer-key/questions/" + url.PathEscape(string(req.QuestionID))
	_, err := c.do(ctx, http.MethodPut, path, req)
	return err
}

type outcomeRecord struct {
	CO            string  `json:"co"`
	PO            string  `json:"po"`
	Value         float64 `json:"value"`
	CODescription string  `json:"co_description,omitempty"`
	PODescription string  `json:"po_description,omitempty"`
}

// FetchOutcomeMappings returns the flat CO/PO mapping list of a course.
func (c *Client) FetchOutcomeMappings(ctx context.Context, courseID string) ([]matrix.Cell, error) {
	path := fmt.Sprintf("/courses/%s/co-po-mapping", url.PathEscape(courseID))
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var records []outcomeRecord
	if err := decodeList(body, &records, "mappings"); err != nil {
		return nil, err
	}
	cells := make([]matrix.Cell, 0, len(records))
	for _, r := range records {
		cells = append(cells, matrix.Cell{
			Row:               r.CO,
			Column:            r.PO,
			Value:             r.Value,
			RowDescription:    r.CODescription,
			ColumnDescription: r.PODescription,
		})
	}
	return cells, nil
}

// SaveOutcomeMapping sends one edited matrix cell.
func (c *Client) SaveOutcomeMapping(ctx context.Context, courseID string, cell matrix.Cell) error {
	path := fmt.Sprintf("/courses/%s/co-po-mapping", url.PathEscape(courseID))
	_, err := c.do(ctx, http.MethodPut, path, outcomeRecord{CO: cell.Row, PO: cell.Column, Value: cell.Value})
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "remote request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	c.logger.DebugContext(ctx, "remote request",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"duration", time.Since(start),
		"bytes", len(body),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Message:    errorMessage(body),
		}
	}
	return body, nil
}

// errorMessage pulls a readable message out of an error body.
func errorMessage(body []byte) string {
	var envelope map[string]interface{}
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, key := range []string{"message", "error", "detail"} {
			if s, ok := envelope[key].(string); ok && s != "" {
				return s
			}
		}
		return ""
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

// decodeRecords accepts a bare array, a single object, or an envelope holding
// the array under "data" or one of keys.
func decodeRecords(body []byte, keys ...string) ([]models.RawRecord, error) {
	var records []models.RawRecord
	if err := decodeList(body, &records, keys...); err != nil {
		return nil, err
	}
	return records, nil
}

func decodeList(body []byte, dest interface{}, keys ...string) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, dest); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	for _, key := range append([]string{"data"}, keys...) {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '[' {
			if err := json.Unmarshal(raw, dest); err != nil {
				return fmt.Errorf("failed to decode %q: %w", key, err)
			}
			return nil
		}
		if len(raw) > 0 && raw[0] == '{' {
			return decodeList(raw, dest, keys...)
		}
	}

	// a single record
	wrapped := append(append([]byte{'['}, trimmed...), ']')
	if err := json.Unmarshal(wrapped, dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
