// Package driver drives a running certo server over its public HTTP API. Point
// CERTO_E2E_BASE_URL at a server (memory mode is enough) and run the suite.
package driver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TestContext carries the HTTP client and the state accumulated by a
// scenario's steps. One instance per scenario keeps scenarios independent.
type TestContext struct {
	BaseURL string
	Client  *http.Client

	// State threaded between steps.
	CompetencyID  string
	DocumentTypes []string
	EvaluatorID   string
	ReviewerID    string
	CandidateID   string
	ProcessID     string
	Folio         string
	Hash          string
	CertificateID string

	LastStatus int
	LastBody   map[string]any
}

// NewTestContext creates a context for one scenario.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// DoJSON issues a request against the API, recording the decoded response.
// actor, when non-empty, is sent as the X-User-ID header.
func (tc *TestContext) DoJSON(method, path, actor string, body any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, &payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-User-ID", actor)
	}

	resp, err := tc.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.LastStatus = resp.StatusCode
	tc.LastBody = nil
	if err := json.NewDecoder(resp.Body).Decode(&tc.LastBody); err != nil {
		tc.LastBody = map[string]any{}
	}
	return nil
}

// RequireStatus fails the step when the last response status differs.
func (tc *TestContext) RequireStatus(expected int) error {
	if tc.LastStatus != expected {
		return fmt.Errorf("expected status %d, got %d (body: %v)", expected, tc.LastStatus, tc.LastBody)
	}
	return nil
}

// StringField digs a string out of the last response body by dotted path.
func (tc *TestContext) StringField(path ...string) (string, error) {
	var current any = tc.LastBody
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return "", fmt.Errorf("field %v not found in response: %v", path, tc.LastBody)
		}
		current = m[key]
	}
	s, ok := current.(string)
	if !ok {
		return "", fmt.Errorf("field %v is not a string in response: %v", path, tc.LastBody)
	}
	return s, nil
}
