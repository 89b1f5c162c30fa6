package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPMatcher calls the check API over HTTP.
type HTTPMatcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPMatcher creates a matcher for the API at baseURL.
// A nil client gets a traced client with a 10s timeout.
func NewHTTPMatcher(baseURL string, client *http.Client) *HTTPMatcher {
	if client == nil {
		client = &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &HTTPMatcher{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

type checkRequest struct {
	Nino string `json:"nino"`
}

// Match implements Matcher by POSTing to <baseURL>/check.
// 200 means matched; 422 means not matched, with retry information in the body.
func (m *HTTPMatcher) Match(ctx context.Context, sessionID, nino string) (MatchResult, error) {
	body, err := json.Marshal(checkRequest{Nino: nino})
	if err != nil {
		return MatchResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/check", bytes.NewReader(body))
	if err != nil {
		return MatchResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("session-id", sessionID)

	resp, err := m.client.Do(req)
	if err != nil {
		return MatchResult{}, fmt.Errorf("check api: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnprocessableEntity:
		var res MatchResult
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil && err != io.EOF {
			return MatchResult{}, fmt.Errorf("check api: decode response: %w", err)
		}
		if resp.StatusCode == http.StatusOK {
			res.Matched = true
		}
		return res, nil
	default:
		return MatchResult{}, fmt.Errorf("check api: unexpected status %d", resp.StatusCode)
	}
}
