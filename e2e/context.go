package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"metasignet/internal/platform/health"
	"metasignet/internal/token"
	httptransport "metasignet/internal/transport/http"
	"metasignet/internal/verification/handler"
	"metasignet/internal/verification/service"
	"metasignet/internal/verification/store"
	"metasignet/pkg/domain"
)

const testSigningKey = "e2e-signing-key-0123456789abcdef"

// TestContext holds one scenario's server, tokens, and last response.
type TestContext struct {
	server           *httptest.Server
	httpClient       *http.Client
	tokens           map[string]string
	logger           *slog.Logger
	tokenService     *token.Service
	LastResponse     *http.Response
	LastResponseBody []byte
	lastFingerprint  string
}

// NewTestContext starts a fresh in-process server with a memory store so
// scenarios stay independent of each other and of any external deployment.
func NewTestContext() (*TestContext, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokenService, err := token.NewService(testSigningKey, time.Hour)
	if err != nil {
		return nil, err
	}

	ledger := service.NewService(store.NewMemoryStore(), service.WithLogger(logger))
	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:         logger,
		Verification:   handler.New(ledger, nil, logger),
		Health:         health.New("e2e"),
		TokenValidator: tokenService,
		RequestMetrics: nil,
	})

	server := httptest.NewServer(router)
	return &TestContext{
		server:       server,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		tokens:       make(map[string]string),
		logger:       logger,
		tokenService: tokenService,
	}, nil
}

// Close shuts the scenario's server down.
func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
	}
}

// IssueToken creates a bearer token for the named actor.
func (tc *TestContext) IssueToken(actor string) error {
	signed, err := tc.tokenService.Issue(context.Background(), domain.ActorID(actor), actor)
	if err != nil {
		return fmt.Errorf("failed to issue token for %s: %w", actor, err)
	}
	tc.tokens[actor] = signed
	return nil
}

// POST makes a POST request, authenticated as actor when actor is non-empty.
func (tc *TestContext) POST(actor, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, tc.server.URL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		tok, ok := tc.tokens[actor]
		if !ok {
			return fmt.Errorf("no token issued for %s", actor)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return tc.do(req)
}

// GET makes a GET request, authenticated as actor when actor is non-empty.
func (tc *TestContext) GET(actor, path string) error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, tc.server.URL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if actor != "" {
		tok, ok := tc.tokens[actor]
		if !ok {
			return fmt.Errorf("no token issued for %s", actor)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// ResponseField returns a dotted-path field from the last JSON response,
// rendered as a string for comparison in assertions.
func (tc *TestContext) ResponseField(path string) (string, error) {
	var body map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &body); err != nil {
		return "", fmt.Errorf("last response is not JSON: %w", err)
	}

	var current any = body
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return "", fmt.Errorf("field %q not found in response", path)
		}
		current, ok = m[part]
		if !ok {
			return "", fmt.Errorf("field %q not found in response", path)
		}
	}

	switch v := current.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		rendered, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(rendered), nil
	}
}
