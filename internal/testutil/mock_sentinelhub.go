// Package testutil provides a mock Sentinel Hub server for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"sentinelfetch/pkg/sentinelhub"
)

const (
	// TokenPath and ProcessPath mirror the real service layout
	TokenPath   = "/oauth/token"
	ProcessPath = "/api/v1/process"

	// DefaultAccessToken is issued by the mock unless overridden
	DefaultAccessToken = "mock-access-token"
)

// PNGBytes is the payload the mock returns for successful process requests
var PNGBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRmock")

// MockSentinelHub is a configurable Sentinel Hub server for testing
type MockSentinelHub struct {
	server *httptest.Server
	mu     sync.Mutex

	clientID     string
	clientSecret string
	accessToken  string
	tokenStatus  int

	statuses map[string]int

	// Tracking
	TokenCount   int
	ProcessCount int
	Requests     []sentinelhub.ProcessRequest
}

// NewMockSentinelHub starts a server that accepts clientID/clientSecret
func NewMockSentinelHub(clientID, clientSecret string) *MockSentinelHub {
	m := &MockSentinelHub{
		clientID:     clientID,
		clientSecret: clientSecret,
		accessToken:  DefaultAccessToken,
		statuses:     make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(TokenPath, m.handleToken)
	mux.HandleFunc(ProcessPath, m.handleProcess)
	m.server = httptest.NewServer(mux)

	return m
}

// URL returns the server base URL
func (m *MockSentinelHub) URL() string {
	return m.server.URL
}

// TokenURL returns the token endpoint URL
func (m *MockSentinelHub) TokenURL() string {
	return m.server.URL + TokenPath
}

// ProcessURL returns the process endpoint URL
func (m *MockSentinelHub) ProcessURL() string {
	return m.server.URL + ProcessPath
}

// Client returns an HTTP client for the server
func (m *MockSentinelHub) Client() *http.Client {
	return m.server.Client()
}

// Close shuts down the server
func (m *MockSentinelHub) Close() {
	m.server.Close()
}

// SetTokenStatus forces the token endpoint to answer with status
func (m *MockSentinelHub) SetTokenStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenStatus = status
}

// SetStatusFor makes process requests centered on (lat, lon) answer with status
func (m *MockSentinelHub) SetStatusFor(lat, lon float64, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[coordKey(lat, lon)] = status
}

// Counts returns token and process request counts
func (m *MockSentinelHub) Counts() (token, process int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TokenCount, m.ProcessCount
}

// ProcessRequests returns a copy of the decoded process request bodies
func (m *MockSentinelHub) ProcessRequests() []sentinelhub.ProcessRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentinelhub.ProcessRequest, len(m.Requests))
	copy(out, m.Requests)
	return out
}

func (m *MockSentinelHub) handleToken(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.TokenCount++
	forced := m.tokenStatus
	m.mu.Unlock()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if forced != 0 {
		writeJSON(w, forced, map[string]string{"error": "forced", "error_description": http.StatusText(forced)})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if r.PostForm.Get("grant_type") != "client_credentials" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}
	if r.PostForm.Get("client_id") != m.clientID || r.PostForm.Get("client_secret") != m.clientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": m.accessToken,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (m *MockSentinelHub) handleProcess(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.ProcessCount++
	m.mu.Unlock()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+m.accessToken {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error": map[string]interface{}{"status": 401, "reason": "Unauthorized"},
		})
		return
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		return
	}

	var req sentinelhub.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	bbox := req.Input.Bounds.BBox
	lon := (bbox[0] + bbox[2]) / 2
	lat := (bbox[1] + bbox[3]) / 2

	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	status, ok := m.statuses[coordKey(lat, lon)]
	m.mu.Unlock()

	if ok && status != http.StatusOK {
		writeJSON(w, status, map[string]interface{}{
			"error": map[string]interface{}{"status": status, "reason": http.StatusText(status)},
		})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(PNGBytes)
}

func coordKey(lat, lon float64) string {
	round := func(v float64) float64 {
		r := math.Round(v*1e6) / 1e6
		if r == 0 {
			return 0 // drop negative zero
		}
		return r
	}
	return fmt.Sprintf("%.6f,%.6f", round(lat), round(lon))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
