// Package integration provides end-to-end tests for the war room.
//
// Tests run against a real war room HTTP server backed by a mock
// generateContent backend, both started in-process using
// net/http/httptest.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rhuss/warroom/pkg/csrf"
	"github.com/rhuss/warroom/pkg/engine"
	"github.com/rhuss/warroom/pkg/provider/gemini"
	"github.com/rhuss/warroom/pkg/provider/gemini/geminitest"
	transporthttp "github.com/rhuss/warroom/pkg/transport/http"
)

// testAPIKey passes validation and is sent to the mock as ?key=.
const testAPIKey = "AIzaIntegrationKey01"

// testEnv holds the shared servers for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds the war room server and mock backend for testing.
type TestEnvironment struct {
	Server      *httptest.Server
	MockBackend *httptest.Server
	Backend     *geminitest.Backend
	Engine      *engine.Engine
}

// TestMain starts the mock backend and war room server before running tests.
func TestMain(m *testing.M) {
	testEnv = setupTestEnvironment()
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

// setupTestEnvironment creates a mock backend and a war room server wired to it.
func setupTestEnvironment() *TestEnvironment {
	mockServer, backend := geminitest.NewServer()

	prov, err := gemini.New(gemini.Config{
		BaseURL:     mockServer.URL,
		APIVersion:  "v1",
		BackoffBase: time.Millisecond,
	})
	if err != nil {
		panic(fmt.Sprintf("creating provider: %v", err))
	}

	eng, err := engine.New(prov, engine.Config{
		DefaultModel:      geminitest.ModelOK,
		DefaultMaxRetries: 3,
	})
	if err != nil {
		panic(fmt.Sprintf("creating engine: %v", err))
	}

	nonces, err := csrf.New(csrf.Config{Secret: []byte("integration-secret"), TTL: time.Minute})
	if err != nil {
		panic(fmt.Sprintf("creating nonces: %v", err))
	}

	srv := transporthttp.NewServer(eng,
		transporthttp.WithNonces(nonces),
		transporthttp.WithFormDefaults(geminitest.ModelOK, "executive"),
	)

	return &TestEnvironment{
		Server:      httptest.NewServer(srv.Handler()),
		MockBackend: mockServer,
		Backend:     backend,
		Engine:      eng,
	}
}

// Teardown stops both servers.
func (env *TestEnvironment) Teardown() {
	if env.Server != nil {
		env.Server.Close()
	}
	if env.MockBackend != nil {
		env.MockBackend.Close()
	}
}

// BaseURL returns the war room server base URL.
func (env *TestEnvironment) BaseURL() string {
	return env.Server.URL
}

// --- HTTP helpers ---

// postJSON sends a POST request with JSON body and returns the response.
func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

// getURL sends a GET request and returns the response.
func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return string(body)
}

// decodeJSON reads the response body and decodes it into the target.
func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
}

// consultRequest builds a JSON API body for the given model and prompt.
// Prompts should be unique per test so the mock's attempt counters do
// not interfere.
func consultRequest(model, prompt string) map[string]any {
	return map[string]any{
		"api_key": testAPIKey,
		"prompt":  prompt,
		"model":   model,
	}
}
