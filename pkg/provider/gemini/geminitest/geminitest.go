// Package geminitest provides a deterministic generateContent backend for
// tests and local development. The model name in the request path selects
// the scenario, so one server can exercise every extraction and retry
// path.
package geminitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// Scenario model names.
const (
	ModelOK         = "mock-ok"
	ModelFenced     = "mock-fenced"
	ModelCommentary = "mock-commentary"
	ModelNested     = "mock-nested"
	ModelGarbage    = "mock-garbage"
	ModelFlaky      = "mock-flaky"
	ModelDown       = "mock-down"
	ModelDenied     = "mock-denied"
)

// Conversation is the board reply returned by the successful scenarios.
const Conversation = `[{"agent":"Daraima","emoji":"👑","message":"Bold. Justice?"},` +
	`{"agent":"Justice","emoji":"⚖️","message":"Margins are thin."},` +
	`{"agent":"Moses","emoji":"💻","message":"Buildable in a quarter."}]`

// Backend is a mock generateContent API. The zero value is not usable;
// create one with New.
type Backend struct {
	mux *http.ServeMux

	mu       sync.Mutex
	attempts map[string]int
	requests []Request
}

// Request is what the backend recorded for one call.
type Request struct {
	Model         string
	Key           string
	Authorization string
	Prompt        string
}

// New creates a Backend.
func New() *Backend {
	b := &Backend{
		mux:      http.NewServeMux(),
		attempts: make(map[string]int),
	}
	b.mux.HandleFunc("POST /{version}/models/{call}", b.handleGenerate)
	b.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	return b
}

// NewServer starts a Backend on an httptest server.
func NewServer() (*httptest.Server, *Backend) {
	b := New()
	return httptest.NewServer(b), b
}

// ServeHTTP implements http.Handler.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

// Requests returns a copy of every recorded request.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Attempts returns how many calls were made for model whose prompt text
// ends with pitch. The provider prepends a persona preamble, so callers
// match on the pitch they sent.
func (b *Backend) Attempts(model, pitch string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if r.Model == model && strings.HasSuffix(r.Prompt, pitch) {
			n++
		}
	}
	return n
}

func (b *Backend) handleGenerate(w http.ResponseWriter, r *http.Request) {
	model, ok := strings.CutSuffix(r.PathValue("call"), ":generateContent")
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown method")
		return
	}

	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid JSON payload")
		return
	}
	prompt := gjson.GetBytes(body, "contents.0.parts.0.text").String()

	rec := Request{
		Model:         model,
		Key:           r.URL.Query().Get("key"),
		Authorization: r.Header.Get("Authorization"),
		Prompt:        prompt,
	}
	b.mu.Lock()
	b.requests = append(b.requests, rec)
	b.attempts[model+"\x00"+prompt]++
	attempt := b.attempts[model+"\x00"+prompt]
	b.mu.Unlock()

	if rec.Key == "" && rec.Authorization == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "API key or bearer token required")
		return
	}

	switch model {
	case ModelFenced:
		writeText(w, "```json\n"+Conversation+"\n```")
	case ModelCommentary:
		writeText(w, "Here is the board discussion you asked for:\n"+Conversation+"\nLet me know if you need more.")
	case ModelNested:
		writeJSON(w, http.StatusOK, map[string]any{
			"result": map[string]any{"output": []any{map[string]any{"value": Conversation}}},
		})
	case ModelGarbage:
		writeText(w, "I am sorry, I cannot produce a board meeting today.")
	case ModelFlaky:
		if attempt == 1 {
			writeError(w, http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "quota exceeded, retry later")
			return
		}
		writeText(w, Conversation)
	case ModelDown:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "backend unavailable")
	case ModelDenied:
		writeError(w, http.StatusForbidden, "PERMISSION_DENIED", "API key not valid")
	default:
		writeText(w, Conversation)
	}
}

func writeText(w http.ResponseWriter, text string) {
	writeJSON(w, http.StatusOK, map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": text}},
			},
			"finishReason": "STOP",
		}},
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"status":  code,
			"message": fmt.Sprintf("%s (mock)", message),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
