package engine

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rhuss/warroom/pkg/api"
	"github.com/rhuss/warroom/pkg/upstream"
)

// mockProvider implements provider.Provider for testing.
type mockProvider struct {
	body    string
	err     error
	lastReq api.ConsultRequest
	calls   int
}

func (m *mockProvider) Name() string { return "mock" }
func (m *mockProvider) GenerateContent(_ context.Context, req api.ConsultRequest) (*upstream.Document, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return upstream.NewDocument([]byte(m.body))
}
func (m *mockProvider) Close() error { return nil }

func validRequest() api.ConsultRequest {
	return api.ConsultRequest{APIKey: "AIzaSyExampleKey123", Prompt: "A marketplace for idle GPUs"}
}

func newTestEngine(t *testing.T, mp *mockProvider, cfg Config) *Engine {
	t.Helper()
	e, err := New(mp, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewRequiresProvider(t *testing.T) {
	if _, err := New(nil, Config{}); err == nil {
		t.Error("expected error for nil provider")
	}
}

func TestNewRejectsUnknownPersona(t *testing.T) {
	if _, err := New(&mockProvider{}, Config{DefaultPersona: "pirates"}); err == nil {
		t.Error("expected error for unknown default persona")
	}
}

func TestConsultSuccess(t *testing.T) {
	mp := &mockProvider{body: `{"candidates":[{"content":{"parts":[{"text":"` +
		`[{\"agent\":\"Daraima\",\"emoji\":\"👑\",\"message\":\"Pitch it.\"},` +
		`{\"agent\":\"Justice\",\"emoji\":\"⚖️\",\"message\":\"What is the CAC?\"}]` +
		`"}]}}]}`}
	e := newTestEngine(t, mp, Config{})

	got := e.Consult(context.Background(), validRequest())
	want := []api.SpeakerTurn{
		{Agent: "Daraima", Emoji: "👑", Message: "Pitch it."},
		{Agent: "Justice", Emoji: "⚖️", Message: "What is the CAC?"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Consult() = %+v, want %+v", got, want)
	}
}

func TestConsultAppliesDefaults(t *testing.T) {
	mp := &mockProvider{body: `{}`}
	e := newTestEngine(t, mp, Config{
		DefaultModel:          "gemini-1.5-pro",
		DefaultPersona:        "humanized",
		DefaultMaxRetries:     5,
		DefaultTimeoutSeconds: 30,
	})

	e.Consult(context.Background(), validRequest())

	if mp.lastReq.Model != "gemini-1.5-pro" {
		t.Errorf("expected configured model, got %q", mp.lastReq.Model)
	}
	if mp.lastReq.Persona != "humanized" {
		t.Errorf("expected configured persona, got %q", mp.lastReq.Persona)
	}
	if mp.lastReq.MaxRetries != 5 || mp.lastReq.TimeoutSeconds != 30 {
		t.Errorf("expected configured budgets, got %d/%d", mp.lastReq.MaxRetries, mp.lastReq.TimeoutSeconds)
	}
}

func TestConsultAPIDefaults(t *testing.T) {
	mp := &mockProvider{body: `{}`}
	e := newTestEngine(t, mp, Config{})

	e.Consult(context.Background(), validRequest())

	if mp.lastReq.Model != api.DefaultModel {
		t.Errorf("expected %q, got %q", api.DefaultModel, mp.lastReq.Model)
	}
	if mp.lastReq.MaxRetries != api.DefaultMaxRetries || mp.lastReq.TimeoutSeconds != api.DefaultTimeoutSeconds {
		t.Errorf("unexpected budgets %d/%d", mp.lastReq.MaxRetries, mp.lastReq.TimeoutSeconds)
	}
}

func TestConsultUpstreamFailure(t *testing.T) {
	mp := &mockProvider{err: &upstream.ExhaustedError{Attempts: 3, Last: &upstream.StatusError{StatusCode: 503}}}
	e := newTestEngine(t, mp, Config{})

	got := e.Consult(context.Background(), validRequest())
	if !reflect.DeepEqual(got, api.SentinelTurn(api.RequestFailedMessage)) {
		t.Errorf("expected request failed sentinel, got %+v", got)
	}
}

func TestConsultUnparsableOutput(t *testing.T) {
	mp := &mockProvider{body: `{"candidates":[{"content":{"parts":[{"text":"I cannot do that."}]}}]}`}
	e := newTestEngine(t, mp, Config{})

	got := e.Consult(context.Background(), validRequest())
	if !reflect.DeepEqual(got, api.SentinelTurn(api.UnparsableOutputMessage)) {
		t.Errorf("expected unparsable sentinel, got %+v", got)
	}
}

func TestConsultInvalidRequest(t *testing.T) {
	tests := []struct {
		name  string
		req   api.ConsultRequest
		param string
	}{
		{"short key", api.ConsultRequest{APIKey: "short", Prompt: "x"}, "api_key"},
		{"empty prompt", api.ConsultRequest{APIKey: "AIzaSyExampleKey123", Prompt: "  "}, "prompt"},
		{"retries", api.ConsultRequest{APIKey: "AIzaSyExampleKey123", Prompt: "x", MaxRetries: 9}, "max_retries"},
		{"persona", api.ConsultRequest{APIKey: "AIzaSyExampleKey123", Prompt: "x", Persona: "pirates"}, "persona"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mp := &mockProvider{err: errors.New("must not be called")}
			e := newTestEngine(t, mp, Config{})

			apiErr := e.Validate(tt.req)
			if apiErr == nil || apiErr.Param != tt.param {
				t.Fatalf("Validate() = %v, want param %q", apiErr, tt.param)
			}

			got := e.Consult(context.Background(), tt.req)
			if !api.IsSentinel(got) || !strings.HasPrefix(got[0].Message, "Validation error: ") {
				t.Errorf("expected validation sentinel, got %+v", got)
			}
			if mp.calls != 0 {
				t.Errorf("provider called %d times for invalid request", mp.calls)
			}
		})
	}
}

func TestConsultDoesNotMutateRequest(t *testing.T) {
	mp := &mockProvider{body: `{}`}
	e := newTestEngine(t, mp, Config{DefaultModel: "m"})

	req := validRequest()
	before := req
	e.Consult(context.Background(), req)
	if req != before {
		t.Errorf("request mutated: %+v", req)
	}
}
