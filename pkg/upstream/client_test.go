package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// recordingSleeper records requested delays without sleeping.
type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestClient(s *recordingSleeper) *Client {
	return NewClient(Options{BackoffBase: 500 * time.Millisecond, Sleeper: s.Sleep})
}

// sequenceServer answers each request with the next status/body pair and
// repeats the last one once the sequence is used up.
func sequenceServer(t *testing.T, statuses []int, bodies []string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := int(atomic.AddInt32(&calls, 1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statuses[i])
		io.WriteString(w, bodies[i])
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestPostSuccessFirstAttempt(t *testing.T) {
	srv, calls := sequenceServer(t, []int{200}, []string{`{"candidates":[]}`})
	s := &recordingSleeper{}

	doc, err := newTestClient(s).Post(context.Background(), srv.URL, nil, map[string]string{"a": "b"}, time.Second, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Get("candidates").IsArray() {
		t.Errorf("expected candidates array, got %s", doc.Raw())
	}
	if *calls != 1 {
		t.Errorf("expected 1 call, got %d", *calls)
	}
	if len(s.delays) != 0 {
		t.Errorf("expected no sleeps, got %v", s.delays)
	}
}

func TestPostRetriesRetryableStatuses(t *testing.T) {
	srv, calls := sequenceServer(t,
		[]int{429, 503, 200},
		[]string{`{}`, `{}`, `{"ok":true}`},
	)
	s := &recordingSleeper{}

	doc, err := newTestClient(s).Post(context.Background(), srv.URL, nil, nil, time.Second, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Get("ok").Bool() {
		t.Errorf("unexpected document %s", doc.Raw())
	}
	if *calls != 3 {
		t.Errorf("expected 3 calls, got %d", *calls)
	}
	want := []time.Duration{500 * time.Millisecond, time.Second}
	if len(s.delays) != len(want) {
		t.Fatalf("expected delays %v, got %v", want, s.delays)
	}
	for i := range want {
		if s.delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, s.delays[i], want[i])
		}
	}
}

func TestPostExhaustsRetries(t *testing.T) {
	srv, calls := sequenceServer(t, []int{500}, []string{`{"error":{"message":"backend down"}}`})
	s := &recordingSleeper{}

	_, err := newTestClient(s).Post(context.Background(), srv.URL, nil, nil, time.Second, 3)
	if err == nil {
		t.Fatal("expected error")
	}
	if *calls != 3 {
		t.Errorf("expected 3 calls, got %d", *calls)
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *ExhaustedError, got %T", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", exhausted.Attempts)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected error to unwrap to *StatusError, got %v", err)
	}
	if statusErr.StatusCode != 500 || statusErr.Message != "backend down" {
		t.Errorf("unexpected status error %+v", statusErr)
	}

	// No sleep after the final attempt.
	want := []time.Duration{500 * time.Millisecond, time.Second}
	if len(s.delays) != len(want) {
		t.Fatalf("expected delays %v, got %v", want, s.delays)
	}
}

func TestPostTerminalStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"bad request", 400},
		{"unauthorized", 401},
		{"forbidden", 403},
		{"not found", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := sequenceServer(t, []int{tt.status}, []string{`{"error":{"message":"nope"}}`})
			s := &recordingSleeper{}

			_, err := newTestClient(s).Post(context.Background(), srv.URL, nil, nil, time.Second, 5)

			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected *StatusError, got %T (%v)", err, err)
			}
			var exhausted *ExhaustedError
			if errors.As(err, &exhausted) {
				t.Error("terminal status must not be reported as exhaustion")
			}
			if statusErr.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, statusErr.StatusCode)
			}
			if *calls != 1 {
				t.Errorf("expected 1 call, got %d", *calls)
			}
			if len(s.delays) != 0 {
				t.Errorf("expected no sleeps, got %v", s.delays)
			}
		})
	}
}

func TestPostRetriesInvalidJSON(t *testing.T) {
	srv, calls := sequenceServer(t,
		[]int{200, 200},
		[]string{`<html>gateway</html>`, `{"ok":true}`},
	)
	s := &recordingSleeper{}

	doc, err := newTestClient(s).Post(context.Background(), srv.URL, nil, nil, time.Second, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *calls != 2 {
		t.Errorf("expected 2 calls, got %d", *calls)
	}
	if !doc.Get("ok").Bool() {
		t.Errorf("unexpected document %s", doc.Raw())
	}
}

func TestPostTransportErrorExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	s := &recordingSleeper{}
	_, err := newTestClient(s).Post(context.Background(), url, nil, nil, time.Second, 2)

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected error to unwrap to *TransportError, got %T (%v)", err, err)
	}
	if len(s.delays) != 1 {
		t.Errorf("expected 1 sleep, got %v", s.delays)
	}
}

func TestPostPerAttemptTimeout(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	s := &recordingSleeper{}
	doc, err := newTestClient(s).Post(context.Background(), srv.URL, nil, nil, 50*time.Millisecond, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Get("ok").Bool() {
		t.Errorf("unexpected document %s", doc.Raw())
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestPostZeroRetriesMakesOneAttempt(t *testing.T) {
	srv, calls := sequenceServer(t, []int{503}, []string{`{}`})
	s := &recordingSleeper{}

	_, err := newTestClient(s).Post(context.Background(), srv.URL, nil, nil, time.Second, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if *calls != 1 {
		t.Errorf("expected 1 call, got %d", *calls)
	}
}

func TestPostSendsHeadersAndBody(t *testing.T) {
	var gotAuth, gotType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer ya29.token")

	_, err := NewClient(Options{}).Post(context.Background(), srv.URL, headers,
		map[string]any{"contents": []any{}}, time.Second, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer ya29.token" {
		t.Errorf("expected Authorization header, got %q", gotAuth)
	}
	if gotType != "application/json" {
		t.Errorf("expected JSON content type, got %q", gotType)
	}
	if _, ok := gotBody["contents"]; !ok {
		t.Errorf("expected contents in body, got %v", gotBody)
	}
}

func TestPostContextCanceledDuringBackoff(t *testing.T) {
	srv, calls := sequenceServer(t, []int{503}, []string{`{}`})

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(Options{Sleeper: func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}})

	_, err := c.Post(ctx, srv.URL, nil, nil, time.Second, 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if *calls != 1 {
		t.Errorf("expected 1 call, got %d", *calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", &TransportError{Err: io.ErrUnexpectedEOF}, true},
		{"429", &StatusError{StatusCode: 429}, true},
		{"500", &StatusError{StatusCode: 500}, true},
		{"599", &StatusError{StatusCode: 599}, true},
		{"400", &StatusError{StatusCode: 400}, false},
		{"404", &StatusError{StatusCode: 404}, false},
		{"exhausted", &ExhaustedError{Attempts: 3, Last: &StatusError{StatusCode: 500}}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoff(t *testing.T) {
	base := 500 * time.Millisecond
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := Backoff(base, i+1); got != w {
			t.Errorf("Backoff(%v, %d) = %v, want %v", base, i+1, got, w)
		}
	}
}

func TestSleepContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStatusErrorMessageFallback(t *testing.T) {
	err := newStatusError(502, []byte("<html>bad gateway</html>"))
	if err.Message != "Bad Gateway" {
		t.Errorf("expected status text fallback, got %q", err.Message)
	}
}
