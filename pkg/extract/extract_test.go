package extract

import (
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/rhuss/warroom/pkg/api"
	"github.com/rhuss/warroom/pkg/observability"
	"github.com/rhuss/warroom/pkg/upstream"
)

func mustDoc(t *testing.T, raw string) *upstream.Document {
	t.Helper()
	doc, err := upstream.NewDocument([]byte(raw))
	if err != nil {
		t.Fatalf("invalid test document %q: %v", raw, err)
	}
	return doc
}

func TestLocateText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "expected path",
			raw:  `{"candidates":[{"content":{"parts":[{"text":"[1]"}]}}]}`,
			want: "[1]",
		},
		{
			name: "expected path empty string is used",
			raw:  `{"candidates":[{"content":{"parts":[{"text":""}]}}],"other":"x"}`,
			want: "",
		},
		{
			name: "fallback depth first",
			raw:  `{"output":{"choices":[{"text":"hello"}]}}`,
			want: "hello",
		},
		{
			name: "fallback skips empty strings",
			raw:  `{"a":"","b":["","second"]}`,
			want: "second",
		},
		{
			name: "fallback document order",
			raw:  `{"z":{"deep":"first"},"a":"second"}`,
			want: "first",
		},
		{
			name: "text path not a string",
			raw:  `{"candidates":[{"content":{"parts":[{"text":42}]}}],"note":"found"}`,
			want: "found",
		},
		{
			name: "no strings",
			raw:  `{"a":1,"b":[true,null]}`,
			want: "",
		},
		{
			name: "top-level string",
			raw:  `"bare"`,
			want: "bare",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LocateText(mustDoc(t, tt.raw)); got != tt.want {
				t.Errorf("LocateText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocateTextNil(t *testing.T) {
	if got := LocateText(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestRecover(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantOK    bool
		wantStage string
		wantValue string
	}{
		{
			name:      "fenced json",
			text:      "```json\n[{\"agent\":\"A\",\"emoji\":\"x\",\"message\":\"hi\"}]\n```",
			wantOK:    true,
			wantStage: StageFenced,
			wantValue: `[{"agent":"A","emoji":"x","message":"hi"}]`,
		},
		{
			name:      "fenced without tag",
			text:      "```\n[1,2]\n```",
			wantOK:    true,
			wantStage: StageFenced,
			wantValue: `[1,2]`,
		},
		{
			name:      "fenced uppercase tag",
			text:      "```JSON\n[1]\n```",
			wantOK:    true,
			wantStage: StageFenced,
			wantValue: `[1]`,
		},
		{
			name:      "leading commentary",
			text:      "Sure, here you go:\n[{\"agent\":\"B\",\"emoji\":\"y\",\"message\":\"ok\"}]\nHope it helps.",
			wantOK:    true,
			wantStage: StageSlice,
			wantValue: `[{"agent":"B","emoji":"y","message":"ok"}]`,
		},
		{
			name:      "inline fence marker",
			text:      "Result: ```json [3] ``` done",
			wantOK:    true,
			wantStage: StageSlice,
			wantValue: `[3]`,
		},
		{
			name:      "plain array",
			text:      `  [ ]  `,
			wantOK:    true,
			wantStage: StageSlice,
			wantValue: `[ ]`,
		},
		{
			name:   "not json",
			text:   "not json at all",
			wantOK: false,
		},
		{
			name:   "object not array",
			text:   `{"agent":"A"}`,
			wantOK: false,
		},
		{
			name:   "broken array",
			text:   `[{"agent":"A",]`,
			wantOK: false,
		},
		{
			name:   "brackets reversed",
			text:   `] nothing [`,
			wantOK: false,
		},
		{
			name:   "empty",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recover(tt.text)
			if got.OK != tt.wantOK {
				t.Fatalf("OK = %v, want %v (attempts %v)", got.OK, tt.wantOK, got.Attempts)
			}
			if !tt.wantOK {
				if got.Stage != StageFailed {
					t.Errorf("Stage = %q, want %q", got.Stage, StageFailed)
				}
				if len(got.Attempts) != 2 {
					t.Errorf("expected 2 attempt diagnostics, got %v", got.Attempts)
				}
				return
			}
			if got.Stage != tt.wantStage {
				t.Errorf("Stage = %q, want %q", got.Stage, tt.wantStage)
			}
			if string(got.Value) != tt.wantValue {
				t.Errorf("Value = %s, want %s", got.Value, tt.wantValue)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		want       string
		wantFenced bool
	}{
		{"fenced", "```json\n[1]\n```", "[1]", true},
		{"jsonl tag kept", "```jsonl\n[1]\n```", "jsonl\n[1]", true},
		{"unfenced markers", "a ```json b ``` c", "a  b  c", false},
		{"lone fence", "```", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fenced := Clean(tt.in)
			if got != tt.want {
				t.Errorf("Clean() = %q, want %q", got, tt.want)
			}
			if fenced != tt.wantFenced {
				t.Errorf("fenced = %v, want %v", fenced, tt.wantFenced)
			}
		})
	}
}

func TestDecodeTurns(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []api.SpeakerTurn
		wantErr bool
	}{
		{
			name: "valid",
			raw:  `[{"agent":" Daraima ","emoji":"💼","message":"Numbers first."},{"agent":"Moses","message":"Ship it."}]`,
			want: []api.SpeakerTurn{
				{Agent: "Daraima", Emoji: "💼", Message: "Numbers first."},
				{Agent: "Moses", Message: "Ship it."},
			},
		},
		{name: "null emoji", raw: `[{"agent":"A","emoji":null,"message":"m"}]`, want: []api.SpeakerTurn{{Agent: "A", Message: "m"}}},
		{name: "empty array", raw: `[]`, wantErr: true},
		{name: "element not object", raw: `["hi"]`, wantErr: true},
		{name: "missing agent", raw: `[{"message":"m"}]`, wantErr: true},
		{name: "empty message", raw: `[{"agent":"A","message":"  "}]`, wantErr: true},
		{name: "agent not string", raw: `[{"agent":1,"message":"m"}]`, wantErr: true},
		{name: "emoji not string", raw: `[{"agent":"A","emoji":{},"message":"m"}]`, wantErr: true},
		{name: "not an array", raw: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTurns([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeTurns() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTurnsRoundTrip(t *testing.T) {
	doc := mustDoc(t, `{"candidates":[{"content":{"parts":[{"text":"`+
		"```json\\n[{\\\"agent\\\":\\\"A\\\",\\\"emoji\\\":\\\"x\\\",\\\"message\\\":\\\"hi\\\"}]\\n```"+
		`"}]}}]}`)

	got := Turns(doc)
	want := []api.SpeakerTurn{{Agent: "A", Emoji: "x", Message: "hi"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Turns() = %+v, want %+v", got, want)
	}
}

func TestTurnsSentinel(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unparsable text", `{"candidates":[{"content":{"parts":[{"text":"not json at all"}]}}]}`},
		{"no strings", `{"candidates":[]}`},
		{"invalid elements", `{"candidates":[{"content":{"parts":[{"text":"[1,2,3]"}]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Turns(mustDoc(t, tt.raw))
			if len(got) != 1 {
				t.Fatalf("expected exactly one turn, got %+v", got)
			}
			if got[0].Agent != api.SentinelAgent || got[0].Emoji != api.SentinelEmoji {
				t.Errorf("expected sentinel turn, got %+v", got[0])
			}
			if got[0].Message == "" {
				t.Error("expected non-empty diagnostic")
			}
			if !api.IsSentinel(got) {
				t.Error("IsSentinel() = false")
			}
		})
	}
}

func TestTurnsIdempotent(t *testing.T) {
	inputs := []string{
		"```json\n[{\"agent\":\"A\",\"emoji\":\"x\",\"message\":\"hi\"}]\n```",
		"Here:\n[{\"agent\":\"B\",\"message\":\"yo\"}]",
		"garbage ] [",
	}
	for _, in := range inputs {
		first := TurnsFromText(in)
		second := TurnsFromText(in)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("TurnsFromText(%q) not idempotent: %+v vs %+v", in, first, second)
		}
	}
}

func TestTurnsCountsExtraction(t *testing.T) {
	before := counter(t, StageFailed)
	TurnsFromText("nothing here")
	if after := counter(t, StageFailed); after-before != 1 {
		t.Errorf("expected failed counter delta 1, got %f", after-before)
	}

	before = counter(t, StageSlice)
	TurnsFromText(`ok [{"agent":"A","message":"m"}]`)
	if after := counter(t, StageSlice); after-before != 1 {
		t.Errorf("expected slice counter delta 1, got %f", after-before)
	}
}

func counter(t *testing.T, stage string) float64 {
	t.Helper()
	m := &dto.Metric{}
	c, err := observability.ExtractionTotal.GetMetricWithLabelValues(stage)
	if err != nil {
		t.Fatalf("getting counter: %v", err)
	}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing counter: %v", err)
	}
	return m.GetCounter().GetValue()
}
