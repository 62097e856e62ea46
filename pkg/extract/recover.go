package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Stage names the cleanup stage that produced a result.
const (
	StageFenced  = "fenced"
	StageSlice   = "slice"
	StageWhole   = "whole"
	StageFailed  = "failed"
	StageInvalid = "invalid"
)

const fence = "```"

// Result is the outcome of Recover.
type Result struct {
	// OK is true when Value holds a JSON array.
	OK bool

	// Value is the recovered JSON array.
	Value []byte

	// Stage is StageFenced when the text was fence-wrapped and a parse
	// then succeeded, StageSlice or StageWhole for unfenced successes,
	// and StageFailed otherwise.
	Stage string

	// Reason summarises why recovery failed.
	Reason string

	// Attempts holds one diagnostic per failed parse attempt.
	Attempts []string
}

// Recover extracts a JSON array from free-form model output.
//
// Stages, in order:
//  1. if the trimmed text starts and ends with a fence, split on the fence,
//     drop a leading "json" language tag from each segment, and join the
//     remaining non-empty segments;
//  2. strip any leftover "```json" and "```" markers;
//  3. parse the slice from the first '[' to the last ']';
//  4. parse the whole cleaned text.
func Recover(text string) Result {
	cleaned, fenced := Clean(text)

	var attempts []string
	success := func(stage string, value []byte) Result {
		if fenced {
			stage = StageFenced
		}
		return Result{OK: true, Value: value, Stage: stage, Attempts: attempts}
	}

	first := strings.Index(cleaned, "[")
	last := strings.LastIndex(cleaned, "]")
	if first < 0 || last < first {
		attempts = append(attempts, "slice: no bracketed span")
	} else {
		candidate := []byte(cleaned[first : last+1])
		err := parseArray(candidate)
		if err == nil {
			return success(StageSlice, candidate)
		}
		attempts = append(attempts, "slice: "+err.Error())
	}

	whole := []byte(cleaned)
	err := parseArray(whole)
	if err == nil {
		return success(StageWhole, whole)
	}
	attempts = append(attempts, "whole: "+err.Error())

	return Result{
		Stage:    StageFailed,
		Reason:   "no JSON array could be recovered",
		Attempts: attempts,
	}
}

// Clean applies the fence and marker cleanup stages and reports whether
// the text was fence-wrapped.
func Clean(text string) (string, bool) {
	t := strings.TrimSpace(text)
	fenced := false

	if len(t) >= 2*len(fence) && strings.HasPrefix(t, fence) && strings.HasSuffix(t, fence) {
		fenced = true
		var b strings.Builder
		for _, seg := range strings.Split(t, fence) {
			seg = dropLanguageTag(seg)
			if strings.TrimSpace(seg) == "" {
				continue
			}
			b.WriteString(seg)
		}
		t = strings.TrimSpace(b.String())
	}

	t = strings.ReplaceAll(t, fence+"json", "")
	t = strings.ReplaceAll(t, fence, "")
	return strings.TrimSpace(t), fenced
}

// dropLanguageTag removes a leading "json" tag (any case) from a fence
// segment. The tag must stand alone, so "jsonl" or "json5" are kept.
func dropLanguageTag(seg string) string {
	trimmed := strings.TrimLeft(seg, " \t")
	if len(trimmed) < 4 || !strings.EqualFold(trimmed[:4], "json") {
		return seg
	}
	rest := trimmed[4:]
	if rest != "" && !strings.ContainsAny(rest[:1], " \t\r\n") {
		return seg
	}
	return rest
}

func parseArray(b []byte) error {
	if len(bytes.TrimSpace(b)) == 0 {
		return fmt.Errorf("empty input")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(b, &elems); err != nil {
		return err
	}
	return nil
}
