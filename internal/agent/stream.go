package agent

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMissingResult indicates the event stream ended without a final
// result record. The caller cannot trust any partial state in that case.
var ErrMissingResult = errors.New("agent stream ended without a result record")

// streamEvent is one line of the agent's JSON event stream.
// Only the fields the orchestration core consumes are modeled; display
// events (assistant text, tool use) pass through untouched.
type streamEvent struct {
	Type      string       `json:"type"`
	Subtype   string       `json:"subtype,omitempty"`
	IsError   bool         `json:"is_error,omitempty"`
	NumTurns  int          `json:"num_turns,omitempty"`
	Result    string       `json:"result,omitempty"`
	TotalCost float64      `json:"total_cost_usd,omitempty"`
	Usage     *streamUsage `json:"usage,omitempty"`
}

// streamUsage mirrors the agent's usage record field names.
type streamUsage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_input_tokens"`
	CacheReadTokens     int `json:"cache_read_input_tokens"`
}

// ParseStream reads line-delimited JSON events and returns the final
// result record. Lines that are not valid JSON are skipped (the agent
// may interleave plain output); a stream with no result record is a
// parse error, never a silently-defaulted success.
func ParseStream(r io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(r)
	// Large tool-result lines exceed the default token size
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	var final *streamEvent
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if event.Type == "result" {
			ev := event
			final = &ev
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading agent stream: %w", err)
	}

	if final == nil {
		return nil, ErrMissingResult
	}
	if final.Usage == nil {
		return nil, fmt.Errorf("result record missing usage: subtype=%q", final.Subtype)
	}

	return &Result{
		Success: !final.IsError,
		Output:  final.Result,
		Turns:   final.NumTurns,
		Usage: TokenUsage{
			Input:         final.Usage.InputTokens,
			Output:        final.Usage.OutputTokens,
			CacheCreation: final.Usage.CacheCreationTokens,
			CacheRead:     final.Usage.CacheReadTokens,
		},
		CostUSD: final.TotalCost,
	}, nil
}
