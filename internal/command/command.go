// Package command interprets structured actions embedded in model replies.
//
// A reply carrying an "action" JSON object either marks attendance (by explicit
// ids or by a name/id pattern) or asks for a read-only analysis of the class.
// Anything that cannot be parsed is passed through as plain text.
package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Marker is the substring that flags a reply as carrying a command.
const Marker = `"action":`

// Actions.
const (
	ActionUpdateAttendance = "update_attendance"
	ActionAnalyzeData      = "analyze_data"
)

// Pattern fields and match kinds.
const (
	FieldName = "name"
	FieldID   = "id"

	MatchStartsWith = "startswith"
	MatchEndsWith   = "endswith"
	MatchContains   = "contains"
)

// Filter metrics.
const (
	FilterAttendance = "attendance"
	FilterMarks      = "marks"
)

// Command is the decoded action object.
type Command struct {
	Action string `json:"action"`

	// update_attendance
	IDs     *Tokens  `json:"ids,omitempty"`
	Pattern *Pattern `json:"pattern,omitempty"`
	Status  string   `json:"status,omitempty"`
	Date    string   `json:"date,omitempty"`

	// analyze_data
	SearchName string          `json:"search_name,omitempty"`
	FilterType string          `json:"filter_type,omitempty"`
	Operator   string          `json:"operator,omitempty"`
	Value      json.RawMessage `json:"value,omitempty"`
}

// Pattern selects roster entries by a lower-cased field comparison.
type Pattern struct {
	Field string `json:"field"`
	Type  string `json:"type"`
	Value Token  `json:"value"`
}

// Token is a string that also accepts a bare JSON number (101 or "101").
type Token string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Token) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Token(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("token must be a string or number: %w", err)
	}
	*t = Token(n.String())
	return nil
}

// Tokens is a list of Token. A present-but-empty list is distinct from a missing one.
type Tokens []Token

// Strings returns the tokens as plain strings.
func (ts Tokens) Strings() []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}

// Threshold returns the comparator value as a float. ok is false when the
// value is absent or not numeric, which disables the comparator.
func (c Command) Threshold() (float64, bool) {
	raw := bytes.TrimSpace(c.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var tok Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(tok)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// HasCommand reports whether text carries the command marker.
func HasCommand(text string) bool {
	return strings.Contains(text, Marker)
}

// Parse strips code fences and decodes the command object.
func Parse(text string) (Command, error) {
	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	var cmd Command
	if err := json.Unmarshal([]byte(clean), &cmd); err != nil {
		return Command{}, fmt.Errorf("parse command: %w", err)
	}
	return cmd, nil
}
