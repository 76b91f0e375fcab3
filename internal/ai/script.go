package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Field names of the structured script completion.
const (
	ScriptField      = "script"
	VideoPromptField = "videoPrompt"
)

var ErrMalformedScript = errors.New("malformed script response")

// Script is the two-party narration plus the directive handed to the video
// backend.
type Script struct {
	Script      string `json:"script"`
	VideoPrompt string `json:"videoPrompt"`
}

// ParseScript decodes a structured completion and requires both fields to be
// present and non-blank.
func ParseScript(raw string) (Script, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Script{}, fmt.Errorf("%w: empty response", ErrMalformedScript)
	}

	var s Script
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Script{}, fmt.Errorf("%w: %v", ErrMalformedScript, err)
	}
	if strings.TrimSpace(s.Script) == "" {
		return Script{}, fmt.Errorf("%w: missing %q", ErrMalformedScript, ScriptField)
	}
	if strings.TrimSpace(s.VideoPrompt) == "" {
		return Script{}, fmt.Errorf("%w: missing %q", ErrMalformedScript, VideoPromptField)
	}
	return s, nil
}
