package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bibliafides/backend/internal/model/chat"
)

// ParseResponse decodes a raw model reply into a BibleResponse. The reply is
// untrusted: it must contain exactly one JSON object (surrounding prose or code
// fences are ignored) and the decoded answer must pass validation in full.
func ParseResponse(raw string) (chat.BibleResponse, error) {
	body, err := extractJSONObject(raw)
	if err != nil {
		return chat.BibleResponse{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	var answer chat.BibleResponse
	if err := json.Unmarshal([]byte(body), &answer); err != nil {
		return chat.BibleResponse{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if err := answer.Validate(); err != nil {
		return chat.BibleResponse{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return answer, nil
}

func extractJSONObject(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("missing json object")
	}
	return trimmed[start : end+1], nil
}
