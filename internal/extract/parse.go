package extract

import (
	"strings"

	"github.com/mediaops/intake-cli/internal/fault"
	"github.com/mediaops/intake-cli/internal/model"
	"github.com/mediaops/intake-cli/pkg/anthropic"
)

// extractText concatenates all text content blocks from a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// parseAnswer turns the model's raw answer into a candidate record. A
// well-formed answer that is not a JSON object is a parse fault; the raw
// text stays in the wrapped cause for logs, never in the safe message.
func parseAnswer(text string) (model.CandidateRecord, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, fault.New(fault.KindParse, "extraction backend returned no JSON object")
	}

	rec, err := model.ParseCandidateRecord([]byte(cleaned))
	if err != nil {
		return nil, fault.Wrap(err, fault.KindParse, "extraction backend returned invalid JSON")
	}
	return rec, nil
}
