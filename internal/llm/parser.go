package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ledgermap/ledgermap/internal/model"
)

// InvalidResponseError indicates the reasoning service returned something
// that does not parse to exactly one valid label plus a confidence. The
// matcher treats it as "did not pass", never as a fatal error.
type InvalidResponseError struct {
	Reason string
	Raw    string
}

func (e *InvalidResponseError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return fmt.Sprintf("invalid LLM response (%s): %s", e.Reason, raw)
}

// cleanMarkdownWrapper strips markdown code fences that some models wrap
// around JSON despite instructions.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) > 2 {
			lines = lines[1:]
			if strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
				lines = lines[:len(lines)-1]
			}
			content = strings.Join(lines, "\n")
		}
	}

	return strings.TrimSpace(content)
}

// parseResponse validates the model output against the wire contract:
// {"fs": <label>, "confidence": <0..1>, "reasoning": <string>}.
func parseResponse(content string) (Response, error) {
	cleaned := cleanMarkdownWrapper(content)

	var jsonResp struct {
		FS         string   `json:"fs"`
		Reasoning  string   `json:"reasoning"`
		Confidence *float64 `json:"confidence"`
	}

	if err := json.Unmarshal([]byte(cleaned), &jsonResp); err != nil {
		return Response{}, &InvalidResponseError{Reason: "not valid JSON", Raw: content}
	}

	label, err := model.ParseLabel(jsonResp.FS)
	if err != nil {
		return Response{}, &InvalidResponseError{Reason: err.Error(), Raw: content}
	}

	if jsonResp.Confidence == nil {
		return Response{}, &InvalidResponseError{Reason: "missing confidence", Raw: content}
	}
	confidence := *jsonResp.Confidence
	if confidence < 0 || confidence > 1 {
		return Response{}, &InvalidResponseError{
			Reason: fmt.Sprintf("confidence %v out of range", confidence),
			Raw:    content,
		}
	}

	return Response{
		Label:      label,
		Confidence: confidence,
		Rationale:  jsonResp.Reasoning,
	}, nil
}
