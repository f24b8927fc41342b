package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// buildThreadPrompt renders a conversation thread into a single analysis
// prompt shared by all providers, so switching provider does not change
// the output contract.
func buildThreadPrompt(messages []ThreadMessage, ownerIdentity, contactName string) string {
	var transcript strings.Builder
	for _, m := range messages {
		speaker := contactName
		if m.Direction == "outbound" {
			speaker = ownerIdentity + " (me)"
		}
		fmt.Fprintf(&transcript, "[%s] %s: %s\n", m.Timestamp.Format("2006-01-02 15:04"), speaker, m.Content)
	}

	return fmt.Sprintf(`You are an assistant inside a personal CRM. Analyze the conversation below between the user (%s) and their contact (%s).

Return ONLY a JSON object with these fields:
- "summary": 1-2 sentence summary of the conversation
- "topics": array of up to 5 short topic strings
- "urgency": one of "low", "medium", "high"
- "status": one of "active", "waiting_on_me", "waiting_on_them", "resolved" ("waiting_on_me" means the user owes a reply)
- "action_items": array of concrete follow-ups for the user (empty if none)
- "unresponded_count": number of contact messages at the end of the thread the user has not replied to

CONVERSATION:
%s

JSON:`, ownerIdentity, contactName, transcript.String())
}

// parseThreadAnalysis extracts the JSON object from a model response,
// tolerating markdown fences and surrounding prose.
func parseThreadAnalysis(text string) (*ThreadAnalysis, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}
	text = text[start : end+1]

	var analysis ThreadAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis JSON: %w", err)
	}
	if analysis.Summary == "" {
		return nil, fmt.Errorf("model returned empty summary")
	}

	if analysis.Urgency == "" {
		analysis.Urgency = "low"
	}
	if analysis.Status == "" {
		analysis.Status = "active"
	}
	return &analysis, nil
}
