package service

import (
	"fmt"
	"strings"
)

func getContextSystemPrompt() string {
	return `You analyze sales conversations recorded at trade shows and extract lead intelligence.
Be specific and accurate. Only use information that was actually discussed.

Reply with ONLY one JSON object, no other text, with exactly these fields:
{
  "intent": "Hot" | "Warm" | "Cold",
  "product_interest": "specific product or service mentioned or inferred",
  "notes": "key points: company size, timeline, budget status, decision makers",
  "follow_up_message": "a personal follow-up email based on the conversation",
  "confidence_score": integer from 0 to 100
}

Intent rules:
- Hot: budget confirmed, timeline set and a decision maker present.
- Warm: interested and exploring options, partially qualified.
- Cold: just browsing, no immediate need, early stage.`
}

func buildContextPrompt(transcript string) string {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		transcript = "(empty transcript)"
	}
	return fmt.Sprintf("Conversation transcript:\n\"\"\"\n%s\n\"\"\"", transcript)
}
