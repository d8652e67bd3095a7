package services

import (
	"fmt"
	"strings"
	"time"
)

// Fixed fragments of the composed instruction. The temporal rules exist
// because the downstream model has a stale training cutoff and reliably
// misjudges whether a dated event is past or future relative to the real
// "now".
const (
	temporalRules = `Temporal reasoning rules:
1. If an event is dated after today's date, it has NOT started or happened yet. Describe it as upcoming.
2. If an event is dated before today's date, it has already started or finished. Describe it as ongoing or past.
3. If an event is dated exactly today, it starts today.
4. Your training data has a cutoff and may be out of date. When live results are provided below, trust them over anything you remember.`

	groundTruthHeader = "LIVE WEB SEARCH RESULTS (treat as ground truth):"

	groundTruthRules = `When answering from these results:
- Quote dates and numbers exactly as they appear.
- Cite the source of any specific fact you use.
- If the results conflict with each other, say so.
- If the results do not cover the question, say so instead of guessing.`

	stalenessWarning = "Live web search was attempted for this question but returned no usable results. Answer from your training knowledge and clearly tell the user the information may be out of date."
)

// PromptComposer builds the synthetic system instruction for one turn
type PromptComposer struct{}

// NewPromptComposer creates a PromptComposer
func NewPromptComposer() *PromptComposer {
	return &PromptComposer{}
}

// Compose builds the full instruction block. It always contains the
// date-anchored header and temporal rules. persona is appended verbatim
// when non-empty. The snippet section appears only when searched is true:
// either the ground-truth block or, when snippetText is empty, the
// staleness warning.
func (c *PromptComposer) Compose(now time.Time, persona, snippetText string, searched bool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Today's date is %s (%s).\n\n",
		now.Format("Monday, January 2, 2006"),
		now.Format("2006-01-02")))
	sb.WriteString(temporalRules)

	if persona != "" {
		sb.WriteString("\n\n")
		sb.WriteString(persona)
	}

	if searched {
		sb.WriteString("\n\n")
		if snippetText != "" {
			sb.WriteString(groundTruthHeader)
			sb.WriteString("\n<<<\n")
			sb.WriteString(snippetText)
			sb.WriteString("\n>>>\n\n")
			sb.WriteString(groundTruthRules)
		} else {
			sb.WriteString(stalenessWarning)
		}
	}

	return sb.String()
}
