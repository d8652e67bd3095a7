package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vetroai/vetro/internal/core/domain"
)

// Truncation bounds keep the composed instruction block a predictable size
const (
	maxOrganicResults   = 6
	maxRelatedQuestions = 3
	maxTopStories       = 5
	maxKnowledgeAttrs   = 5
	maxSnippetLen       = 300
)

// blockDelimiter separates snippet blocks inside the composed instruction
const blockDelimiter = "\n\n---\n\n"

// SnippetSynthesizer turns a raw search response into an ordered list of
// labelled text blocks. Block order is always answer box, knowledge graph,
// sports results, top stories, organic results, related questions, so the
// downstream model can treat earlier blocks as higher-confidence answers.
type SnippetSynthesizer struct{}

// NewSnippetSynthesizer creates a SnippetSynthesizer
func NewSnippetSynthesizer() *SnippetSynthesizer {
	return &SnippetSynthesizer{}
}

// Synthesize formats every present, non-empty section of the response.
// ok is false when no section produced a block, so callers can tell
// "searched but found nothing" apart from "has content".
func (s *SnippetSynthesizer) Synthesize(resp *domain.SearchResponse) (string, bool) {
	if resp == nil {
		return "", false
	}

	var blocks []string

	if b := formatAnswerBox(resp.AnswerBox); b != "" {
		blocks = append(blocks, b)
	}
	if b := formatKnowledgeGraph(resp.KnowledgeGraph); b != "" {
		blocks = append(blocks, b)
	}
	if b := formatSportsResults(resp.SportsResults); b != "" {
		blocks = append(blocks, b)
	}
	if b := formatTopStories(resp.TopStories); b != "" {
		blocks = append(blocks, b)
	}
	if b := formatOrganic(resp.Organic); b != "" {
		blocks = append(blocks, b)
	}
	if b := formatRelatedQuestions(resp.RelatedQuestions); b != "" {
		blocks = append(blocks, b)
	}

	if len(blocks) == 0 {
		return "", false
	}
	return strings.Join(blocks, blockDelimiter), true
}

func formatAnswerBox(box *domain.AnswerBox) string {
	if box == nil {
		return ""
	}
	answer := box.Answer
	if answer == "" {
		answer = box.Snippet
	}
	if answer == "" && box.Title == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Google Answer Box:\n")
	if box.Title != "" {
		sb.WriteString(truncate(box.Title, maxSnippetLen))
		if answer != "" {
			sb.WriteString(": ")
		}
	}
	sb.WriteString(truncate(answer, maxSnippetLen))
	if box.Source != "" {
		sb.WriteString(fmt.Sprintf(" (source: %s)", box.Source))
	}
	return sb.String()
}

func formatKnowledgeGraph(kg *domain.KnowledgeGraph) string {
	if kg == nil || (kg.Title == "" && kg.Description == "") {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Knowledge Graph:\n")
	sb.WriteString(kg.Title)
	if kg.Type != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", kg.Type))
	}
	if kg.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(truncate(kg.Description, maxSnippetLen))
	}

	// Sorted keys keep repeated synthesis byte-identical
	keys := make([]string, 0, len(kg.Attributes))
	for k := range kg.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxKnowledgeAttrs {
		keys = keys[:maxKnowledgeAttrs]
	}
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("\n- %s: %s", k, truncate(kg.Attributes[k], maxSnippetLen)))
	}
	return sb.String()
}

func formatSportsResults(sr *domain.SportsResults) string {
	if sr == nil || (sr.Title == "" && len(sr.Teams) == 0) {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Sports Results:\n")
	sb.WriteString(sr.Title)
	if sr.League != "" {
		sb.WriteString(fmt.Sprintf(" [%s]", sr.League))
	}
	if len(sr.Teams) > 0 {
		var sides []string
		for _, team := range sr.Teams {
			if team.Score != "" {
				sides = append(sides, fmt.Sprintf("%s %s", team.Name, team.Score))
			} else {
				sides = append(sides, team.Name)
			}
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Join(sides, " vs "))
	}
	if sr.Status != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", sr.Status))
	}
	if sr.GameDate != "" {
		sb.WriteString(fmt.Sprintf(" on %s", sr.GameDate))
	}
	return sb.String()
}

func formatTopStories(stories []domain.Story) string {
	if len(stories) == 0 {
		return ""
	}
	if len(stories) > maxTopStories {
		stories = stories[:maxTopStories]
	}

	var sb strings.Builder
	sb.WriteString("Top Stories:")
	for _, story := range stories {
		sb.WriteString(fmt.Sprintf("\n- %s", truncate(story.Title, maxSnippetLen)))
		var meta []string
		if story.Source != "" {
			meta = append(meta, story.Source)
		}
		if story.Date != "" {
			meta = append(meta, story.Date)
		}
		if len(meta) > 0 {
			sb.WriteString(fmt.Sprintf(" (%s)", strings.Join(meta, ", ")))
		}
	}
	return sb.String()
}

func formatOrganic(results []domain.OrganicResult) string {
	if len(results) == 0 {
		return ""
	}
	if len(results) > maxOrganicResults {
		results = results[:maxOrganicResults]
	}

	var sb strings.Builder
	sb.WriteString("Web Results:")
	for i, result := range results {
		sb.WriteString(fmt.Sprintf("\n[%d] %s", i+1, truncate(result.Title, maxSnippetLen)))
		if result.Link != "" {
			sb.WriteString(fmt.Sprintf("\n    Link: %s", result.Link))
		}
		if result.Snippet != "" {
			sb.WriteString(fmt.Sprintf("\n    Snippet: %s", truncate(result.Snippet, maxSnippetLen)))
		}
		if result.Date != "" {
			sb.WriteString(fmt.Sprintf("\n    Date: %s", result.Date))
		}
	}
	return sb.String()
}

func formatRelatedQuestions(questions []domain.RelatedQuestion) string {
	if len(questions) == 0 {
		return ""
	}
	if len(questions) > maxRelatedQuestions {
		questions = questions[:maxRelatedQuestions]
	}

	var sb strings.Builder
	sb.WriteString("People Also Ask:")
	for _, q := range questions {
		sb.WriteString(fmt.Sprintf("\n- Q: %s", truncate(q.Question, maxSnippetLen)))
		if q.Snippet != "" {
			sb.WriteString(fmt.Sprintf("\n  A: %s", truncate(q.Snippet, maxSnippetLen)))
		}
	}
	return sb.String()
}

// truncate caps s at max runes, appending an ellipsis when cut
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
