package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetroai/vetro/internal/core/domain"
)

func fullResponse() *domain.SearchResponse {
	return &domain.SearchResponse{
		AnswerBox: &domain.AnswerBox{
			Title:  "Weather in Bangalore",
			Answer: "28°C, clear skies",
			Source: "https://weather.example.com",
		},
		KnowledgeGraph: &domain.KnowledgeGraph{
			Title:       "Bangalore",
			Type:        "City in Karnataka",
			Description: "Bangalore is the capital of Karnataka.",
			Attributes: map[string]string{
				"Population": "8.4 million",
				"Elevation":  "920 m",
			},
		},
		SportsResults: &domain.SportsResults{
			Title:  "RCB vs CSK",
			League: "IPL",
			Status: "Final",
			Teams: []domain.SportsTeam{
				{Name: "RCB", Score: "182/6"},
				{Name: "CSK", Score: "179/8"},
			},
		},
		TopStories: []domain.Story{
			{Title: "Monsoon arrives early", Source: "The Hindu", Date: "2 hours ago"},
		},
		Organic: []domain.OrganicResult{
			{Title: "Bangalore weather", Link: "https://a.example.com", Snippet: "Sunny."},
			{Title: "Climate of Bangalore", Link: "https://b.example.com", Snippet: "Mild."},
		},
		RelatedQuestions: []domain.RelatedQuestion{
			{Question: "Is Bangalore hot in summer?", Snippet: "Rarely above 35°C."},
		},
	}
}

func TestSynthesize_FixedBlockOrder(t *testing.T) {
	synthesizer := NewSnippetSynthesizer()

	text, ok := synthesizer.Synthesize(fullResponse())
	require.True(t, ok)

	labels := []string{
		"Google Answer Box:",
		"Knowledge Graph:",
		"Sports Results:",
		"Top Stories:",
		"Web Results:",
		"People Also Ask:",
	}
	last := -1
	for _, label := range labels {
		idx := strings.Index(text, label)
		require.NotEqual(t, -1, idx, "missing block %q", label)
		assert.Greater(t, idx, last, "block %q out of order", label)
		last = idx
	}
}

func TestSynthesize_OrganicCappedAtSix(t *testing.T) {
	synthesizer := NewSnippetSynthesizer()

	resp := &domain.SearchResponse{}
	for i := 1; i <= 8; i++ {
		resp.Organic = append(resp.Organic, domain.OrganicResult{
			Title: fmt.Sprintf("Result %d", i),
		})
	}

	text, ok := synthesizer.Synthesize(resp)
	require.True(t, ok)

	assert.Equal(t, 1, strings.Count(text, "Web Results:"))
	assert.Contains(t, text, "[1] Result 1")
	assert.Contains(t, text, "[6] Result 6")
	assert.NotContains(t, text, "Result 7")
	assert.NotContains(t, text, "Result 8")
}

func TestSynthesize_RelatedQuestionsCappedAtThree(t *testing.T) {
	synthesizer := NewSnippetSynthesizer()

	resp := &domain.SearchResponse{}
	for i := 1; i <= 5; i++ {
		resp.RelatedQuestions = append(resp.RelatedQuestions, domain.RelatedQuestion{
			Question: fmt.Sprintf("Question %d?", i),
		})
	}

	text, ok := synthesizer.Synthesize(resp)
	require.True(t, ok)
	assert.Contains(t, text, "Question 3?")
	assert.NotContains(t, text, "Question 4?")
}

func TestSynthesize_EmptyResponseReturnsNotOK(t *testing.T) {
	synthesizer := NewSnippetSynthesizer()

	tests := []struct {
		name string
		resp *domain.SearchResponse
	}{
		{"nil response", nil},
		{"all sections absent", &domain.SearchResponse{}},
		{
			"sections present but empty inside",
			&domain.SearchResponse{
				Organic:          []domain.OrganicResult{},
				TopStories:       []domain.Story{},
				RelatedQuestions: []domain.RelatedQuestion{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok := synthesizer.Synthesize(tt.resp)
			assert.False(t, ok)
			assert.Equal(t, "", text)
		})
	}
}

func TestSynthesize_OnlyPresentSectionsEmitted(t *testing.T) {
	synthesizer := NewSnippetSynthesizer()

	resp := &domain.SearchResponse{
		AnswerBox: &domain.AnswerBox{Answer: "42"},
	}

	text, ok := synthesizer.Synthesize(resp)
	require.True(t, ok)
	assert.Contains(t, text, "Google Answer Box:")
	assert.NotContains(t, text, "Knowledge Graph:")
	assert.NotContains(t, text, "Web Results:")
}

func TestSynthesize_Idempotent(t *testing.T) {
	synthesizer := NewSnippetSynthesizer()
	resp := fullResponse()

	first, ok1 := synthesizer.Synthesize(resp)
	second, ok2 := synthesizer.Synthesize(resp)

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, first, second)
}

func TestSynthesize_KnowledgeAttributesSortedAndCapped(t *testing.T) {
	synthesizer := NewSnippetSynthesizer()

	resp := &domain.SearchResponse{
		KnowledgeGraph: &domain.KnowledgeGraph{
			Title: "Entity",
			Attributes: map[string]string{
				"zeta": "1", "alpha": "2", "mid": "3",
				"beta": "4", "gamma": "5", "omega": "6", "delta": "7",
			},
		},
	}

	text, ok := synthesizer.Synthesize(resp)
	require.True(t, ok)

	// Five attributes survive, in sorted key order
	assert.Equal(t, 5, strings.Count(text, "\n- "))
	assert.Less(t, strings.Index(text, "- alpha"), strings.Index(text, "- beta"))
	assert.NotContains(t, text, "zeta")
}

func TestSynthesize_LongSnippetsTruncated(t *testing.T) {
	synthesizer := NewSnippetSynthesizer()

	resp := &domain.SearchResponse{
		Organic: []domain.OrganicResult{
			{Title: "Long", Snippet: strings.Repeat("x", 1000)},
		},
	}

	text, ok := synthesizer.Synthesize(resp)
	require.True(t, ok)
	assert.Contains(t, text, strings.Repeat("x", maxSnippetLen)+"...")
	assert.NotContains(t, text, strings.Repeat("x", maxSnippetLen+1))
}
