package websearch

import (
	"context"
	"fmt"
	"strconv"

	serpapi "github.com/serpapi/google-search-results-golang"
	"golang.org/x/time/rate"

	"github.com/vetroai/vetro/config"
	"github.com/vetroai/vetro/internal/core/domain"
	"github.com/vetroai/vetro/internal/logger"
)

// SerpAPIAdapter implements the WebSearchPort interface using SerpAPI.
// SerpAPI returns the same optional sections as the serper endpoint but
// with snake_case keys and an untyped payload.
type SerpAPIAdapter struct {
	config  *config.WebSearchConfig
	logger  logger.Logger
	limiter *rate.Limiter
}

// NewSerpAPIAdapter creates a new SerpAPIAdapter
func NewSerpAPIAdapter(cfg *config.WebSearchConfig, log logger.Logger) *SerpAPIAdapter {
	return &SerpAPIAdapter{
		config:  cfg,
		logger:  log,
		limiter: newLimiter(cfg),
	}
}

// Fetch performs one search request via the SerpAPI client
func (a *SerpAPIAdapter) Fetch(ctx context.Context, query string) (*domain.SearchResponse, error) {
	if a.config.APIKey == "" {
		return nil, fmt.Errorf("SerpAPI key is not configured")
	}
	if !a.limiter.Allow() {
		return nil, fmt.Errorf("search rate limit exceeded")
	}

	a.logger.Info("Performing web search", "provider", "serpapi", "query", query)

	parameters := map[string]string{
		"q":      query,
		"engine": "google",
		"gl":     a.config.Country,
		"hl":     a.config.Language,
		"num":    strconv.Itoa(a.config.ResultCount),
	}

	client := serpapi.NewGoogleSearch(parameters, a.config.APIKey)
	data, err := client.GetJSON()
	if err != nil {
		return nil, fmt.Errorf("SerpAPI search failed: %w", err)
	}

	result := convertSerpAPIResponse(data)
	a.logger.Info("Web search completed",
		"has_answer_box", result.AnswerBox != nil,
		"organic_count", len(result.Organic))
	return result, nil
}

func convertSerpAPIResponse(data map[string]interface{}) *domain.SearchResponse {
	result := &domain.SearchResponse{}

	if ab, ok := data["answer_box"].(map[string]interface{}); ok {
		result.AnswerBox = &domain.AnswerBox{
			Title:   getStringValue(ab, "title"),
			Answer:  getStringValue(ab, "answer"),
			Snippet: getStringValue(ab, "snippet"),
			Source:  getStringValue(ab, "link"),
		}
	}

	if kg, ok := data["knowledge_graph"].(map[string]interface{}); ok {
		converted := &domain.KnowledgeGraph{
			Title:       getStringValue(kg, "title"),
			Type:        getStringValue(kg, "type"),
			Description: getStringValue(kg, "description"),
		}
		// SerpAPI mixes entity attributes with nested objects at the top
		// level; keep only the flat string attributes
		attrs := make(map[string]string)
		for key, value := range kg {
			if key == "title" || key == "type" || key == "description" {
				continue
			}
			if s, ok := value.(string); ok {
				attrs[key] = s
			}
		}
		if len(attrs) > 0 {
			converted.Attributes = attrs
		}
		result.KnowledgeGraph = converted
	}

	if sr, ok := data["sports_results"].(map[string]interface{}); ok {
		converted := &domain.SportsResults{
			Title:  getStringValue(sr, "title"),
			League: getStringValue(sr, "league"),
		}
		if spotlight, ok := sr["game_spotlight"].(map[string]interface{}); ok {
			converted.GameDate = getStringValue(spotlight, "date")
			converted.Status = getStringValue(spotlight, "status")
			if teams, ok := spotlight["teams"].([]interface{}); ok {
				for _, entry := range teams {
					team, ok := entry.(map[string]interface{})
					if !ok {
						continue
					}
					converted.Teams = append(converted.Teams, domain.SportsTeam{
						Name:  getStringValue(team, "name"),
						Score: getScoreValue(team, "score"),
					})
				}
			}
		}
		result.SportsResults = converted
	}

	if stories, ok := data["top_stories"].([]interface{}); ok {
		for _, entry := range stories {
			story, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			result.TopStories = append(result.TopStories, domain.Story{
				Title:  getStringValue(story, "title"),
				Link:   getStringValue(story, "link"),
				Source: getStringValue(story, "source"),
				Date:   getStringValue(story, "date"),
			})
		}
	}

	if organicResults, ok := data["organic_results"].([]interface{}); ok {
		for i, entry := range organicResults {
			organic, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			result.Organic = append(result.Organic, domain.OrganicResult{
				Title:    getStringValue(organic, "title"),
				Link:     getStringValue(organic, "link"),
				Snippet:  getStringValue(organic, "snippet"),
				Date:     getStringValue(organic, "date"),
				Position: i + 1,
			})
		}
	}

	if questions, ok := data["related_questions"].([]interface{}); ok {
		for _, entry := range questions {
			q, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			result.RelatedQuestions = append(result.RelatedQuestions, domain.RelatedQuestion{
				Question: getStringValue(q, "question"),
				Snippet:  getStringValue(q, "snippet"),
				Link:     getStringValue(q, "link"),
			})
		}
	}

	return result
}

// getStringValue safely extracts a string value from a map
func getStringValue(data map[string]interface{}, key string) string {
	if value, ok := data[key]; ok {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return ""
}

// getScoreValue extracts a score that may be a string or a number
func getScoreValue(data map[string]interface{}, key string) string {
	switch value := data[key].(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return ""
	}
}
