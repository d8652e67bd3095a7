package websearch

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/vetroai/vetro/config"
	"github.com/vetroai/vetro/internal/core/domain"
	"github.com/vetroai/vetro/internal/logger"
)

// serperResponse mirrors the provider's JSON shape. Every key is optional;
// a missing section decodes to nil and is simply absent.
type serperResponse struct {
	AnswerBox *struct {
		Title   string `json:"title"`
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"answerBox"`
	KnowledgeGraph *struct {
		Title       string            `json:"title"`
		Type        string            `json:"type"`
		Description string            `json:"description"`
		Attributes  map[string]string `json:"attributes"`
	} `json:"knowledgeGraph"`
	SportsResults *struct {
		Title         string `json:"title"`
		League        string `json:"league"`
		GameSpotlight *struct {
			Date   string `json:"date"`
			Status string `json:"status"`
			Teams  []struct {
				Name  string          `json:"name"`
				Score json.RawMessage `json:"score"`
			} `json:"teams"`
		} `json:"gameSpotlight"`
	} `json:"sportsResults"`
	TopStories []struct {
		Title  string `json:"title"`
		Link   string `json:"link"`
		Source string `json:"source"`
		Date   string `json:"date"`
	} `json:"topStories"`
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Date     string `json:"date"`
		Position int    `json:"position"`
	} `json:"organic"`
	PeopleAlsoAsk []struct {
		Question string `json:"question"`
		Snippet  string `json:"snippet"`
		Link     string `json:"link"`
	} `json:"peopleAlsoAsk"`
}

// SerperAdapter implements the WebSearchPort interface against a
// serper-style POST endpoint with a header API key
type SerperAdapter struct {
	config     *config.WebSearchConfig
	logger     logger.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSerperAdapter creates a new SerperAdapter
func NewSerperAdapter(cfg *config.WebSearchConfig, log logger.Logger) *SerperAdapter {
	return &SerperAdapter{
		config: cfg,
		logger: log,
		httpClient: &http.Client{
			Timeout: cfg.TimeoutSeconds * time.Second,
		},
		limiter: newLimiter(cfg),
	}
}

// Fetch performs one search request. All failure modes come back as an
// error so the caller degrades to "no live data".
func (a *SerperAdapter) Fetch(ctx context.Context, query string) (*domain.SearchResponse, error) {
	if a.config.APIKey == "" {
		return nil, fmt.Errorf("search API key is not configured")
	}
	if !a.limiter.Allow() {
		return nil, fmt.Errorf("search rate limit exceeded")
	}

	a.logger.Info("Performing web search", "provider", "serper", "query", query)

	body, err := json.Marshal(map[string]interface{}{
		"q":   query,
		"gl":  a.config.Country,
		"hl":  a.config.Language,
		"num": a.config.ResultCount,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, a.config.TimeoutSeconds*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, a.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("X-API-KEY", a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		a.logger.Error("Search provider returned non-OK status",
			"status", resp.StatusCode, "body", string(errorBody))
		return nil, fmt.Errorf("search provider returned status %d", resp.StatusCode)
	}

	var reader io.ReadCloser
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		reader, err = gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("decompressing search response: %w", err)
		}
		defer reader.Close()
	default:
		reader = resp.Body
	}

	var raw serperResponse
	if err := json.NewDecoder(reader).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	result := convertSerperResponse(&raw)
	a.logger.Info("Web search completed",
		"has_answer_box", result.AnswerBox != nil,
		"organic_count", len(result.Organic))
	return result, nil
}

func convertSerperResponse(raw *serperResponse) *domain.SearchResponse {
	result := &domain.SearchResponse{}

	if ab := raw.AnswerBox; ab != nil {
		result.AnswerBox = &domain.AnswerBox{
			Title:   ab.Title,
			Answer:  ab.Answer,
			Snippet: ab.Snippet,
			Source:  ab.Link,
		}
	}

	if kg := raw.KnowledgeGraph; kg != nil {
		result.KnowledgeGraph = &domain.KnowledgeGraph{
			Title:       kg.Title,
			Type:        kg.Type,
			Description: kg.Description,
			Attributes:  kg.Attributes,
		}
	}

	if sr := raw.SportsResults; sr != nil {
		converted := &domain.SportsResults{
			Title:  sr.Title,
			League: sr.League,
		}
		if gs := sr.GameSpotlight; gs != nil {
			converted.GameDate = gs.Date
			converted.Status = gs.Status
			for _, team := range gs.Teams {
				converted.Teams = append(converted.Teams, domain.SportsTeam{
					Name:  team.Name,
					Score: rawScoreToString(team.Score),
				})
			}
		}
		result.SportsResults = converted
	}

	for _, story := range raw.TopStories {
		result.TopStories = append(result.TopStories, domain.Story{
			Title:  story.Title,
			Link:   story.Link,
			Source: story.Source,
			Date:   story.Date,
		})
	}

	for _, organic := range raw.Organic {
		result.Organic = append(result.Organic, domain.OrganicResult{
			Title:    organic.Title,
			Link:     organic.Link,
			Snippet:  organic.Snippet,
			Date:     organic.Date,
			Position: organic.Position,
		})
	}

	for _, q := range raw.PeopleAlsoAsk {
		result.RelatedQuestions = append(result.RelatedQuestions, domain.RelatedQuestion{
			Question: q.Question,
			Snippet:  q.Snippet,
			Link:     q.Link,
		})
	}

	return result
}

// rawScoreToString accepts both string and numeric scores from the provider
func rawScoreToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// newLimiter builds the outbound-call throttle for one adapter instance.
// Only one provider adapter is active at a time, so per-instance budgets
// are the provider budget.
func newLimiter(cfg *config.WebSearchConfig) *rate.Limiter {
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 20
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}
