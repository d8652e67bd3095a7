package services

import (
	"context"
	"time"

	"github.com/vetroai/vetro/config"
	"github.com/vetroai/vetro/internal/core/domain"
	"github.com/vetroai/vetro/internal/core/ports"
	"github.com/vetroai/vetro/internal/logger"
)

// ChatService orchestrates one conversation turn: decide on live search,
// fetch and synthesize results, compose the system instruction, stream the
// model reply and persist the transcript.
type ChatService struct {
	llm         ports.LLMPort
	sessions    ports.SessionRepositoryPort
	webSearch   ports.WebSearchPort
	classifier  *TriggerClassifier
	synthesizer *SnippetSynthesizer
	composer    *PromptComposer
	logger      logger.Logger
	config      *config.Config
	now         func() time.Time
}

// NewChatService creates a new ChatService
func NewChatService(llm ports.LLMPort, sessions ports.SessionRepositoryPort, webSearch ports.WebSearchPort, cfg *config.Config, log logger.Logger) *ChatService {
	return &ChatService{
		llm:         llm,
		sessions:    sessions,
		webSearch:   webSearch,
		classifier:  NewTriggerClassifier(),
		synthesizer: NewSnippetSynthesizer(),
		composer:    NewPromptComposer(),
		logger:      log,
		config:      cfg,
		now:         time.Now,
	}
}

// TurnResult reports what a completed turn produced
type TurnResult struct {
	Session        *domain.Session `json:"session"`
	Reply          domain.Message  `json:"reply"`
	UsedLiveSearch bool            `json:"used_live_search"`
}

// StreamReply handles one user turn. An empty sessionID starts a new
// session. Tokens are forwarded to onToken as they arrive; cancelling ctx
// aborts the generation. The composed system instruction is only part of
// the outgoing request and never joins the stored transcript.
func (s *ChatService) StreamReply(ctx context.Context, userID, sessionID, content, mode string, webMode domain.WebMode, onToken ports.TokenFunc) (*TurnResult, error) {
	session, err := s.loadOrCreateSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	session.AddMessage(domain.NewMessage(domain.RoleUser, content))

	searched := s.shouldSearch(content, webMode)
	snippetText := ""
	if searched {
		snippetText = s.fetchAndSynthesize(ctx, content)
	}

	persona, ok := s.config.Chat.Personas[mode]
	if !ok {
		persona = s.config.Chat.Personas[s.config.Chat.DefaultMode]
	}
	instruction := s.composer.Compose(s.now(), persona, snippetText, searched)

	history := session.LastMessages(s.config.Chat.MaxHistoryMessages)
	outgoing := make([]domain.Message, 0, len(history)+1)
	outgoing = append(outgoing, domain.Message{Role: domain.RoleSystem, Content: instruction})
	outgoing = append(outgoing, history...)

	s.logger.Info("Generating reply",
		"session_id", session.ID,
		"mode", mode,
		"searched", searched,
		"has_snippets", snippetText != "")

	response, err := s.llm.StreamResponse(ctx, outgoing, onToken)
	if err != nil {
		s.logger.Error("Failed to generate reply", "session_id", session.ID, "error", err)
		return nil, err
	}

	reply := domain.NewMessage(domain.RoleAssistant, response)
	reply.UsedLiveSearch = searched && snippetText != ""
	session.AddMessage(reply)

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		s.logger.Error("Failed to save session", "session_id", session.ID, "error", err)
		return nil, err
	}

	return &TurnResult{
		Session:        session,
		Reply:          reply,
		UsedLiveSearch: reply.UsedLiveSearch,
	}, nil
}

// shouldSearch applies the per-turn search decision: an explicit web mode
// wins, otherwise auto-detection consults the trigger classifier.
func (s *ChatService) shouldSearch(content string, webMode domain.WebMode) bool {
	if !s.config.WebSearch.Enabled || s.webSearch == nil {
		return false
	}
	switch webMode {
	case domain.WebModeOn:
		return true
	case domain.WebModeOff:
		return false
	default:
		if !s.config.WebSearch.AutoDetect {
			return false
		}
		if s.classifier.NeedsLiveData(content) {
			s.logger.Info("Search intent detected", "rules", s.classifier.MatchedRules(content))
			return true
		}
		return false
	}
}

// fetchAndSynthesize runs the fetch and snippet steps. Every failure mode
// collapses to an empty snippet string so the composer can degrade to the
// staleness warning.
func (s *ChatService) fetchAndSynthesize(ctx context.Context, query string) string {
	resp, err := s.webSearch.Fetch(ctx, query)
	if err != nil {
		s.logger.Warn("Web search failed, degrading to no live data", "error", err)
		return ""
	}
	text, ok := s.synthesizer.Synthesize(resp)
	if !ok {
		s.logger.Info("Web search returned no usable sections")
		return ""
	}
	return text
}

func (s *ChatService) loadOrCreateSession(ctx context.Context, userID, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		session := domain.NewSession(userID)
		s.logger.Info("Starting new session", "session_id", session.ID)
		return session, nil
	}
	return s.sessions.GetSession(ctx, userID, sessionID)
}

// GetSession retrieves one of the user's sessions
func (s *ChatService) GetSession(ctx context.Context, userID, id string) (*domain.Session, error) {
	return s.sessions.GetSession(ctx, userID, id)
}

// ListSessions returns the user's sessions, optionally filtered by title
func (s *ChatService) ListSessions(ctx context.Context, userID, titleQuery string) ([]*domain.Session, error) {
	return s.sessions.ListSessions(ctx, userID, titleQuery)
}

// DeleteSession deletes one of the user's sessions
func (s *ChatService) DeleteSession(ctx context.Context, userID, id string) error {
	return s.sessions.DeleteSession(ctx, userID, id)
}

// GetModelInfo returns information about the current LLM model
func (s *ChatService) GetModelInfo(ctx context.Context) (map[string]interface{}, error) {
	return s.llm.GetModelInfo(ctx)
}

// GetModelName returns the name of the current LLM model
func (s *ChatService) GetModelName() string {
	if s.config.LLM.Provider == "ollama" {
		return s.config.LLM.Ollama.Model
	}
	return "unknown"
}
