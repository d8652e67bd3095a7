package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vetroai/vetro/config"
	"github.com/vetroai/vetro/internal/adapters/secondary/repository"
	"github.com/vetroai/vetro/internal/core/domain"
	"github.com/vetroai/vetro/internal/core/ports"
	"github.com/vetroai/vetro/internal/logger"
)

// ==========================
// Mock ports
// ==========================

type MockLLM struct {
	mock.Mock
	lastMessages []domain.Message
}

func (m *MockLLM) StreamResponse(ctx context.Context, messages []domain.Message, onToken ports.TokenFunc) (string, error) {
	m.lastMessages = messages
	args := m.Called(ctx, messages)
	text := args.String(0)
	if onToken != nil && args.Error(1) == nil {
		for _, r := range text {
			onToken(string(r))
		}
	}
	return text, args.Error(1)
}

func (m *MockLLM) GetModelInfo(ctx context.Context) (map[string]interface{}, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

type MockWebSearch struct {
	mock.Mock
}

func (m *MockWebSearch) Fetch(ctx context.Context, query string) (*domain.SearchResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchResponse), args.Error(1)
}

// ==========================
// Helpers
// ==========================

func newTestService(t *testing.T, llm *MockLLM, search *MockWebSearch) (*ChatService, *repository.InMemoryRepository) {
	t.Helper()

	log := logger.Default()
	repo := repository.NewInMemoryRepository(log)

	cfg := config.DefaultConfig()
	svc := NewChatService(llm, repo, search, cfg, log)
	svc.now = func() time.Time {
		return time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	}
	return svc, repo
}

func systemMessage(t *testing.T, messages []domain.Message) domain.Message {
	t.Helper()
	require.NotEmpty(t, messages)
	require.Equal(t, domain.RoleSystem, messages[0].Role, "first outgoing message must be the system instruction")
	return messages[0]
}

// ==========================
// Tests
// ==========================

func TestStreamReply_WeatherQueryUsesLiveSearch(t *testing.T) {
	llm := &MockLLM{}
	search := &MockWebSearch{}
	svc, _ := newTestService(t, llm, search)

	search.On("Fetch", mock.Anything, "What's today's weather in Bangalore?").Return(&domain.SearchResponse{
		AnswerBox: &domain.AnswerBox{Answer: "28°C, clear skies"},
	}, nil)
	llm.On("StreamResponse", mock.Anything, mock.Anything).Return("It is 28°C with clear skies.", nil)

	var streamed string
	result, err := svc.StreamReply(context.Background(), "user-1", "", "What's today's weather in Bangalore?", "fast_chat", domain.WebModeAuto, func(token string) {
		streamed += token
	})
	require.NoError(t, err)

	sys := systemMessage(t, llm.lastMessages)
	assert.Contains(t, sys.Content, "Temporal reasoning rules:")
	assert.Contains(t, sys.Content, "Google Answer Box:")
	assert.Contains(t, sys.Content, "28°C, clear skies")

	assert.True(t, result.UsedLiveSearch)
	assert.True(t, result.Reply.UsedLiveSearch)
	assert.Equal(t, "It is 28°C with clear skies.", streamed)
	search.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestStreamReply_TimelessQuerySkipsSearch(t *testing.T) {
	llm := &MockLLM{}
	search := &MockWebSearch{}
	svc, _ := newTestService(t, llm, search)

	llm.On("StreamResponse", mock.Anything, mock.Anything).Return("Photosynthesis is...", nil)

	result, err := svc.StreamReply(context.Background(), "user-1", "", "explain photosynthesis", "fast_chat", domain.WebModeAuto, nil)
	require.NoError(t, err)

	sys := systemMessage(t, llm.lastMessages)
	assert.NotContains(t, sys.Content, groundTruthHeader)
	assert.NotContains(t, sys.Content, stalenessWarning)
	assert.False(t, result.UsedLiveSearch)
	search.AssertNotCalled(t, "Fetch")
}

func TestStreamReply_ExplicitWebModeOverridesClassifier(t *testing.T) {
	llm := &MockLLM{}
	search := &MockWebSearch{}
	svc, _ := newTestService(t, llm, search)

	search.On("Fetch", mock.Anything, "explain photosynthesis").Return(&domain.SearchResponse{
		Organic: []domain.OrganicResult{{Title: "Photosynthesis", Snippet: "Plants."}},
	}, nil)
	llm.On("StreamResponse", mock.Anything, mock.Anything).Return("ok", nil)

	result, err := svc.StreamReply(context.Background(), "user-1", "", "explain photosynthesis", "fast_chat", domain.WebModeOn, nil)
	require.NoError(t, err)
	assert.True(t, result.UsedLiveSearch)

	// And web mode off suppresses a query the classifier would catch
	llm2 := &MockLLM{}
	search2 := &MockWebSearch{}
	svc2, _ := newTestService(t, llm2, search2)
	llm2.On("StreamResponse", mock.Anything, mock.Anything).Return("ok", nil)

	result, err = svc2.StreamReply(context.Background(), "user-1", "", "bitcoin price today", "fast_chat", domain.WebModeOff, nil)
	require.NoError(t, err)
	assert.False(t, result.UsedLiveSearch)
	search2.AssertNotCalled(t, "Fetch")
}

func TestStreamReply_SearchFailureDegradesToStalenessWarning(t *testing.T) {
	llm := &MockLLM{}
	search := &MockWebSearch{}
	svc, _ := newTestService(t, llm, search)

	search.On("Fetch", mock.Anything, mock.Anything).Return(nil, errors.New("context deadline exceeded"))
	llm.On("StreamResponse", mock.Anything, mock.Anything).Return("Based on my training data...", nil)

	result, err := svc.StreamReply(context.Background(), "user-1", "", "bitcoin price today", "fast_chat", domain.WebModeAuto, nil)
	require.NoError(t, err)

	sys := systemMessage(t, llm.lastMessages)
	assert.Contains(t, sys.Content, stalenessWarning)
	assert.NotContains(t, sys.Content, groundTruthHeader)
	assert.False(t, result.UsedLiveSearch)
}

func TestStreamReply_EmptySearchResultsDegradeToStalenessWarning(t *testing.T) {
	llm := &MockLLM{}
	search := &MockWebSearch{}
	svc, _ := newTestService(t, llm, search)

	search.On("Fetch", mock.Anything, mock.Anything).Return(&domain.SearchResponse{}, nil)
	llm.On("StreamResponse", mock.Anything, mock.Anything).Return("ok", nil)

	result, err := svc.StreamReply(context.Background(), "user-1", "", "weather today", "fast_chat", domain.WebModeAuto, nil)
	require.NoError(t, err)

	sys := systemMessage(t, llm.lastMessages)
	assert.Contains(t, sys.Content, stalenessWarning)
	assert.False(t, result.UsedLiveSearch)
}

func TestStreamReply_SystemInstructionNotPersisted(t *testing.T) {
	llm := &MockLLM{}
	search := &MockWebSearch{}
	svc, repo := newTestService(t, llm, search)

	llm.On("StreamResponse", mock.Anything, mock.Anything).Return("hello", nil)

	result, err := svc.StreamReply(context.Background(), "user-1", "", "explain photosynthesis", "fast_chat", domain.WebModeAuto, nil)
	require.NoError(t, err)

	saved, err := repo.GetSession(context.Background(), "user-1", result.Session.ID)
	require.NoError(t, err)
	require.Len(t, saved.Messages, 2)
	assert.Equal(t, domain.RoleUser, saved.Messages[0].Role)
	assert.Equal(t, domain.RoleAssistant, saved.Messages[1].Role)
	for _, msg := range saved.Messages {
		assert.NotEqual(t, domain.RoleSystem, msg.Role)
	}
}

func TestStreamReply_HistoryWindowCappedAtTen(t *testing.T) {
	llm := &MockLLM{}
	search := &MockWebSearch{}
	svc, repo := newTestService(t, llm, search)

	session := domain.NewSession("user-1")
	for i := 0; i < 20; i++ {
		session.AddMessage(domain.NewMessage(domain.RoleUser, "older question"))
		session.AddMessage(domain.NewMessage(domain.RoleAssistant, "older answer"))
	}
	require.NoError(t, repo.SaveSession(context.Background(), session))

	llm.On("StreamResponse", mock.Anything, mock.Anything).Return("ok", nil)

	_, err := svc.StreamReply(context.Background(), "user-1", session.ID, "explain photosynthesis", "fast_chat", domain.WebModeAuto, nil)
	require.NoError(t, err)

	// 1 system instruction + last 10 transcript messages
	assert.Len(t, llm.lastMessages, 11)
	assert.Equal(t, domain.RoleSystem, llm.lastMessages[0].Role)
	assert.Equal(t, "explain photosynthesis", llm.lastMessages[len(llm.lastMessages)-1].Content)
}

func TestStreamReply_PersonaFromModeConfig(t *testing.T) {
	llm := &MockLLM{}
	search := &MockWebSearch{}
	svc, _ := newTestService(t, llm, search)

	llm.On("StreamResponse", mock.Anything, mock.Anything).Return("ok", nil)

	_, err := svc.StreamReply(context.Background(), "user-1", "", "explain pointers", "debugger", domain.WebModeAuto, nil)
	require.NoError(t, err)

	sys := systemMessage(t, llm.lastMessages)
	assert.Contains(t, sys.Content, "senior software engineer")
}

func TestStreamReply_UnknownModeFallsBackToDefaultPersona(t *testing.T) {
	llm := &MockLLM{}
	search := &MockWebSearch{}
	svc, _ := newTestService(t, llm, search)
	svc.config.Chat.DefaultMode = "debugger"

	llm.On("StreamResponse", mock.Anything, mock.Anything).Return("ok", nil)

	_, err := svc.StreamReply(context.Background(), "user-1", "", "explain pointers", "no-such-mode", domain.WebModeAuto, nil)
	require.NoError(t, err)

	sys := systemMessage(t, llm.lastMessages)
	assert.Contains(t, sys.Content, "senior software engineer")
}

func TestStreamReply_LLMErrorPropagates(t *testing.T) {
	llm := &MockLLM{}
	search := &MockWebSearch{}
	svc, repo := newTestService(t, llm, search)

	llm.On("StreamResponse", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

	_, err := svc.StreamReply(context.Background(), "user-1", "", "explain photosynthesis", "fast_chat", domain.WebModeAuto, nil)
	require.Error(t, err)

	// The failed turn is not persisted
	sessions, err := repo.ListSessions(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestStreamReply_NewSessionTitledFromFirstMessage(t *testing.T) {
	llm := &MockLLM{}
	search := &MockWebSearch{}
	svc, _ := newTestService(t, llm, search)

	llm.On("StreamResponse", mock.Anything, mock.Anything).Return("ok", nil)

	result, err := svc.StreamReply(context.Background(), "user-1", "", "a question that is definitely longer than thirty characters", "fast_chat", domain.WebModeAuto, nil)
	require.NoError(t, err)
	assert.Equal(t, "a question that is definitely ...", result.Session.Title)
}
