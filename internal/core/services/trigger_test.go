package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriggerClassifier_NeedsLiveData(t *testing.T) {
	classifier := NewTriggerClassifier()

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"empty string", "", false},
		{"whitespace only", "   ", false},
		{"relative time word", "What's the weather today in Bangalore?", true},
		{"now keyword", "what is happening right now in chennai", true},
		{"latest keyword", "latest android version", true},
		{"breaking news", "breaking news about the election", true},
		{"recent year literal", "best laptops 2025", true},
		{"older year not volatile", "history of rome in 1925", false},
		{"who won question", "who won the match yesterday", true},
		{"score question", "what is the score of the test match", true},
		{"stock keyword", "reliance stock performance", true},
		{"crypto keyword", "should I buy bitcoin", true},
		{"weather keyword", "weather forecast for mumbai", true},
		{"just announced", "apple just announced a new chip", true},
		{"timeless question", "explain photosynthesis", false},
		{"coding question", "how do I reverse a linked list in go", false},
		{"math question", "derive the quadratic formula", false},
		{"case insensitive", "WHO WON the world cup final", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.NeedsLiveData(tt.query))
		})
	}
}

func TestTriggerClassifier_OverlappingMatchesStillBoolean(t *testing.T) {
	classifier := NewTriggerClassifier()

	// Matches relative_time, volatile_domain and result_question at once;
	// the answer is still just true
	query := "who won today's ipl match and what is the score"
	assert.True(t, classifier.NeedsLiveData(query))
	assert.GreaterOrEqual(t, len(classifier.MatchedRules(query)), 2)
}

func TestTriggerClassifier_IsPure(t *testing.T) {
	classifier := NewTriggerClassifier()

	query := "bitcoin price today"
	first := classifier.NeedsLiveData(query)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, classifier.NeedsLiveData(query))
	}
}

func TestTriggerClassifier_CustomRules(t *testing.T) {
	classifier := NewTriggerClassifierWithRules(nil)
	assert.False(t, classifier.NeedsLiveData("weather today"))
}
