package services

import (
	"regexp"
	"strings"
)

// TriggerRule is one pattern of the live-data heuristic. Rules are data so
// they can be tested and extended without touching control flow.
type TriggerRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// defaultTriggerRules covers the query classes that go stale without live
// data. Matching is case-insensitive; a query needs live data if any rule
// matches.
var defaultTriggerRules = []TriggerRule{
	{
		Name:    "relative_time",
		Pattern: regexp.MustCompile(`(?i)\b(today|tonight|now|right now|currently|latest|breaking|recent(ly)?|this (week|month|year|morning|evening))\b`),
	},
	{
		Name:    "year_reference",
		Pattern: regexp.MustCompile(`(?i)\b20(2[4-9]|3[0-9])\b`),
	},
	{
		Name:    "result_question",
		Pattern: regexp.MustCompile(`(?i)\b(who (won|is winning)|what('s| is| was) the (score|result)|final score|match result)\b`),
	},
	{
		Name:    "volatile_domain",
		Pattern: regexp.MustCompile(`(?i)\b(stock|share price|sensex|nifty|crypto|bitcoin|exchange rate|weather|forecast|temperature|election|poll(s)?|ipl|match|tournament|fixture)\b`),
	},
	{
		Name:    "just_happened",
		Pattern: regexp.MustCompile(`(?i)\bjust (announced|released|launched|happened|dropped)\b`),
	},
}

// TriggerClassifier decides whether a user query needs live web data
type TriggerClassifier struct {
	rules []TriggerRule
}

// NewTriggerClassifier creates a classifier with the default rule set
func NewTriggerClassifier() *TriggerClassifier {
	return &TriggerClassifier{rules: defaultTriggerRules}
}

// NewTriggerClassifierWithRules creates a classifier with custom rules
func NewTriggerClassifierWithRules(rules []TriggerRule) *TriggerClassifier {
	return &TriggerClassifier{rules: rules}
}

// NeedsLiveData reports whether the query matches at least one rule. The
// predicate is pure: it depends on the query text only.
func (c *TriggerClassifier) NeedsLiveData(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}
	for _, rule := range c.rules {
		if rule.Pattern.MatchString(query) {
			return true
		}
	}
	return false
}

// MatchedRules returns the names of all rules the query matches, for
// logging. OR semantics only; the count never changes the decision.
func (c *TriggerClassifier) MatchedRules(query string) []string {
	var matched []string
	for _, rule := range c.rules {
		if rule.Pattern.MatchString(query) {
			matched = append(matched, rule.Name)
		}
	}
	return matched
}
