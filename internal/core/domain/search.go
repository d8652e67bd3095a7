package domain

// SearchResponse holds the heterogeneous payload returned by a search
// provider. Every section is optional; a nil pointer or empty slice means
// the provider did not return that section, which is not an error.
type SearchResponse struct {
	AnswerBox        *AnswerBox        `json:"answer_box,omitempty"`
	KnowledgeGraph   *KnowledgeGraph   `json:"knowledge_graph,omitempty"`
	SportsResults    *SportsResults    `json:"sports_results,omitempty"`
	TopStories       []Story           `json:"top_stories,omitempty"`
	Organic          []OrganicResult   `json:"organic_results,omitempty"`
	RelatedQuestions []RelatedQuestion `json:"related_questions,omitempty"`
}

// IsEmpty reports whether no section carries any content
func (r *SearchResponse) IsEmpty() bool {
	if r == nil {
		return true
	}
	return r.AnswerBox == nil &&
		r.KnowledgeGraph == nil &&
		r.SportsResults == nil &&
		len(r.TopStories) == 0 &&
		len(r.Organic) == 0 &&
		len(r.RelatedQuestions) == 0
}

// AnswerBox is the provider's direct-answer section
type AnswerBox struct {
	Title   string `json:"title,omitempty"`
	Answer  string `json:"answer,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Source  string `json:"source,omitempty"`
}

// KnowledgeGraph is the entity card section
type KnowledgeGraph struct {
	Title       string            `json:"title,omitempty"`
	Type        string            `json:"type,omitempty"`
	Description string            `json:"description,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// SportsResults is the live score / fixture section
type SportsResults struct {
	Title    string       `json:"title,omitempty"`
	League   string       `json:"league,omitempty"`
	GameDate string       `json:"game_date,omitempty"`
	Status   string       `json:"status,omitempty"`
	Teams    []SportsTeam `json:"teams,omitempty"`
}

// SportsTeam is one side of a sports result
type SportsTeam struct {
	Name  string `json:"name"`
	Score string `json:"score,omitempty"`
}

// Story is one entry of the top-stories section
type Story struct {
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
	Source string `json:"source,omitempty"`
	Date   string `json:"date,omitempty"`
}

// OrganicResult is one classic web result
type OrganicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
	Date     string `json:"date,omitempty"`
	Position int    `json:"position,omitempty"`
}

// RelatedQuestion is one "people also ask" entry
type RelatedQuestion struct {
	Question string `json:"question"`
	Snippet  string `json:"snippet,omitempty"`
	Link     string `json:"link,omitempty"`
}
