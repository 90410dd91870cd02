package digest

import (
	"time"

	"github.com/edoardosensi/doe-ai-digest/internal/ai"
)

// EngineConfig configures the digest recommendation engine.
type EngineConfig struct {
	DBPath string

	// Reasoner overrides the constructed reasoning client. Used by tests and
	// by callers that manage their own backend.
	Reasoner ai.Reasoner

	ReasonerBackend string // "gateway" (default) or "ollama"
	GatewayBaseURL  string
	GatewayAPIKey   string
	GatewayModel    string
	OllamaBaseURL   string
	OllamaModel     string

	ReasonerTimeout time.Duration
	MinClickHistory int
	PerSection      int
}

// User represents a registered reader.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Article is a stored news article. Category is filled per recommendation
// cycle and is never persisted.
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	ImageURL    string     `json:"image_url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Category    string     `json:"category,omitempty"`
}

// Feed is one source in the ingestion catalog.
type Feed struct {
	ID          int64      `json:"id"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	LastFetched *time.Time `json:"last_fetched,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// ClickedArticle is one entry of a user's reading history.
type ClickedArticle struct {
	ClickID   int64     `json:"click_id"`
	ArticleID int64     `json:"article_id"`
	ClickedAt time.Time `json:"clicked_at"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Source    string    `json:"source"`
}

// Profile is a user's interest profile ("the bubble").
type Profile struct {
	Text         string    `json:"text"`
	UserAuthored bool      `json:"user_authored"`
	Interests    string    `json:"interests,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SectionStatus reports one catalog section and whether the user has it
// enabled.
type SectionStatus struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// RecommendationResult is the engine's output for one recommendation cycle.
type RecommendationResult struct {
	Articles    []Article `json:"articles"`
	UserProfile string    `json:"userProfile"`
	// Advisory is set when the reasoning service was unusable and the
	// deterministic fallback produced the selection.
	Advisory string `json:"advisory,omitempty"`
}

// FetchResult summarizes one ingestion cycle.
type FetchResult struct {
	FeedsTotal   int `json:"feeds_total"`
	FeedsFetched int `json:"feeds_fetched"`
	FeedsErrored int `json:"feeds_errored"`
	NewArticles  int `json:"new_articles"`
}
