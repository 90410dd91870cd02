// Package digest is the public API for the doe-ai-digest recommendation
// engine: RSS ingestion into a shared article store plus per-user,
// AI-personalized article selection with a deterministic keyword fallback.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/edoardosensi/doe-ai-digest/internal/ai"
	"github.com/edoardosensi/doe-ai-digest/internal/feeds"
	"github.com/edoardosensi/doe-ai-digest/internal/sections"
	"github.com/edoardosensi/doe-ai-digest/internal/storage"
)

const (
	maxCandidates = 100
	maxHistory    = 50

	// Shown instead of a profile while the click history is below the
	// minimum threshold.
	msgNotEnoughData = "Non abbiamo ancora abbastanza dati per creare il tuo profilo. Continua a leggere articoli per permetterci di conoscerti meglio!"

	// Attached to results produced by the keyword fallback.
	msgFallbackAdvisory = "Il servizio di raccomandazione non è al momento disponibile: ecco gli articoli più recenti organizzati per sezione."
)

// Engine wraps the storage, feed fetcher, reasoning client, and section
// catalog behind the recommendation API.
type Engine struct {
	store    storage.Store
	fetcher  *feeds.Fetcher
	reasoner ai.Reasoner
	catalog  *sections.Catalog

	minHistory int
	perSection int
	timeout    time.Duration
}

// NewEngine creates a digest engine backed by the given SQLite database. The
// reasoning client is created eagerly but only contacted on Recommend.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.ReasonerBackend == "" {
		cfg.ReasonerBackend = "gateway"
	}
	if cfg.GatewayModel == "" {
		cfg.GatewayModel = "google/gemini-2.5-flash"
	}
	if cfg.OllamaBaseURL == "" {
		cfg.OllamaBaseURL = "http://localhost:11434"
	}
	if cfg.OllamaModel == "" {
		cfg.OllamaModel = "llama3"
	}
	if cfg.ReasonerTimeout == 0 {
		cfg.ReasonerTimeout = 45 * time.Second
	}
	if cfg.MinClickHistory == 0 {
		cfg.MinClickHistory = 1
	}
	if cfg.PerSection == 0 {
		cfg.PerSection = 4
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	reasoner := cfg.Reasoner
	if reasoner == nil {
		switch cfg.ReasonerBackend {
		case "gateway":
			reasoner = ai.NewGatewayReasoner(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.GatewayModel)
		case "ollama":
			reasoner, err = ai.NewOllamaReasoner(cfg.OllamaBaseURL, cfg.OllamaModel)
			if err != nil {
				store.Close()
				return nil, fmt.Errorf("create ollama reasoner: %w", err)
			}
		default:
			store.Close()
			return nil, fmt.Errorf("unknown reasoner backend %q", cfg.ReasonerBackend)
		}
	}

	fetcher := feeds.NewFetcher(store)
	if err := fetcher.SeedCatalog(); err != nil {
		store.Close()
		return nil, err
	}

	return &Engine{
		store:      store,
		fetcher:    fetcher,
		reasoner:   reasoner,
		catalog:    sections.MustLoad(),
		minHistory: cfg.MinClickHistory,
		perSection: cfg.PerSection,
		timeout:    cfg.ReasonerTimeout,
	}, nil
}

// Close releases all resources held by the engine.
func (e *Engine) Close() error {
	return e.store.Close()
}

// FetchAllFeeds runs one ingestion cycle over the enabled feed catalog.
func (e *Engine) FetchAllFeeds(ctx context.Context) (*FetchResult, error) {
	stats, err := e.fetcher.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return &FetchResult{
		FeedsTotal:   stats.FeedsTotal,
		FeedsFetched: stats.FeedsFetched,
		FeedsErrored: stats.FeedsErrored,
		NewArticles:  stats.NewArticles,
	}, nil
}

// Recommend runs one recommendation cycle for a user: it resolves the
// profile mode, asks the reasoning service for a per-section selection, and
// degrades to the deterministic keyword categorizer whenever the service is
// unreachable, rate-limited, or replies with something unusable. Store
// errors propagate; reasoning errors never do.
func (e *Engine) Recommend(ctx context.Context, userID int64) (*RecommendationResult, error) {
	candidates, err := e.store.GetRecentArticles(maxCandidates)
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	if len(candidates) == 0 {
		return &RecommendationResult{Articles: []Article{}}, nil
	}

	history, err := e.store.GetClickHistory(userID, maxHistory)
	if err != nil {
		return nil, fmt.Errorf("load click history: %w", err)
	}
	profile, err := e.store.GetProfile(userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	prefs, err := e.store.GetSectionPreferences(userID)
	if err != nil {
		return nil, fmt.Errorf("load section preferences: %w", err)
	}
	enabled := e.catalog.ResolveEnabled(prefs)

	mode := ai.SelectMode(profile, len(history), e.minHistory)
	system, user := ai.BuildPrompt(mode, ai.PromptInput{
		History:    history,
		Profile:    profile.CustomProfile,
		Sections:   enabled,
		Candidates: candidates,
		Catalog:    e.catalog,
		PerSection: e.perSection,
	})

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	raw, err := e.reasoner.Complete(callCtx, system, user)
	cancel()
	if err != nil {
		if errors.Is(err, ai.ErrQuotaExceeded) {
			log.Printf("digest: reasoner quota exhausted for user %d, using fallback", userID)
		} else {
			log.Printf("digest: reasoner call failed for user %d: %v", userID, err)
		}
		return e.fallback(candidates, enabled, profile, mode), nil
	}

	sel, err := ai.ParseSelection(raw, candidates, enabled)
	if err != nil {
		log.Printf("digest: unusable reasoner reply for user %d: %v", userID, err)
		return e.fallback(candidates, enabled, profile, mode), nil
	}

	result := &RecommendationResult{Articles: articlesFromInternal(sel.Articles)}

	switch mode {
	case ai.ModeObedience:
		// The user wrote this profile; it is echoed back untouched no matter
		// what the reasoner returned.
		result.UserProfile = profile.CustomProfile
	case ai.ModeLearning:
		result.UserProfile = profile.CustomProfile
		if sel.Profile != "" {
			if err := e.store.SetProfile(userID, sel.Profile, storage.ProvenanceAI); err != nil {
				return nil, fmt.Errorf("persist profile: %w", err)
			}
			result.UserProfile = sel.Profile
		}
	default:
		result.UserProfile = msgNotEnoughData
	}

	return result, nil
}

// fallback produces a complete result without the reasoning service.
func (e *Engine) fallback(candidates []storage.Article, enabled []string, profile *storage.Profile, mode ai.Mode) *RecommendationResult {
	bucketed := e.catalog.Categorize(candidates, enabled, e.perSection)

	result := &RecommendationResult{
		Articles: articlesFromInternal(bucketed),
		Advisory: msgFallbackAdvisory,
	}
	if mode == ai.ModeColdStart || profile.CustomProfile == "" {
		result.UserProfile = msgNotEnoughData
	} else {
		result.UserProfile = profile.CustomProfile
	}
	return result
}

// --- Click history ---

// RecordClick appends an article open to the user's click history.
func (e *Engine) RecordClick(userID, articleID int64) (int64, error) {
	if _, err := e.store.GetArticle(articleID); err != nil {
		return 0, fmt.Errorf("article %d: %w", articleID, err)
	}
	return e.store.AddClick(userID, articleID)
}

// DeleteClick removes one entry from the user's history.
func (e *Engine) DeleteClick(userID, clickID int64) error {
	return e.store.DeleteClick(userID, clickID)
}

// ClickHistory returns the user's most recent clicks, newest first.
func (e *Engine) ClickHistory(userID int64, limit int) ([]ClickedArticle, error) {
	if limit <= 0 || limit > maxHistory {
		limit = maxHistory
	}
	history, err := e.store.GetClickHistory(userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ClickedArticle, len(history))
	for i, h := range history {
		out[i] = ClickedArticle{
			ClickID:   h.ClickID,
			ArticleID: h.ArticleID,
			ClickedAt: h.ClickedAt,
			Title:     h.Title,
			URL:       h.URL,
			Source:    h.Source,
		}
	}
	return out, nil
}

// --- Profile ---

// GetProfile returns the user's profile with its ownership classification.
func (e *Engine) GetProfile(userID int64) (*Profile, error) {
	p, err := e.store.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		Text:         p.CustomProfile,
		UserAuthored: ai.ProfileIsUserAuthored(p),
		Interests:    p.Interests,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}

// SetProfile is the profile-edit surface: the text is stored as
// user-authored and from then on steers selection as a hard constraint.
// An empty text clears the profile, reverting the user to behavior-driven
// recommendations.
func (e *Engine) SetProfile(userID int64, text string) error {
	if text == "" {
		return e.store.ClearProfile(userID)
	}
	return e.store.SetProfile(userID, text, storage.ProvenanceUser)
}

// SetInterests stores the free-text interests shown in the profile dialog.
func (e *Engine) SetInterests(userID int64, interests string) error {
	return e.store.SetInterests(userID, interests)
}

// --- Sections ---

// Sections returns the full catalog with the user's enabled flags applied.
func (e *Engine) Sections(userID int64) ([]SectionStatus, error) {
	prefs, err := e.store.GetSectionPreferences(userID)
	if err != nil {
		return nil, err
	}
	enabled := e.catalog.ResolveEnabled(prefs)
	on := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		on[name] = true
	}

	var out []SectionStatus
	for _, name := range e.catalog.Names() {
		out = append(out, SectionStatus{Name: name, Enabled: on[name]})
	}
	return out, nil
}

// SetSectionEnabled toggles a catalog section for a user.
func (e *Engine) SetSectionEnabled(userID int64, section string, enabled bool) error {
	if !e.catalog.Contains(section) {
		return fmt.Errorf("unknown section %q", section)
	}
	return e.store.SetSectionEnabled(userID, section, enabled)
}

// --- Saved articles ---

func (e *Engine) SaveArticle(userID, articleID int64) error {
	if _, err := e.store.GetArticle(articleID); err != nil {
		return fmt.Errorf("article %d: %w", articleID, err)
	}
	return e.store.SaveArticle(userID, articleID)
}

func (e *Engine) UnsaveArticle(userID, articleID int64) error {
	return e.store.UnsaveArticle(userID, articleID)
}

func (e *Engine) SavedArticles(userID int64) ([]Article, error) {
	articles, err := e.store.GetSavedArticles(userID)
	if err != nil {
		return nil, err
	}
	return articlesFromInternal(articles), nil
}

// --- Feeds ---

// AddFeed registers a feed beyond the built-in catalog. Re-adding an
// existing URL returns the existing feed's ID.
func (e *Engine) AddFeed(url, source string) (int64, error) {
	return e.store.AddFeed(url, source)
}

// RemoveFeed drops a feed from the catalog. Already-fetched articles stay.
func (e *Engine) RemoveFeed(feedID int64) error {
	return e.store.RemoveFeed(feedID)
}

// ListFeeds returns the enabled feed catalog.
func (e *Engine) ListFeeds() ([]Feed, error) {
	feeds, err := e.store.GetEnabledFeeds()
	if err != nil {
		return nil, err
	}
	out := make([]Feed, len(feeds))
	for i, f := range feeds {
		out[i] = Feed{ID: f.ID, URL: f.URL, Source: f.Source, LastFetched: f.LastFetched}
		if f.LastError != nil {
			out[i].LastError = *f.LastError
		}
	}
	return out, nil
}

// --- Users and articles ---

func (e *Engine) CreateUser(name string) (int64, error) {
	return e.store.CreateUser(name)
}

func (e *Engine) ListUsers() ([]User, error) {
	users, err := e.store.ListUsers()
	if err != nil {
		return nil, err
	}
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = User{ID: u.ID, Name: u.Name, CreatedAt: u.CreatedAt}
	}
	return out, nil
}

// ResolveUser maps a user name to its ID.
func (e *Engine) ResolveUser(name string) (int64, error) {
	u, err := e.store.GetUserByName(name)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// RecentArticles returns the newest stored articles without any
// personalization.
func (e *Engine) RecentArticles(limit int) ([]Article, error) {
	if limit <= 0 || limit > maxCandidates {
		limit = maxCandidates
	}
	articles, err := e.store.GetRecentArticles(limit)
	if err != nil {
		return nil, err
	}
	return articlesFromInternal(articles), nil
}

// --- internal type conversion helpers ---

func articleFromInternal(a storage.Article) Article {
	return Article{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		URL:         a.URL,
		Source:      a.Source,
		ImageURL:    a.ImageURL,
		PublishedAt: a.PublishedAt,
		Category:    a.Category,
	}
}

func articlesFromInternal(articles []storage.Article) []Article {
	out := make([]Article, len(articles))
	for i, a := range articles {
		out[i] = articleFromInternal(a)
	}
	return out
}
