package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func addArticle(t *testing.T, store *SQLiteStore, title, url string, published time.Time) int64 {
	t.Helper()
	stored, err := store.UpsertArticle(&Article{
		Title:       title,
		URL:         url,
		Source:      "Test",
		PublishedAt: &published,
	})
	if err != nil {
		t.Fatalf("UpsertArticle: %v", err)
	}
	if !stored {
		t.Fatalf("article %s was not stored", url)
	}
	a, err := store.GetRecentArticles(100)
	if err != nil {
		t.Fatalf("GetRecentArticles: %v", err)
	}
	for _, got := range a {
		if got.URL == url {
			return got.ID
		}
	}
	t.Fatalf("stored article %s not found", url)
	return 0
}

func TestNewSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	if store.db == nil {
		t.Fatal("database connection is nil")
	}
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateUser("edoardo")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if id == 0 {
		t.Fatal("user ID should not be 0")
	}

	u, err := store.GetUserByName("edoardo")
	if err != nil {
		t.Fatalf("GetUserByName: %v", err)
	}
	if u.ID != id {
		t.Errorf("ID mismatch: got %d, want %d", u.ID, id)
	}

	if _, err := store.CreateUser("anna"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	users, err := store.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].Name != "anna" {
		t.Errorf("users should be sorted by name, got %s first", users[0].Name)
	}
}

func TestAddFeedIdempotent(t *testing.T) {
	store := newTestStore(t)

	id1, err := store.AddFeed("https://example.com/rss", "Example")
	if err != nil {
		t.Fatalf("AddFeed: %v", err)
	}
	id2, err := store.AddFeed("https://example.com/rss", "Example")
	if err != nil {
		t.Fatalf("AddFeed again: %v", err)
	}
	if id1 != id2 {
		t.Errorf("re-adding a feed should return the same ID: %d vs %d", id1, id2)
	}

	feeds, err := store.GetEnabledFeeds()
	if err != nil {
		t.Fatalf("GetEnabledFeeds: %v", err)
	}
	if len(feeds) != 1 {
		t.Fatalf("expected 1 feed, got %d", len(feeds))
	}
}

func TestFeedErrorTracking(t *testing.T) {
	store := newTestStore(t)

	id, err := store.AddFeed("https://example.com/rss", "Example")
	if err != nil {
		t.Fatalf("AddFeed: %v", err)
	}

	if err := store.UpdateFeedError(id, "status 500"); err != nil {
		t.Fatalf("UpdateFeedError: %v", err)
	}
	feeds, _ := store.GetEnabledFeeds()
	if feeds[0].LastError == nil || *feeds[0].LastError != "status 500" {
		t.Errorf("last_error not recorded: %v", feeds[0].LastError)
	}

	if err := store.ClearFeedError(id); err != nil {
		t.Fatalf("ClearFeedError: %v", err)
	}
	feeds, _ = store.GetEnabledFeeds()
	if feeds[0].LastError != nil {
		t.Errorf("last_error not cleared: %v", *feeds[0].LastError)
	}
}

func TestUpsertArticleDuplicateIgnored(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	stored, err := store.UpsertArticle(&Article{Title: "Prima", URL: "https://example.com/a", Source: "Test", PublishedAt: &now})
	if err != nil {
		t.Fatalf("UpsertArticle: %v", err)
	}
	if !stored {
		t.Fatal("first insert should store a row")
	}

	stored, err = store.UpsertArticle(&Article{Title: "Titolo diverso", URL: "https://example.com/a", Source: "Test", PublishedAt: &now})
	if err != nil {
		t.Fatalf("UpsertArticle duplicate: %v", err)
	}
	if stored {
		t.Fatal("duplicate URL should be ignored")
	}

	articles, err := store.GetRecentArticles(10)
	if err != nil {
		t.Fatalf("GetRecentArticles: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Title != "Prima" {
		t.Errorf("original row was overwritten: got %q", articles[0].Title)
	}
}

func TestGetRecentArticlesOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		addArticle(t, store, "Articolo", "https://example.com/"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour))
	}

	articles, err := store.GetRecentArticles(3)
	if err != nil {
		t.Fatalf("GetRecentArticles: %v", err)
	}
	if len(articles) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(articles))
	}
	if articles[0].URL != "https://example.com/e" {
		t.Errorf("newest article should come first, got %s", articles[0].URL)
	}
}

func TestClickHistory(t *testing.T) {
	store := newTestStore(t)
	uid, _ := store.CreateUser("edoardo")
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	id1 := addArticle(t, store, "Primo", "https://example.com/1", base)
	id2 := addArticle(t, store, "Secondo", "https://example.com/2", base.Add(time.Hour))

	if _, err := store.AddClick(uid, id1); err != nil {
		t.Fatalf("AddClick: %v", err)
	}
	if _, err := store.AddClick(uid, id2); err != nil {
		t.Fatalf("AddClick: %v", err)
	}

	history, err := store.GetClickHistory(uid, 10)
	if err != nil {
		t.Fatalf("GetClickHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 clicks, got %d", len(history))
	}
	// Newest first; both clicks share the same second so the row ID breaks
	// the tie.
	if history[0].ArticleID != id2 {
		t.Errorf("most recent click first: got article %d", history[0].ArticleID)
	}
	if history[0].Title != "Secondo" {
		t.Errorf("history should join article metadata: got %q", history[0].Title)
	}

	limited, err := store.GetClickHistory(uid, 1)
	if err != nil {
		t.Fatalf("GetClickHistory limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit not applied: got %d", len(limited))
	}
}

func TestDeleteClickScopedToUser(t *testing.T) {
	store := newTestStore(t)
	owner, _ := store.CreateUser("edoardo")
	other, _ := store.CreateUser("anna")
	aid := addArticle(t, store, "Articolo", "https://example.com/1", time.Now())

	clickID, err := store.AddClick(owner, aid)
	if err != nil {
		t.Fatalf("AddClick: %v", err)
	}

	// Another user cannot delete this click.
	if err := store.DeleteClick(other, clickID); err != nil {
		t.Fatalf("DeleteClick: %v", err)
	}
	history, _ := store.GetClickHistory(owner, 10)
	if len(history) != 1 {
		t.Fatal("click deleted by the wrong user")
	}

	if err := store.DeleteClick(owner, clickID); err != nil {
		t.Fatalf("DeleteClick: %v", err)
	}
	history, _ = store.GetClickHistory(owner, 10)
	if len(history) != 0 {
		t.Fatal("click not deleted by its owner")
	}
}

func TestProfileLifecycle(t *testing.T) {
	store := newTestStore(t)
	uid, _ := store.CreateUser("edoardo")

	// No row yet: zero-valued profile, not an error.
	p, err := store.GetProfile(uid)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.CustomProfile != "" || p.Provenance != "" {
		t.Errorf("expected zero profile, got %+v", p)
	}

	if err := store.SetProfile(uid, "Appassionato di tennis", ProvenanceAI); err != nil {
		t.Fatalf("SetProfile: %v", err)
	}
	p, _ = store.GetProfile(uid)
	if p.CustomProfile != "Appassionato di tennis" || p.Provenance != ProvenanceAI {
		t.Errorf("AI profile: got %+v", p)
	}

	// A user edit replaces both text and provenance in one write.
	if err := store.SetProfile(uid, "Solo sport", ProvenanceUser); err != nil {
		t.Fatalf("SetProfile: %v", err)
	}
	p, _ = store.GetProfile(uid)
	if p.CustomProfile != "Solo sport" || p.Provenance != ProvenanceUser {
		t.Errorf("user profile: got %+v", p)
	}

	if err := store.ClearProfile(uid); err != nil {
		t.Fatalf("ClearProfile: %v", err)
	}
	p, _ = store.GetProfile(uid)
	if p.CustomProfile != "" || p.Provenance != "" {
		t.Errorf("cleared profile: got %+v", p)
	}
}

func TestSetInterestsKeepsProfile(t *testing.T) {
	store := newTestStore(t)
	uid, _ := store.CreateUser("edoardo")

	if err := store.SetProfile(uid, "Appassionato di tennis", ProvenanceAI); err != nil {
		t.Fatalf("SetProfile: %v", err)
	}
	if err := store.SetInterests(uid, "tennis, vela"); err != nil {
		t.Fatalf("SetInterests: %v", err)
	}

	p, _ := store.GetProfile(uid)
	if p.CustomProfile != "Appassionato di tennis" {
		t.Errorf("interests write clobbered the profile: %+v", p)
	}
	if p.Interests != "tennis, vela" {
		t.Errorf("interests: got %q", p.Interests)
	}
}

func TestSectionPreferences(t *testing.T) {
	store := newTestStore(t)
	uid, _ := store.CreateUser("edoardo")

	prefs, err := store.GetSectionPreferences(uid)
	if err != nil {
		t.Fatalf("GetSectionPreferences: %v", err)
	}
	if len(prefs) != 0 {
		t.Fatalf("expected no rows, got %d", len(prefs))
	}

	if err := store.SetSectionEnabled(uid, "Sport", false); err != nil {
		t.Fatalf("SetSectionEnabled: %v", err)
	}
	if err := store.SetSectionEnabled(uid, "Economia", true); err != nil {
		t.Fatalf("SetSectionEnabled: %v", err)
	}
	// Toggling the same section updates the row.
	if err := store.SetSectionEnabled(uid, "Sport", true); err != nil {
		t.Fatalf("SetSectionEnabled: %v", err)
	}

	prefs, _ = store.GetSectionPreferences(uid)
	if len(prefs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(prefs))
	}
	state := make(map[string]bool)
	for _, p := range prefs {
		state[p.Section] = p.Enabled
	}
	if !state["Sport"] || !state["Economia"] {
		t.Errorf("preferences: got %v", state)
	}
}

func TestSavedArticles(t *testing.T) {
	store := newTestStore(t)
	uid, _ := store.CreateUser("edoardo")
	aid := addArticle(t, store, "Articolo", "https://example.com/1", time.Now())

	if err := store.SaveArticle(uid, aid); err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}
	// Saving twice is a no-op.
	if err := store.SaveArticle(uid, aid); err != nil {
		t.Fatalf("SaveArticle again: %v", err)
	}

	saved, err := store.GetSavedArticles(uid)
	if err != nil {
		t.Fatalf("GetSavedArticles: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved article, got %d", len(saved))
	}

	if err := store.UnsaveArticle(uid, aid); err != nil {
		t.Fatalf("UnsaveArticle: %v", err)
	}
	saved, _ = store.GetSavedArticles(uid)
	if len(saved) != 0 {
		t.Fatalf("expected 0 saved articles, got %d", len(saved))
	}
}
