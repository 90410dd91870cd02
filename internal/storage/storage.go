package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Provenance records who last wrote a profile's text. The engine writes
// ProvenanceAI on every learning cycle; the profile-edit surface writes
// ProvenanceUser. Legacy rows carry the empty string.
const (
	ProvenanceAI   = "ai"
	ProvenanceUser = "user"
)

type User struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

type Feed struct {
	ID          int64
	URL         string
	Source      string
	Enabled     bool
	LastFetched *time.Time
	LastError   *string
	CreatedAt   time.Time
}

type Article struct {
	ID          int64
	Title       string
	Description string
	URL         string
	Source      string
	ImageURL    string
	PublishedAt *time.Time
	FetchedAt   time.Time

	// Category is a per-response annotation assigned during a recommendation
	// cycle. It is never persisted; two users may see the same article under
	// different sections.
	Category string
}

// ClickedArticle is one entry of a user's click history, joined with the
// clicked article's metadata.
type ClickedArticle struct {
	ClickID   int64
	ArticleID int64
	ClickedAt time.Time
	Title     string
	Description string
	URL       string
	Source    string
}

type Profile struct {
	UserID        int64
	CustomProfile string
	Provenance    string
	Interests     string
	DisplayName   string
	UpdatedAt     time.Time
}

type SectionPreference struct {
	Section string
	Enabled bool
}

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and initializes
// the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	// Migrations for databases created before the provenance column existed.
	migrations := []string{
		"ALTER TABLE profiles ADD COLUMN provenance TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE articles ADD COLUMN image_url TEXT",
	}
	for _, m := range migrations {
		db.Exec(m) // ignore "duplicate column" errors
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Users ---

func (s *SQLiteStore) CreateUser(name string) (int64, error) {
	res, err := s.db.Exec("INSERT INTO users (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetUserByName(name string) (*User, error) {
	var u User
	err := s.db.QueryRow(
		"SELECT id, name, created_at FROM users WHERE name = ?", name,
	).Scan(&u.ID, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStore) ListUsers() ([]User, error) {
	rows, err := s.db.Query("SELECT id, name, created_at FROM users ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- Feeds ---

func (s *SQLiteStore) AddFeed(url, source string) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO feeds (url, source) VALUES (?, ?) ON CONFLICT(url) DO NOTHING",
		url, source,
	)
	if err != nil {
		return 0, fmt.Errorf("add feed: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		if n, _ := res.RowsAffected(); n > 0 {
			return id, nil
		}
	}
	var id int64
	err = s.db.QueryRow("SELECT id FROM feeds WHERE url = ?", url).Scan(&id)
	return id, err
}

func (s *SQLiteStore) GetEnabledFeeds() ([]Feed, error) {
	rows, err := s.db.Query(
		`SELECT id, url, source, enabled, last_fetched, last_error, created_at
		 FROM feeds WHERE enabled = 1 ORDER BY source`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		var f Feed
		if err := rows.Scan(&f.ID, &f.URL, &f.Source, &f.Enabled, &f.LastFetched, &f.LastError, &f.CreatedAt); err != nil {
			return nil, err
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

func (s *SQLiteStore) RemoveFeed(feedID int64) error {
	_, err := s.db.Exec("DELETE FROM feeds WHERE id = ?", feedID)
	return err
}

func (s *SQLiteStore) UpdateFeedError(feedID int64, errMsg string) error {
	_, err := s.db.Exec(
		"UPDATE feeds SET last_error = ?, last_fetched = CURRENT_TIMESTAMP WHERE id = ?",
		errMsg, feedID,
	)
	return err
}

func (s *SQLiteStore) ClearFeedError(feedID int64) error {
	_, err := s.db.Exec(
		"UPDATE feeds SET last_error = NULL, last_fetched = CURRENT_TIMESTAMP WHERE id = ?",
		feedID,
	)
	return err
}

// --- Articles ---

// UpsertArticle inserts an article keyed on its URL. Duplicates are ignored;
// the returned bool reports whether a new row was stored.
func (s *SQLiteStore) UpsertArticle(a *Article) (bool, error) {
	res, err := s.db.Exec(
		`INSERT INTO articles (title, description, url, source, image_url, published_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO NOTHING`,
		a.Title, a.Description, a.URL, a.Source, nullable(a.ImageURL), a.PublishedAt,
	)
	if err != nil {
		return false, fmt.Errorf("upsert article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetRecentArticles returns up to limit articles, newest first.
func (s *SQLiteStore) GetRecentArticles(limit int) ([]Article, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, url, source, COALESCE(image_url, ''), published_at, fetched_at
		 FROM articles ORDER BY published_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanArticles(rows)
}

func (s *SQLiteStore) GetArticle(articleID int64) (*Article, error) {
	var a Article
	var desc sql.NullString
	err := s.db.QueryRow(
		`SELECT id, title, description, url, source, COALESCE(image_url, ''), published_at, fetched_at
		 FROM articles WHERE id = ?`, articleID,
	).Scan(&a.ID, &a.Title, &desc, &a.URL, &a.Source, &a.ImageURL, &a.PublishedAt, &a.FetchedAt)
	if err != nil {
		return nil, err
	}
	a.Description = desc.String
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		var desc sql.NullString
		if err := rows.Scan(&a.ID, &a.Title, &desc, &a.URL, &a.Source, &a.ImageURL, &a.PublishedAt, &a.FetchedAt); err != nil {
			return nil, err
		}
		a.Description = desc.String
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// --- Click history ---

func (s *SQLiteStore) AddClick(userID, articleID int64) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO user_clicks (user_id, article_id) VALUES (?, ?)",
		userID, articleID,
	)
	if err != nil {
		return 0, fmt.Errorf("record click: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) DeleteClick(userID, clickID int64) error {
	_, err := s.db.Exec(
		"DELETE FROM user_clicks WHERE id = ? AND user_id = ?", clickID, userID,
	)
	return err
}

// GetClickHistory returns up to limit click events for a user, newest first,
// joined with the clicked article.
func (s *SQLiteStore) GetClickHistory(userID int64, limit int) ([]ClickedArticle, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.article_id, c.clicked_at,
		        a.title, COALESCE(a.description, ''), a.url, a.source
		 FROM user_clicks c
		 JOIN articles a ON a.id = c.article_id
		 WHERE c.user_id = ?
		 ORDER BY c.clicked_at DESC, c.id DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []ClickedArticle
	for rows.Next() {
		var ca ClickedArticle
		if err := rows.Scan(&ca.ClickID, &ca.ArticleID, &ca.ClickedAt, &ca.Title, &ca.Description, &ca.URL, &ca.Source); err != nil {
			return nil, err
		}
		history = append(history, ca)
	}
	return history, rows.Err()
}

// --- Profiles ---

// GetProfile returns the stored profile for a user. A user with no profile
// row gets a zero-valued profile, not an error.
func (s *SQLiteStore) GetProfile(userID int64) (*Profile, error) {
	p := Profile{UserID: userID}
	var custom, interests, display sql.NullString
	err := s.db.QueryRow(
		`SELECT custom_profile, provenance, interests, display_name, updated_at
		 FROM profiles WHERE user_id = ?`, userID,
	).Scan(&custom, &p.Provenance, &interests, &display, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return &p, nil
	}
	if err != nil {
		return nil, err
	}
	p.CustomProfile = custom.String
	p.Interests = interests.String
	p.DisplayName = display.String
	return &p, nil
}

// SetProfile writes the profile text together with its provenance tag. The
// two always change in the same statement so a profile can never carry a
// stale tag.
func (s *SQLiteStore) SetProfile(userID int64, text, provenance string) error {
	_, err := s.db.Exec(
		`INSERT INTO profiles (user_id, custom_profile, provenance, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET
		   custom_profile = excluded.custom_profile,
		   provenance = excluded.provenance,
		   updated_at = CURRENT_TIMESTAMP`,
		userID, text, provenance,
	)
	return err
}

// ClearProfile removes the profile text, reverting the user to the
// behavior-driven default.
func (s *SQLiteStore) ClearProfile(userID int64) error {
	_, err := s.db.Exec(
		`UPDATE profiles SET custom_profile = NULL, provenance = '', updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ?`, userID,
	)
	return err
}

func (s *SQLiteStore) SetInterests(userID int64, interests string) error {
	_, err := s.db.Exec(
		`INSERT INTO profiles (user_id, interests, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET
		   interests = excluded.interests,
		   updated_at = CURRENT_TIMESTAMP`,
		userID, interests,
	)
	return err
}

// --- Section preferences ---

// GetSectionPreferences returns the explicit rows for a user, in no
// particular order. Callers apply catalog defaults when the result is empty.
func (s *SQLiteStore) GetSectionPreferences(userID int64) ([]SectionPreference, error) {
	rows, err := s.db.Query(
		"SELECT section, enabled FROM user_sections WHERE user_id = ?", userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []SectionPreference
	for rows.Next() {
		var p SectionPreference
		if err := rows.Scan(&p.Section, &p.Enabled); err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

func (s *SQLiteStore) SetSectionEnabled(userID int64, section string, enabled bool) error {
	_, err := s.db.Exec(
		`INSERT INTO user_sections (user_id, section, enabled) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, section) DO UPDATE SET enabled = excluded.enabled`,
		userID, section, enabled,
	)
	return err
}

// --- Saved articles ---

func (s *SQLiteStore) SaveArticle(userID, articleID int64) error {
	_, err := s.db.Exec(
		`INSERT INTO saved_articles (user_id, article_id) VALUES (?, ?)
		 ON CONFLICT(user_id, article_id) DO NOTHING`,
		userID, articleID,
	)
	return err
}

func (s *SQLiteStore) UnsaveArticle(userID, articleID int64) error {
	_, err := s.db.Exec(
		"DELETE FROM saved_articles WHERE user_id = ? AND article_id = ?",
		userID, articleID,
	)
	return err
}

func (s *SQLiteStore) GetSavedArticles(userID int64) ([]Article, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.title, a.description, a.url, a.source, COALESCE(a.image_url, ''), a.published_at, a.fetched_at
		 FROM saved_articles sa
		 JOIN articles a ON a.id = sa.article_id
		 WHERE sa.user_id = ?
		 ORDER BY sa.saved_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanArticles(rows)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
