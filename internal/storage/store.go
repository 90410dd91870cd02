package storage

// Store defines the storage interface for the digest data layer.
type Store interface {
	Close() error

	// Users
	CreateUser(name string) (int64, error)
	GetUserByName(name string) (*User, error)
	ListUsers() ([]User, error)

	// Feeds
	AddFeed(url, source string) (int64, error)
	GetEnabledFeeds() ([]Feed, error)
	RemoveFeed(feedID int64) error
	UpdateFeedError(feedID int64, errMsg string) error
	ClearFeedError(feedID int64) error

	// Articles
	UpsertArticle(a *Article) (bool, error)
	GetRecentArticles(limit int) ([]Article, error)
	GetArticle(articleID int64) (*Article, error)

	// Click history
	AddClick(userID, articleID int64) (int64, error)
	DeleteClick(userID, clickID int64) error
	GetClickHistory(userID int64, limit int) ([]ClickedArticle, error)

	// Profiles
	GetProfile(userID int64) (*Profile, error)
	SetProfile(userID int64, text, provenance string) error
	ClearProfile(userID int64) error
	SetInterests(userID int64, interests string) error

	// Section preferences
	GetSectionPreferences(userID int64) ([]SectionPreference, error)
	SetSectionEnabled(userID int64, section string, enabled bool) error

	// Saved articles
	SaveArticle(userID, articleID int64) error
	UnsaveArticle(userID, articleID int64) error
	GetSavedArticles(userID int64) ([]Article, error)
}

var _ Store = (*SQLiteStore)(nil)
