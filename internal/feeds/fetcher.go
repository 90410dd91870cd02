// Package feeds ingests the RSS catalog into the shared article store. The
// recommendation engine only ever reads the resulting articles; it never
// drives ingestion itself.
package feeds

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/edoardosensi/doe-ai-digest/internal/storage"
)

// CatalogFeed is one entry of the built-in feed catalog.
type CatalogFeed struct {
	Source string
	URL    string
}

// DefaultCatalog lists the Italian news feeds the store is seeded with.
var DefaultCatalog = []CatalogFeed{
	{"Repubblica", "https://www.repubblica.it/rss/homepage/rss2.0.xml"},
	{"Corriere della Sera", "https://www.corriere.it/rss/homepage.xml"},
	{"ANSA", "https://www.ansa.it/sito/ansait_rss.xml"},
	{"Repubblica Sport", "https://www.repubblica.it/rss/sport/rss2.0.xml"},
	{"Corriere Sport", "https://www.corriere.it/rss/sport.xml"},
	{"La Gazzetta dello Sport", "https://www.gazzetta.it/rss/home.xml"},
	{"Sky Sport", "https://sport.sky.it/rss/sport.xml"},
	{"Repubblica Spettacoli", "https://www.repubblica.it/rss/spettacoli/rss2.0.xml"},
	{"Corriere Spettacoli", "https://www.corriere.it/rss/spettacoli.xml"},
	{"ANSA Cultura", "https://www.ansa.it/sito/notizie/cultura/cultura_rss.xml"},
	{"ANSA Politica", "https://www.ansa.it/sito/notizie/politica/politica_rss.xml"},
	{"Repubblica Politica", "https://www.repubblica.it/rss/politica/rss2.0.xml"},
}

const (
	maxItemsPerFeed    = 10
	maxDescriptionLen  = 200
	perFeedTimeout     = 20 * time.Second
	fetchRatePerSecond = 4
)

// Stats summarizes one ingestion cycle.
type Stats struct {
	FeedsTotal   int
	FeedsFetched int
	FeedsErrored int
	NewArticles  int
}

type Fetcher struct {
	client  *http.Client
	store   storage.Store
	policy  *bluemonday.Policy
	limiter *rate.Limiter
}

func NewFetcher(store storage.Store) *Fetcher {
	return &Fetcher{
		client:  &http.Client{},
		store:   store,
		policy:  bluemonday.StrictPolicy(),
		limiter: rate.NewLimiter(rate.Limit(fetchRatePerSecond), fetchRatePerSecond),
	}
}

// SeedCatalog upserts the built-in feed catalog into the store. Existing
// rows are left untouched.
func (f *Fetcher) SeedCatalog() error {
	for _, cf := range DefaultCatalog {
		if _, err := f.store.AddFeed(cf.URL, cf.Source); err != nil {
			return fmt.Errorf("seed feed %s: %w", cf.Source, err)
		}
	}
	return nil
}

// FetchAll fetches every enabled feed concurrently, joins the results, and
// upserts articles keyed on URL with duplicate-ignore semantics. Individual
// feed failures are recorded on the feed row and never fail the cycle.
func (f *Fetcher) FetchAll(ctx context.Context) (*Stats, error) {
	feeds, err := f.store.GetEnabledFeeds()
	if err != nil {
		return nil, fmt.Errorf("load feeds: %w", err)
	}

	stats := &Stats{FeedsTotal: len(feeds)}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, feed := range feeds {
		wg.Add(1)
		go func(feed storage.Feed) {
			defer wg.Done()

			if err := f.limiter.Wait(ctx); err != nil {
				return
			}

			feedCtx, cancel := context.WithTimeout(ctx, perFeedTimeout)
			articles, err := f.fetchFeed(feedCtx, feed)
			cancel()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("digest: feed %s: %v", feed.Source, err)
				stats.FeedsErrored++
				f.store.UpdateFeedError(feed.ID, err.Error())
				return
			}
			stats.FeedsFetched++
			f.store.ClearFeedError(feed.ID)
			for i := range articles {
				if stored, err := f.store.UpsertArticle(&articles[i]); err == nil && stored {
					stats.NewArticles++
				}
			}
		}(feed)
	}
	wg.Wait()

	return stats, nil
}

// fetchFeed downloads and parses a single feed, returning at most
// maxItemsPerFeed normalized articles.
func (f *Fetcher) fetchFeed(ctx context.Context, feed storage.Feed) ([]storage.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "doe-ai-digest/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	var articles []storage.Article
	for _, item := range parsed.Items {
		if len(articles) >= maxItemsPerFeed {
			break
		}
		if item.Title == "" || item.Link == "" {
			continue
		}

		published := time.Now()
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}
		pub := published

		articles = append(articles, storage.Article{
			Title:       strings.TrimSpace(f.policy.Sanitize(item.Title)),
			Description: f.cleanDescription(item.Description),
			URL:         strings.TrimSpace(item.Link),
			Source:      feed.Source,
			ImageURL:    imageFromItem(item),
			PublishedAt: &pub,
		})
	}

	return articles, nil
}

// cleanDescription strips markup from an item description and bounds its
// length.
func (f *Fetcher) cleanDescription(desc string) string {
	clean := strings.TrimSpace(f.policy.Sanitize(desc))
	if len(clean) > maxDescriptionLen {
		clean = clean[:maxDescriptionLen]
	}
	return strings.TrimSpace(clean)
}

// imageFromItem finds an article image: the item's own image, an image
// enclosure, a media:content/media:thumbnail extension, or the first <img>
// embedded in the description HTML.
func imageFromItem(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	if media, ok := item.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, ext := range media[key] {
				if url := ext.Attrs["url"]; url != "" {
					return url
				}
			}
		}
	}
	if item.Description != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(item.Description))
		if err == nil {
			if src, ok := doc.Find("img").First().Attr("src"); ok {
				return src
			}
		}
	}
	return ""
}
