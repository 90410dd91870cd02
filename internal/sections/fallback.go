package sections

import (
	"strings"

	"github.com/edoardosensi/doe-ai-digest/internal/storage"
)

// Categorize buckets articles into the enabled sections using the keyword
// table, without any external call. It is the deterministic stand-in for the
// reasoning service: first matching section wins; articles matching nothing
// go to whichever non-strict enabled section currently holds the fewest
// articles (ties broken by enabled-list order). Each section is truncated to
// perSection articles, or padded by cyclically repeating its own matches
// when it has at least one but fewer than perSection. Strict sections are
// never padded and never receive leftovers; sections with no matches stay
// empty. Every returned article carries exactly one section in Category.
func (c *Catalog) Categorize(articles []storage.Article, enabled []string, perSection int) []storage.Article {
	if len(enabled) == 0 || perSection <= 0 {
		return nil
	}

	strict := make(map[string]bool, len(enabled))
	rules := make([]Rule, 0, len(enabled))
	for _, r := range c.Rules {
		for _, name := range enabled {
			if r.Name == name {
				rules = append(rules, r)
				strict[name] = r.Strict
			}
		}
	}

	buckets := make(map[string][]storage.Article, len(enabled))

	for _, a := range articles {
		text := strings.ToLower(a.Title + " " + a.Description)

		section := ""
		for _, r := range rules {
			if matchesAny(text, r.Keywords) {
				section = r.Name
				break
			}
		}
		if section == "" {
			section = smallestBucket(buckets, enabled, strict)
		}
		if section == "" {
			continue // every enabled section is strict and nothing matched
		}
		buckets[section] = append(buckets[section], a)
	}

	var out []storage.Article
	for _, name := range enabled {
		matched := buckets[name]
		if len(matched) == 0 {
			continue
		}

		take := matched
		if len(take) > perSection {
			take = take[:perSection]
		}
		selected := make([]storage.Article, 0, perSection)
		selected = append(selected, take...)
		if !strict[name] {
			for len(selected) < perSection {
				selected = append(selected, take[len(selected)%len(take)])
			}
		}

		for _, a := range selected {
			a.Category = name
			out = append(out, a)
		}
	}
	return out
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// smallestBucket returns the non-strict enabled section with the fewest
// articles, preferring earlier sections on ties.
func smallestBucket(buckets map[string][]storage.Article, enabled []string, strict map[string]bool) string {
	best := ""
	for _, name := range enabled {
		if strict[name] {
			continue
		}
		if best == "" || len(buckets[name]) < len(buckets[best]) {
			best = name
		}
	}
	return best
}
