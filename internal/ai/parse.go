package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/edoardosensi/doe-ai-digest/internal/storage"
)

// Parse failures. Both route to the fallback categorizer upstream; neither
// is ever surfaced to the end user.
var (
	// ErrParse marks replies that are not valid JSON after fence stripping.
	ErrParse = errors.New("reasoner reply is not valid JSON")
	// ErrShape marks valid JSON with the wrong structure.
	ErrShape = errors.New("reasoner reply has the wrong shape")
)

// Selection is the validated outcome of a reasoning call: the flattened,
// category-tagged article list plus the returned profile text, if any.
type Selection struct {
	Articles []storage.Article
	Profile  string
}

// ParseSelection validates an untrusted reasoner reply against the candidate
// set. It strips code-fence wrappers, parses the JSON object, checks that
// "articles" maps section names to URL lists and that "userProfile" (if
// present) is a string, then resolves each URL against the candidates. URLs
// with no matching candidate are silently dropped; every matched candidate
// appears exactly once, tagged with the enabled section it was found under.
// Sections outside the enabled list are ignored.
func ParseSelection(raw string, candidates []storage.Article, enabled []string) (*Selection, error) {
	clean := stripCodeFences(raw)

	var top any
	if err := json.Unmarshal([]byte(clean), &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	obj, ok := top.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not an object", ErrShape)
	}

	rawArticles, ok := obj["articles"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"articles\" key", ErrShape)
	}
	sectionMap, ok := rawArticles.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: \"articles\" is not an object", ErrShape)
	}

	urlsBySection := make(map[string][]string, len(sectionMap))
	for section, v := range sectionMap {
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: section %q is not an array", ErrShape, section)
		}
		urls := make([]string, 0, len(list))
		for _, item := range list {
			u, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: section %q contains a non-string entry", ErrShape, section)
			}
			urls = append(urls, u)
		}
		urlsBySection[section] = urls
	}

	sel := &Selection{}
	if rawProfile, ok := obj["userProfile"]; ok && rawProfile != nil {
		p, ok := rawProfile.(string)
		if !ok {
			return nil, fmt.Errorf("%w: \"userProfile\" is not a string", ErrShape)
		}
		sel.Profile = p
	}

	byURL := make(map[string]storage.Article, len(candidates))
	for _, a := range candidates {
		byURL[a.URL] = a
	}

	seen := make(map[string]bool)
	for _, section := range enabled {
		for _, u := range urlsBySection[section] {
			a, ok := byURL[u]
			if !ok || seen[u] {
				continue
			}
			seen[u] = true
			a.Category = section
			sel.Articles = append(sel.Articles, a)
		}
	}

	return sel, nil
}

// stripCodeFences removes markdown code-fence wrappers the model may have
// added around the JSON payload.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
