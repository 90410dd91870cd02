package ai

import (
	"errors"
	"testing"

	"github.com/edoardosensi/doe-ai-digest/internal/storage"
)

var parseCandidates = []storage.Article{
	{ID: 1, Title: "Derby di Milano", URL: "https://example.com/sport1"},
	{ID: 2, Title: "Finale di tennis", URL: "https://example.com/sport2"},
	{ID: 3, Title: "Nuovo film italiano", URL: "https://example.com/cult1"},
	{ID: 4, Title: "Crisi di governo", URL: "https://example.com/pol1"},
}

var parseEnabled = []string{"Politica", "Sport", "Cultura"}

func TestParseSelectionValid(t *testing.T) {
	raw := `{
		"articles": {
			"Sport": ["https://example.com/sport1", "https://example.com/sport2"],
			"Cultura": ["https://example.com/cult1"],
			"Politica": ["https://example.com/pol1"]
		},
		"userProfile": "Lettore appassionato di sport."
	}`

	sel, err := ParseSelection(raw, parseCandidates, parseEnabled)
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	if len(sel.Articles) != 4 {
		t.Fatalf("expected 4 articles, got %d", len(sel.Articles))
	}
	if sel.Profile != "Lettore appassionato di sport." {
		t.Errorf("profile: got %q", sel.Profile)
	}

	// Output follows enabled-section order, not response-key order.
	if sel.Articles[0].Category != "Politica" {
		t.Errorf("first article section: got %q, want Politica", sel.Articles[0].Category)
	}
	if sel.Articles[1].Category != "Sport" || sel.Articles[2].Category != "Sport" {
		t.Errorf("middle articles should be Sport: got %q, %q", sel.Articles[1].Category, sel.Articles[2].Category)
	}
}

func TestParseSelectionStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"articles\": {\"Sport\": [\"https://example.com/sport1\"]}}\n```"

	sel, err := ParseSelection(raw, parseCandidates, parseEnabled)
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	if len(sel.Articles) != 1 || sel.Articles[0].ID != 1 {
		t.Errorf("fenced payload: got %v", sel.Articles)
	}
}

func TestParseSelectionMissingProfile(t *testing.T) {
	raw := `{"articles": {"Sport": ["https://example.com/sport1"]}}`
	sel, err := ParseSelection(raw, parseCandidates, parseEnabled)
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	if sel.Profile != "" {
		t.Errorf("absent userProfile should stay empty, got %q", sel.Profile)
	}
}

func TestParseSelectionUnknownURLDropped(t *testing.T) {
	raw := `{"articles": {"Sport": ["https://example.com/sport1", "https://evil.example.com/injected"]}}`

	sel, err := ParseSelection(raw, parseCandidates, parseEnabled)
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	if len(sel.Articles) != 1 {
		t.Fatalf("fabricated URL must be dropped: got %v", sel.Articles)
	}
}

func TestParseSelectionDuplicateURLOnce(t *testing.T) {
	raw := `{"articles": {
		"Sport": ["https://example.com/sport1"],
		"Cultura": ["https://example.com/sport1"]
	}}`

	sel, err := ParseSelection(raw, parseCandidates, parseEnabled)
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	if len(sel.Articles) != 1 {
		t.Fatalf("duplicate URL must appear once: got %v", sel.Articles)
	}
	if sel.Articles[0].Category != "Sport" {
		t.Errorf("duplicate keeps its first enabled section: got %q", sel.Articles[0].Category)
	}
}

func TestParseSelectionDisabledSectionIgnored(t *testing.T) {
	raw := `{"articles": {
		"Sport": ["https://example.com/sport1"],
		"Gossip": ["https://example.com/cult1"]
	}}`

	sel, err := ParseSelection(raw, parseCandidates, parseEnabled)
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	for _, a := range sel.Articles {
		if a.Category == "Gossip" {
			t.Fatal("section outside the enabled list leaked into the output")
		}
	}
}

func TestParseSelectionErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"prose", "Ecco la mia selezione: articoli di sport e cultura", ErrParse},
		{"truncated json", `{"articles": {"Sport": ["https://exam`, ErrParse},
		{"top-level array", `[1, 2, 3]`, ErrShape},
		{"missing articles key", `{"userProfile": "ciao"}`, ErrShape},
		{"articles not object", `{"articles": ["https://example.com/sport1"]}`, ErrShape},
		{"section not array", `{"articles": {"Sport": "https://example.com/sport1"}}`, ErrShape},
		{"non-string entry", `{"articles": {"Sport": [42]}}`, ErrShape},
		{"profile not string", `{"articles": {"Sport": []}, "userProfile": {"text": "x"}}`, ErrShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSelection(tt.raw, parseCandidates, parseEnabled)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseSelectionEmptySections(t *testing.T) {
	raw := `{"articles": {"Sport": [], "Cultura": []}}`
	sel, err := ParseSelection(raw, parseCandidates, parseEnabled)
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	if len(sel.Articles) != 0 {
		t.Errorf("empty sections should yield no articles, got %v", sel.Articles)
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"{}", "{}"},
		{"  {}  ", "{}"},
	}
	for _, tt := range tests {
		if got := stripCodeFences(tt.in); got != tt.want {
			t.Errorf("stripCodeFences(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}
