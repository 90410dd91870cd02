package sections

import (
	"fmt"
	"testing"

	"github.com/edoardosensi/doe-ai-digest/internal/storage"
)

func article(id int64, title string) storage.Article {
	return storage.Article{ID: id, Title: title, URL: fmt.Sprintf("https://example.com/%d", id)}
}

func bySection(out []storage.Article) map[string][]storage.Article {
	m := make(map[string][]storage.Article)
	for _, a := range out {
		m[a.Category] = append(m[a.Category], a)
	}
	return m
}

func TestCategorizeKeywordRouting(t *testing.T) {
	c := MustLoad()
	enabled := []string{"Politica estera", "Politica", "Sport", "Cultura"}

	articles := []storage.Article{
		article(1, "Il calcio italiano riparte con la Serie A"),
		article(2, "Nuovo film al cinema questa settimana"),
		article(3, "Il governo approva il decreto"),
		article(4, "La guerra in Ucraina continua"),
	}

	got := bySection(c.Categorize(articles, enabled, 4))

	checks := map[string]int64{
		"Sport":           1,
		"Cultura":         2,
		"Politica":        3,
		"Politica estera": 4,
	}
	for section, id := range checks {
		found := false
		for _, a := range got[section] {
			if a.ID == id {
				found = true
			}
		}
		if !found {
			t.Errorf("article %d not categorized into %s: got %v", id, section, got)
		}
	}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	c := MustLoad()
	enabled := []string{"Politica estera", "Politica", "Sport", "Cultura"}

	// "guerra" (Politica estera) and "governo" (Politica) both match; the
	// catalog orders Politica estera first.
	out := c.Categorize([]storage.Article{
		article(1, "Il governo e la guerra: il dibattito"),
	}, enabled, 4)

	if len(out) == 0 {
		t.Fatal("no output")
	}
	if out[0].Category != "Politica estera" {
		t.Errorf("first matching section should win: got %q", out[0].Category)
	}
}

func TestCategorizeTruncatesToPerSection(t *testing.T) {
	c := MustLoad()
	enabled := []string{"Sport"}

	var articles []storage.Article
	for i := int64(1); i <= 10; i++ {
		articles = append(articles, article(i, fmt.Sprintf("Risultati calcio giornata %d", i)))
	}

	out := c.Categorize(articles, enabled, 4)
	if len(out) != 4 {
		t.Fatalf("expected 4 articles, got %d", len(out))
	}
	// Earliest matches (newest candidates) survive truncation.
	if out[0].ID != 1 || out[3].ID != 4 {
		t.Errorf("truncation changed order: got %v", out)
	}
}

func TestCategorizePadsByCyclicRepetition(t *testing.T) {
	c := MustLoad()
	enabled := []string{"Sport"}

	out := c.Categorize([]storage.Article{
		article(1, "Grande partita di calcio"),
		article(2, "Il tennis a Roma"),
	}, enabled, 4)

	if len(out) != 4 {
		t.Fatalf("expected padding to 4, got %d", len(out))
	}
	wantIDs := []int64{1, 2, 1, 2}
	for i, want := range wantIDs {
		if out[i].ID != want {
			t.Errorf("out[%d].ID: got %d, want %d", i, out[i].ID, want)
		}
	}
}

func TestCategorizeUnmatchedGoesToSmallestSection(t *testing.T) {
	c := MustLoad()
	enabled := []string{"Sport", "Cultura"}

	out := c.Categorize([]storage.Article{
		article(1, "Grande partita di calcio"),
		article(2, "Notizia senza nessuna parola chiave riconoscibile"),
	}, enabled, 4)

	got := bySection(out)
	// Sport already holds article 1 when article 2 arrives, so the unmatched
	// article lands in the emptier Cultura bucket.
	found := false
	for _, a := range got["Cultura"] {
		if a.ID == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("unmatched article should load-balance into Cultura: got %v", got)
	}
}

func TestCategorizeStrictSectionNeverPadded(t *testing.T) {
	c := MustLoad()
	enabled := []string{"Sport", "Filosofia"}

	out := c.Categorize([]storage.Article{
		article(1, "Un saggio di filosofia stoica"),
		article(2, "Grande partita di calcio"),
		article(3, "Notizia generica senza parole chiave"),
	}, enabled, 4)

	got := bySection(out)
	if len(got["Filosofia"]) != 1 {
		t.Errorf("strict section must hold only its genuine match: got %d articles", len(got["Filosofia"]))
	}
	// The unmatched article must not land in the strict section.
	for _, a := range got["Filosofia"] {
		if a.ID == 3 {
			t.Error("load-balanced leftover ended up in a strict section")
		}
	}
}

func TestCategorizeStrictSectionEmptyWithoutMatches(t *testing.T) {
	c := MustLoad()
	enabled := []string{"Sport", "Filosofia"}

	out := c.Categorize([]storage.Article{
		article(1, "Grande partita di calcio"),
	}, enabled, 4)

	for _, a := range out {
		if a.Category == "Filosofia" {
			t.Fatalf("Filosofia received article %d without a keyword match", a.ID)
		}
	}
}

func TestCategorizeEmptyInputs(t *testing.T) {
	c := MustLoad()

	if out := c.Categorize(nil, []string{"Sport"}, 4); len(out) != 0 {
		t.Errorf("no candidates should yield no output, got %v", out)
	}
	if out := c.Categorize([]storage.Article{article(1, "calcio")}, nil, 4); out != nil {
		t.Errorf("no enabled sections should yield nil, got %v", out)
	}
}

func TestCategorizeSingleSectionAssignment(t *testing.T) {
	c := MustLoad()
	enabled := []string{"Politica estera", "Politica", "Sport", "Cultura"}

	var articles []storage.Article
	for i := int64(1); i <= 20; i++ {
		articles = append(articles, article(i, fmt.Sprintf("Notizia %d su calcio e cinema e governo", i)))
	}

	out := c.Categorize(articles, enabled, 4)
	seen := make(map[int64]string)
	for _, a := range out {
		if prev, ok := seen[a.ID]; ok && prev != a.Category {
			t.Errorf("article %d appears under both %s and %s", a.ID, prev, a.Category)
		}
		seen[a.ID] = a.Category
	}
}
