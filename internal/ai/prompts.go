package ai

import (
	"fmt"
	"strings"

	"github.com/edoardosensi/doe-ai-digest/internal/sections"
	"github.com/edoardosensi/doe-ai-digest/internal/storage"
)

// PromptInput carries everything prompt construction reads. Candidates and
// history are capped by the orchestrator before they get here.
type PromptInput struct {
	History    []storage.ClickedArticle
	Profile    string
	Sections   []string // enabled sections, catalog order, non-empty
	Candidates []storage.Article
	Catalog    *sections.Catalog
	PerSection int
}

const systemInstruction = `Sei un esperto giornalista italiano specializzato nella categorizzazione di notizie e nella profilazione dei lettori. Analizzi gli articoli letti dall'utente per comprendere i suoi interessi e selezioni contenuti perfettamente allineati. Rispondi SOLO con JSON valido, senza markdown.`

// BuildPrompt renders the system and user instructions for the given mode.
func BuildPrompt(mode Mode, in PromptInput) (system, user string) {
	switch mode {
	case ModeObedience:
		return systemInstruction, obediencePrompt(in)
	case ModeLearning:
		return systemInstruction, learningPrompt(in)
	default:
		return systemInstruction, coldStartPrompt(in)
	}
}

func learningPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("STORICO LETTURE UTENTE (dal più recente):\n")
	b.WriteString(renderHistory(in.History))

	if p := strings.TrimSpace(in.Profile); p != "" {
		b.WriteString("\nPROFILO PRECEDENTE (ipotesi da raffinare, non un vincolo):\n")
		b.WriteString(p)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, `
COMPITO: Analizza i pattern nello storico letture e:
1. Crea un profilo dettagliato dell'utente (3-4 righe) considerando:
   - temi e sotto-temi ricorrenti
   - il taglio editoriale che preferisce
   - il livello di approfondimento che cerca (notizie veloci vs analisi)
   - le fonti di cui si fida
   - come i suoi interessi stanno cambiando nel tempo
   - la motivazione di fondo delle sue letture
2. Seleziona ESATTAMENTE %d articoli per ciascuna di queste sezioni:
%s
CRITERI DI SELEZIONE:
- Priorità assoluta: articoli che matchano gli interessi dimostrati nei click
- Analizza titolo E descrizione per categorizzare correttamente
- Circa tre articoli su quattro in continuità con i temi già letti, il resto
  per far scoprire angoli nuovi ma correlati
- Se ci sono pochi articoli per una sezione, ripeti i migliori disponibili

`, in.PerSection, renderSectionHints(in.Catalog, in.Sections))

	b.WriteString("ARTICOLI DISPONIBILI:\n")
	b.WriteString(renderCandidates(in.Candidates))

	b.WriteString("\nRestituisci SOLO questo JSON (senza markdown):\n")
	b.WriteString(renderFormat(in.Sections, true))
	return b.String()
}

func obediencePrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("PROFILO UTENTE (scritto dall'utente, vincolo assoluto):\n")
	b.WriteString(strings.TrimSpace(in.Profile))
	b.WriteString("\n")

	fmt.Fprintf(&b, `
COMPITO: Il profilo qui sopra è un'istruzione letterale dell'utente. Seleziona
ESATTAMENTE %d articoli per ciascuna di queste sezioni scegliendo SOLO
articoli coerenti con il profilo:
%s
REGOLE:
- È VIETATO proporre articoli su temi che il profilo non autorizza
- Se per una sezione ci sono pochi articoli compatibili, ripeti i migliori
  disponibili; non riempire con contenuti fuori profilo
- Nel campo "userProfile" riporta il profilo ESATTAMENTE com'è scritto sopra,
  senza riformularlo

`, in.PerSection, renderSectionHints(in.Catalog, in.Sections))

	b.WriteString("ARTICOLI DISPONIBILI:\n")
	b.WriteString(renderCandidates(in.Candidates))

	b.WriteString("\nRestituisci SOLO questo JSON (senza markdown):\n")
	b.WriteString(renderFormat(in.Sections, true))
	return b.String()
}

func coldStartPrompt(in PromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, `COMPITO: Non conosciamo ancora questo lettore. Classifica gli articoli
disponibili in queste sezioni basandoti SOLO su titolo e descrizione, e
scegli i %d migliori per sezione:
%s
REGOLE:
- Ogni articolo appartiene a una sola sezione
- Per sezioni come "Filosofia" accetta solo contenuto autenticamente
  filosofico: meglio una sezione con meno di %d articoli che una riempita di
  contenuti non pertinenti
- Per le altre sezioni, se ci sono pochi articoli, ripeti i migliori

`, in.PerSection, renderSectionHints(in.Catalog, in.Sections), in.PerSection)

	b.WriteString("ARTICOLI DISPONIBILI:\n")
	b.WriteString(renderCandidates(in.Candidates))

	b.WriteString("\nRestituisci SOLO questo JSON (senza markdown):\n")
	b.WriteString(renderFormat(in.Sections, false))
	return b.String()
}

func renderHistory(history []storage.ClickedArticle) string {
	if len(history) == 0 {
		return "(nessuna lettura registrata)\n"
	}
	var b strings.Builder
	for _, h := range history {
		fmt.Fprintf(&b, "- %s (%s), letto il %s", h.Title, h.Source, h.ClickedAt.Format("2006-01-02"))
		if d := strings.TrimSpace(h.Description); d != "" {
			fmt.Fprintf(&b, " — %s", truncate(d, 160))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderCandidates(candidates []storage.Article) string {
	var b strings.Builder
	for _, a := range candidates {
		desc := strings.TrimSpace(a.Description)
		if desc == "" {
			desc = "N/A"
		}
		fmt.Fprintf(&b, "URL: %s\nTitolo: %s\nDescrizione: %s\n---\n", a.URL, a.Title, truncate(desc, 200))
	}
	return b.String()
}

// renderSectionHints lists the enabled sections with their keyword hints from
// the shared catalog, so the prompt and the fallback categorizer describe the
// same taxonomy.
func renderSectionHints(catalog *sections.Catalog, enabled []string) string {
	var b strings.Builder
	for _, name := range enabled {
		if r, ok := catalog.Rule(name); ok && len(r.Keywords) > 0 {
			n := len(r.Keywords)
			if n > 8 {
				n = 8
			}
			fmt.Fprintf(&b, "   - %q: ad esempio %s\n", name, strings.Join(r.Keywords[:n], ", "))
		} else {
			fmt.Fprintf(&b, "   - %q\n", name)
		}
	}
	return b.String()
}

func renderFormat(enabled []string, withProfile bool) string {
	var b strings.Builder
	b.WriteString("{\n  \"articles\": {\n")
	for i, name := range enabled {
		fmt.Fprintf(&b, "    %q: [\"url1\", \"url2\", \"url3\", \"url4\"]", name)
		if i < len(enabled)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  }")
	if withProfile {
		b.WriteString(",\n  \"userProfile\": \"Descrizione italiana di 3-4 righe che delinea precisamente gli interessi dell'utente. Usa termini specifici e concreti, non generici.\"")
	}
	b.WriteString("\n}")
	return b.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
