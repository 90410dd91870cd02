package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	digest "github.com/edoardosensi/doe-ai-digest"
)

// handlers holds dependencies for all HTTP handler methods.
type handlers struct {
	engine *digest.Engine
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Recommendations and articles ---

func (h *handlers) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())
	res, err := h.engine.Recommend(r.Context(), uid)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRefresh runs one fetch cycle and then a fresh recommendation for the
// caller.
func (h *handlers) handleRefresh(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())
	if _, err := h.engine.FetchAllFeeds(r.Context()); err != nil {
		serverError(w, err)
		return
	}
	res, err := h.engine.Recommend(r.Context(), uid)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) handleArticles(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	articles, err := h.engine.RecentArticles(limit)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

// --- Click history ---

func (h *handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := h.engine.ClickHistory(uid, limit)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (h *handlers) handleHistoryAdd(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())

	var body struct {
		ArticleID int64 `json:"article_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ArticleID <= 0 {
		writeError(w, http.StatusBadRequest, "article_id is required")
		return
	}

	clickID, err := h.engine.RecordClick(uid, body.ArticleID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"click_id": clickID})
}

func (h *handlers) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())
	clickID, err := strconv.ParseInt(r.PathValue("clickID"), 10, 64)
	if err != nil || clickID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid click ID")
		return
	}
	if err := h.engine.DeleteClick(uid, clickID); err != nil {
		serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Profile ---

func (h *handlers) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())
	p, err := h.engine.GetProfile(uid)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) handleProfileSet(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())

	var body struct {
		Text      string  `json:"text"`
		Interests *string `json:"interests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.engine.SetProfile(uid, body.Text); err != nil {
		serverError(w, err)
		return
	}
	if body.Interests != nil {
		if err := h.engine.SetInterests(uid, *body.Interests); err != nil {
			serverError(w, err)
			return
		}
	}

	p, err := h.engine.GetProfile(uid)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) handleProfileClear(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())
	if err := h.engine.SetProfile(uid, ""); err != nil {
		serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Sections ---

func (h *handlers) handleSections(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())
	sections, err := h.engine.Sections(uid)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
}

func (h *handlers) handleSectionToggle(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())
	name := r.PathValue("name")

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.engine.SetSectionEnabled(uid, name, body.Enabled); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Saved articles ---

func (h *handlers) handleSavedList(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())
	articles, err := h.engine.SavedArticles(uid)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

func (h *handlers) handleSavedAdd(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())

	var body struct {
		ArticleID int64 `json:"article_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ArticleID <= 0 {
		writeError(w, http.StatusBadRequest, "article_id is required")
		return
	}

	if err := h.engine.SaveArticle(uid, body.ArticleID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) handleSavedDelete(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())
	articleID, err := strconv.ParseInt(r.PathValue("articleID"), 10, 64)
	if err != nil || articleID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid article ID")
		return
	}
	if err := h.engine.UnsaveArticle(uid, articleID); err != nil {
		serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("digest-web: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func serverError(w http.ResponseWriter, err error) {
	log.Printf("digest-web: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
