package main

import (
	"net/http"

	digest "github.com/edoardosensi/doe-ai-digest"
)

// newRouter sets up all API routes using Go 1.22+ enhanced routing. Every
// route except /healthz requires a valid bearer token.
func newRouter(engine *digest.Engine, secret []byte) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)

	h := &handlers{engine: engine}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/recommendations", h.handleRecommendations)
	api.HandleFunc("POST /api/refresh", h.handleRefresh)
	api.HandleFunc("GET /api/articles", h.handleArticles)

	api.HandleFunc("GET /api/history", h.handleHistory)
	api.HandleFunc("POST /api/history", h.handleHistoryAdd)
	api.HandleFunc("DELETE /api/history/{clickID}", h.handleHistoryDelete)

	api.HandleFunc("GET /api/profile", h.handleProfileGet)
	api.HandleFunc("PUT /api/profile", h.handleProfileSet)
	api.HandleFunc("DELETE /api/profile", h.handleProfileClear)

	api.HandleFunc("GET /api/sections", h.handleSections)
	api.HandleFunc("PUT /api/sections/{name}", h.handleSectionToggle)

	api.HandleFunc("GET /api/saved", h.handleSavedList)
	api.HandleFunc("POST /api/saved", h.handleSavedAdd)
	api.HandleFunc("DELETE /api/saved/{articleID}", h.handleSavedDelete)

	mux.Handle("/api/", auth(secret, api))

	return mux
}
