package api

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"multichat/chat"
	"multichat/preset"
)

func RegisterRoutes(pm *preset.Manager, cm *chat.Manager, staticFS fs.FS, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{presets: pm, chats: cm, logger: logger}

	// Presets API
	r.Route("/api/presets", func(r chi.Router) {
		r.Get("/", h.getPresets)
		r.Post("/", h.addPresets)
		r.Post("/reorder", h.reorderPresets)
		r.Post("/sort-favorites", h.sortFavorites)
		r.Post("/reset", h.resetPresets)
		r.Get("/usage/top", h.mostUsed)
		r.Get("/usage/recent", h.recentlyUsed)
		r.Get("/export", h.exportPresets)
		r.Post("/import", h.importPresets)
		r.Post("/shared", h.addSharedPreset)

		r.Get("/{id}", h.getPreset)
		r.Patch("/{id}", h.updatePreset)
		r.Delete("/{id}", h.removePreset)
		r.Post("/{id}/favorite", h.toggleFavorite)
		r.Post("/{id}/use", h.usePreset)
		r.Get("/{id}/share", h.sharePreset)
	})

	// Templates API
	r.Get("/api/templates", h.listTemplates)
	r.Get("/api/templates/categories", h.templateCategories)
	r.Post("/api/templates/{id}/instantiate", h.instantiateTemplate)

	// Conversations API
	r.Get("/api/conversations", h.listConversations)
	r.Post("/api/conversations", h.createConversation)
	r.Get("/api/conversations/{id}", h.getConversation)
	r.Patch("/api/conversations/{id}", h.updateConversation)
	r.Delete("/api/conversations/{id}", h.deleteConversation)
	r.Post("/api/conversations/{id}/messages", h.sendMessage)

	// WebSocket
	r.Get("/api/conversations/{id}/ws", h.handleWS)

	// Static sub-FS: strip the "static/" prefix present in the embed.FS.
	// In dev mode staticFS is already rooted at the asset directory, so Sub
	// returns a wrapper unconditionally (no error) but the sub-FS would look
	// for static/static/* which doesn't exist. Probe index.html to detect this.
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		staticSub = staticFS
	} else if _, statErr := fs.Stat(staticSub, "index.html"); statErr != nil {
		staticSub = staticFS
	}

	// Serve HTML pages by reading from the FS directly.
	// Using http.FileServer with r.URL.Path ending in "index.html" triggers
	// Go's built-in redirect to "./" — avoid that by reading the file manually.
	r.Get("/", serveFile(staticSub, "index.html"))

	// Static assets — use standard file server
	fileServer := http.FileServer(http.FS(staticSub))
	r.Get("/css/*", fileServer.ServeHTTP)
	r.Get("/js/*", fileServer.ServeHTTP)

	return r
}

// serveFile returns a handler that reads a single file from fsys and sends it.
func serveFile(fsys fs.FS, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content)
	}
}

type handler struct {
	presets *preset.Manager
	chats   *chat.Manager
	logger  *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// queryLimit reads ?limit=, falling back to def for missing or invalid values.
func queryLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return def
	}
	return n
}
