package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"multichat/preset"
)

// maxImportSize bounds uploaded export documents.
const maxImportSize = 4 << 20

type presetsResponse struct {
	Presets []preset.Record   `json:"presets"`
	Usage   preset.UsageStats `json:"usage"`
}

func (h *handler) writePresets(w http.ResponseWriter, status int, list []preset.Record) {
	writeJSON(w, status, presetsResponse{Presets: list, Usage: h.presets.Usage()})
}

func (h *handler) getPresets(w http.ResponseWriter, r *http.Request) {
	h.writePresets(w, http.StatusOK, h.presets.List())
}

func (h *handler) getPreset(w http.ResponseWriter, r *http.Request) {
	p, ok := h.presets.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) addPresets(w http.ResponseWriter, r *http.Request) {
	var entries []preset.Entry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	for _, e := range entries {
		if !e.SourceType.Valid() {
			http.Error(w, "sourceType must be built-in or custom", http.StatusBadRequest)
			return
		}
	}
	h.writePresets(w, http.StatusCreated, h.presets.AddMany(entries))
}

// updatePreset applies a partial update. Unknown ids leave the collection
// unchanged and still return 200, like the other id-based mutations.
func (h *handler) updatePreset(w http.ResponseWriter, r *http.Request) {
	var patch preset.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.writePresets(w, http.StatusOK, h.presets.Update(chi.URLParam(r, "id"), patch))
}

func (h *handler) removePreset(w http.ResponseWriter, r *http.Request) {
	h.writePresets(w, http.StatusOK, h.presets.Remove(chi.URLParam(r, "id")))
}

func (h *handler) reorderPresets(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From *int `json:"from"`
		To   *int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.From == nil || req.To == nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.writePresets(w, http.StatusOK, h.presets.Reorder(*req.From, *req.To))
}

func (h *handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	h.writePresets(w, http.StatusOK, h.presets.ToggleFavorite(chi.URLParam(r, "id")))
}

func (h *handler) sortFavorites(w http.ResponseWriter, r *http.Request) {
	h.writePresets(w, http.StatusOK, h.presets.SortByFavorite())
}

func (h *handler) resetPresets(w http.ResponseWriter, r *http.Request) {
	h.writePresets(w, http.StatusOK, h.presets.Reset())
}

// usePreset records a use and returns the recently used ids, most recent
// first. Unknown ids are silently ignored.
func (h *handler) usePreset(w http.ResponseWriter, r *http.Request) {
	h.presets.Track(chi.URLParam(r, "id"))

	recent := h.presets.RecentlyUsed(10)
	ids := make([]string, len(recent))
	for i, p := range recent {
		ids[i] = p.ID
	}
	writeJSON(w, http.StatusOK, map[string][]string{"recentlyUsed": ids})
}

func (h *handler) mostUsed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.presets.MostUsed(queryLimit(r, 5)))
}

func (h *handler) recentlyUsed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.presets.RecentlyUsed(queryLimit(r, 10)))
}

func (h *handler) exportPresets(w http.ResponseWriter, r *http.Request) {
	doc, err := h.presets.Export()
	if err != nil {
		h.logger.Error("export failed", slog.Any("error", err))
		http.Error(w, "failed to export presets", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="quick-presets.json"`)
	_, _ = io.WriteString(w, doc)
}

func (h *handler) importPresets(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	imported, err := h.presets.Import(string(body))
	if err != nil {
		if errors.Is(err, preset.ErrInvalidImport) {
			http.Error(w, "invalid import file", http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to import presets", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Imported []preset.Record `json:"imported"`
		presetsResponse
	}{imported, presetsResponse{Presets: h.presets.List(), Usage: h.presets.Usage()}})
}

// sharePreset returns a share link. The base defaults to the app root on the
// host the request came in on.
func (h *handler) sharePreset(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host + "/"
	}
	link, err := h.presets.ShareLink(chi.URLParam(r, "id"), base)
	if err != nil {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}

func (h *handler) addSharedPreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	rec, ok := h.presets.AddFromShareLink(req.URL)
	if !ok {
		http.Error(w, "invalid share link", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
