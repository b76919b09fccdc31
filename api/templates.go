package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"multichat/preset"
)

func (h *handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	tpl := h.presets.Templates()
	c := preset.Category(r.URL.Query().Get("category"))
	if c == "" {
		writeJSON(w, http.StatusOK, tpl.All())
		return
	}
	if !c.Valid() {
		http.Error(w, "unknown category", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, tpl.ByCategory(c))
}

func (h *handler) templateCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.presets.Templates().Categories())
}

func (h *handler) instantiateTemplate(w http.ResponseWriter, r *http.Request) {
	rec, err := h.presets.AddFromTemplate(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, preset.ErrNotFound) {
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to add preset", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
