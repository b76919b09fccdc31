package preset

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Manager holds the current collection and usage snapshot for the server.
// Each mutator applies one of the pure operations, swaps the snapshot, and
// saves it. Saves are best effort: a failed write is logged by Persistence
// and the in-memory result is still returned.
type Manager struct {
	mu        sync.RWMutex
	persist   *Persistence
	catalog   Catalog
	templates *Templates
	newID     IDFunc
	now       func() time.Time
	logger    *slog.Logger

	presets []Record
	usage   UsageStats
}

// ManagerConfig wires a Manager. Zero values select the defaults.
type ManagerConfig struct {
	Persistence *Persistence
	Catalog     Catalog
	Templates   *Templates
	NewID       IDFunc
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewManager loads the collection and usage stats, dropping stats for presets
// that no longer exist.
func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		persist:   cfg.Persistence,
		catalog:   cfg.Catalog,
		templates: cfg.Templates,
		newID:     cfg.NewID,
		now:       cfg.Now,
		logger:    cfg.Logger,
	}
	if m.templates == nil {
		m.templates = NewTemplates(DefaultTemplates())
	}
	if m.newID == nil {
		m.newID = NewID
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	m.presets = m.persist.Load()
	stats := m.persist.LoadUsageStats()
	m.usage = PruneUsage(stats, m.presets)
	if len(m.usage) != len(stats) {
		m.logger.Info("pruned orphaned usage stats", slog.Int("removed", len(stats)-len(m.usage)))
		m.persist.SaveUsageStats(m.usage)
	}
	return m
}

// List returns a snapshot of the collection.
func (m *Manager) List() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAll(m.presets)
}

// Usage returns a snapshot of the usage stats.
func (m *Manager) Usage() UsageStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return PruneUsage(m.usage, m.presets)
}

// Get returns the record with the given id.
func (m *Manager) Get(id string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Find(m.presets, id)
}

// Templates returns the template catalog the manager instantiates from.
func (m *Manager) Templates() *Templates {
	return m.templates
}

// apply swaps in op's result and saves it. Caller must not hold m.mu.
func (m *Manager) apply(op func([]Record) []Record) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets = op(m.presets)
	m.persist.Save(m.presets)
	return cloneAll(m.presets)
}

// AddMany appends one record per entry.
func (m *Manager) AddMany(entries []Entry) []Record {
	return m.apply(func(c []Record) []Record { return AddMany(c, entries, m.newID) })
}

// Update applies p to the record with the given id.
func (m *Manager) Update(id string, p Patch) []Record {
	return m.apply(func(c []Record) []Record { return Update(c, m.catalog, id, p) })
}

// Remove deletes the preset and its usage stats.
func (m *Manager) Remove(id string) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets = Remove(m.presets, id)
	m.persist.Save(m.presets)
	if _, ok := m.usage[id]; ok {
		m.usage = PruneUsage(m.usage, m.presets)
		m.persist.SaveUsageStats(m.usage)
	}
	return cloneAll(m.presets)
}

// Reorder moves the record at from to index to.
func (m *Manager) Reorder(from, to int) []Record {
	return m.apply(func(c []Record) []Record { return Reorder(c, from, to) })
}

// ToggleFavorite flips the favorite flag of one record.
func (m *Manager) ToggleFavorite(id string) []Record {
	return m.apply(func(c []Record) []Record { return ToggleFavorite(c, id) })
}

// SortByFavorite moves favorites to the front.
func (m *Manager) SortByFavorite() []Record {
	return m.apply(SortByFavorite)
}

// Reset replaces the collection with the catalog defaults and clears usage.
func (m *Manager) Reset() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets = m.persist.Default()
	m.usage = UsageStats{}
	m.persist.Save(m.presets)
	m.persist.SaveUsageStats(m.usage)
	return cloneAll(m.presets)
}

// Track records one use of id. Unknown ids are ignored and report false.
func (m *Manager) Track(id string) (Usage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if indexOf(m.presets, id) < 0 {
		return Usage{}, false
	}
	m.usage = Track(m.usage, id, m.now())
	m.persist.SaveUsageStats(m.usage)
	return m.usage[id], true
}

// MostUsed returns up to limit records by descending usage count.
func (m *Manager) MostUsed(limit int) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MostUsed(m.presets, m.usage, limit)
}

// RecentlyUsed returns up to limit records by most recent use.
func (m *Manager) RecentlyUsed(limit int) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return RecentlyUsed(m.presets, m.usage, limit)
}

// Export renders the collection as an export document.
func (m *Manager) Export() (string, error) {
	return Export(m.List(), m.now())
}

// Import appends the presets of an export document and returns the records
// that were added.
func (m *Manager) Import(data string) ([]Record, error) {
	imported, err := Import(data, m.newID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-key anything that collides with an existing id.
	taken := make(map[string]bool, len(m.presets)+len(imported))
	for _, r := range m.presets {
		taken[r.ID] = true
	}
	for i := range imported {
		if taken[imported[i].ID] {
			imported[i].ID = uniqueID(taken, m.newID)
		} else {
			taken[imported[i].ID] = true
		}
	}
	m.presets = append(slices.Clip(m.presets), imported...)
	m.persist.Save(m.presets)
	return cloneAll(imported), nil
}

// AddFromTemplate appends a record instantiated from the named template.
func (m *Manager) AddFromTemplate(templateID string) (Record, error) {
	tmpl, ok := m.templates.Get(templateID)
	if !ok {
		return Record{}, fmt.Errorf("template %q: %w", templateID, ErrNotFound)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r := Instantiate(tmpl, m.newID)
	taken := make(map[string]bool, len(m.presets))
	for _, p := range m.presets {
		taken[p.ID] = true
	}
	if taken[r.ID] {
		r.ID = uniqueID(taken, m.newID)
	}
	m.presets = append(slices.Clip(m.presets), r)
	m.persist.Save(m.presets)
	return r.clone(), nil
}

// ShareLink builds a share link for the preset with the given id.
func (m *Manager) ShareLink(id, baseURL string) (string, error) {
	r, ok := m.Get(id)
	if !ok {
		return "", fmt.Errorf("preset %q: %w", id, ErrNotFound)
	}
	return EncodeShareLink(r, baseURL), nil
}

// AddFromShareLink appends the preset carried by link as a custom preset.
func (m *Manager) AddFromShareLink(link string) (Record, bool) {
	sp, ok := DecodeShareLink(link)
	if !ok {
		return Record{}, false
	}
	c := m.apply(func(c []Record) []Record {
		return AddMany(c, []Entry{{
			SourceID:    "shared",
			SourceType:  SourceCustom,
			Name:        sp.Name,
			Description: sp.Description,
			Models:      sp.Models,
		}}, m.newID)
	})
	return c[len(c)-1], true
}

// Commit writes the current collection and usage stats, returning the
// write error instead of only logging it.
func (m *Manager) Commit() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.persist.Commit(m.presets, m.usage)
}

func cloneAll(c []Record) []Record {
	out := make([]Record, len(c))
	for i, r := range c {
		out[i] = r.clone()
	}
	return out
}
