package preset

import (
	"encoding/json"
	"errors"
	"log/slog"

	"multichat/store"
)

// Default store keys.
const (
	DefaultPresetsKey = "quickPresets"
	DefaultUsageKey   = "quickPresetUsage"
)

// PersistenceConfig wires a Persistence to its store and collaborators.
type PersistenceConfig struct {
	Store      store.Store
	PresetsKey string
	UsageKey   string
	Catalog    Catalog
	NewID      IDFunc
	Logger     *slog.Logger
}

// Persistence mirrors the collection and usage stats into a key-value store.
// Reads fall back to defaults on missing or corrupt data; writes are best
// effort. Neither path returns an error: failures are logged.
type Persistence struct {
	store      store.Store
	presetsKey string
	usageKey   string
	catalog    Catalog
	newID      IDFunc
	logger     *slog.Logger
}

// NewPersistence applies defaults for the empty fields of cfg.
func NewPersistence(cfg PersistenceConfig) *Persistence {
	p := &Persistence{
		store:      cfg.Store,
		presetsKey: cfg.PresetsKey,
		usageKey:   cfg.UsageKey,
		catalog:    cfg.Catalog,
		newID:      cfg.NewID,
		logger:     cfg.Logger,
	}
	if p.presetsKey == "" {
		p.presetsKey = DefaultPresetsKey
	}
	if p.usageKey == "" {
		p.usageKey = DefaultUsageKey
	}
	if p.newID == nil {
		p.newID = NewID
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Default seeds a collection one-to-one from the catalog.
func (p *Persistence) Default() []Record {
	return AddMany(nil, p.catalog.Entries(), p.newID)
}

// Load returns the stored collection, or the default collection when the key
// is absent or unreadable. Records with an empty or repeated id get a fresh
// one.
func (p *Persistence) Load() []Record {
	var c []Record
	if !p.read(p.presetsKey, &c) || c == nil {
		return p.Default()
	}
	taken := make(map[string]bool, len(c))
	for _, r := range c {
		taken[r.ID] = true
	}
	seen := make(map[string]bool, len(c))
	for i := range c {
		if c[i].ID == "" || seen[c[i].ID] {
			old := c[i].ID
			c[i].ID = uniqueID(taken, p.newID)
			p.logger.Warn("stored preset has empty or duplicate id, reassigned",
				slog.String("key", p.presetsKey), slog.String("old", old), slog.String("id", c[i].ID))
		}
		seen[c[i].ID] = true
		if c[i].Models == nil {
			c[i].Models = []string{}
		}
	}
	return c
}

// Save writes the collection. Failures are logged, not returned.
func (p *Persistence) Save(c []Record) {
	p.write(p.presetsKey, c)
}

// Commit writes the collection and the usage stats and reports any failure.
// One-shot callers use it where a lost write must not go unnoticed.
func (p *Persistence) Commit(c []Record, stats UsageStats) error {
	return errors.Join(p.write(p.presetsKey, c), p.write(p.usageKey, stats))
}

// LoadUsageStats returns the stored stats, or an empty map.
func (p *Persistence) LoadUsageStats() UsageStats {
	var stats UsageStats
	if !p.read(p.usageKey, &stats) || stats == nil {
		return UsageStats{}
	}
	return stats
}

// SaveUsageStats writes the usage stats. Failures are logged, not returned.
func (p *Persistence) SaveUsageStats(stats UsageStats) {
	p.write(p.usageKey, stats)
}

func (p *Persistence) read(key string, dst any) bool {
	raw, ok, err := p.store.Get(key)
	if err != nil {
		p.logger.Warn("read failed, using default", slog.String("key", key), slog.Any("error", err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		p.logger.Warn("stored value is not valid JSON, using default", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

func (p *Persistence) write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Warn("encode failed", slog.String("key", key), slog.Any("error", err))
		return err
	}
	if err := p.store.Set(key, string(data)); err != nil {
		p.logger.Warn("write failed", slog.String("key", key), slog.Any("error", err))
		return err
	}
	return nil
}
