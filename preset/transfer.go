package preset

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExportVersion is the only export document version produced and accepted.
const ExportVersion = 1

// ExportDocument is the portable form of a collection. Ids are left out so
// that importing never collides with the importer's own ids.
type ExportDocument struct {
	Version    int              `json:"version"`
	ExportedAt string           `json:"exportedAt"`
	Presets    []ExportedPreset `json:"presets"`
}

type ExportedPreset struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Models      []string   `json:"models"`
	SourceType  SourceType `json:"sourceType"`
	SourceID    string     `json:"sourceId"`
	IsFavorite  bool       `json:"isFavorite"`
}

// Export encodes c as an indented export document stamped with now.
func Export(c []Record, now time.Time) (string, error) {
	doc := ExportDocument{
		Version:    ExportVersion,
		ExportedAt: now.UTC().Format(time.RFC3339Nano),
		Presets:    make([]ExportedPreset, 0, len(c)),
	}
	for _, r := range c {
		doc.Presets = append(doc.Presets, ExportedPreset{
			Name:        r.Name,
			Description: r.Description,
			Models:      cloneModels(r.Models),
			SourceType:  r.SourceType,
			SourceID:    r.SourceID,
			IsFavorite:  r.IsFavorite,
		})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	return string(data), nil
}

// Import decodes an export document into fresh records. It fails with
// ErrInvalidImport when data is not JSON or has no presets array. Entries
// that are not objects or lack a string name are skipped; every other field
// falls back to a default when missing or mistyped.
func Import(data string, newID IDFunc) ([]Record, error) {
	var doc struct {
		Presets json.RawMessage `json:"presets"`
	}
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	var entries []json.RawMessage
	if len(doc.Presets) == 0 || json.Unmarshal(doc.Presets, &entries) != nil || entries == nil {
		return nil, fmt.Errorf("%w: presets must be an array", ErrInvalidImport)
	}

	out := make([]Record, 0, len(entries))
	taken := make(map[string]bool, len(entries))
	for _, raw := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			continue
		}
		var name string
		if !decodeField(fields, "name", &name) {
			continue
		}

		r := Record{ID: uniqueID(taken, newID), Name: name, Models: []string{}}
		decodeField(fields, "description", &r.Description)
		decodeModels(fields, &r.Models)
		decodeField(fields, "isFavorite", &r.IsFavorite)
		if !decodeField(fields, "sourceType", &r.SourceType) || !r.SourceType.Valid() {
			r.SourceType = SourceCustom
		}
		if !decodeField(fields, "sourceId", &r.SourceID) || r.SourceID == "" {
			r.SourceID = "imported-" + r.ID
		}
		out = append(out, r)
	}
	return out, nil
}

// decodeField unmarshals fields[key] into dst, reporting success. dst is
// untouched when the key is missing, null, or the wrong type.
func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) bool {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	*dst = v
	return true
}

// decodeModels keeps the string elements of a models array.
func decodeModels(fields map[string]json.RawMessage, dst *[]string) {
	var items []json.RawMessage
	if !decodeField(fields, "models", &items) {
		return
	}
	models := make([]string, 0, len(items))
	for _, item := range items {
		var m string
		if json.Unmarshal(item, &m) == nil {
			models = append(models, m)
		}
	}
	*dst = models
}
