package preset

import (
	"errors"
	"slices"

	"github.com/google/uuid"
)

// SourceType tags where a preset was copied from.
type SourceType string

const (
	SourceBuiltIn SourceType = "built-in"
	SourceCustom  SourceType = "custom"
)

// Valid reports whether s is one of the known source types.
func (s SourceType) Valid() bool {
	return s == SourceBuiltIn || s == SourceCustom
}

// Record is a quick preset: a named, reusable selection of models.
// Models holds "provider:modelName" keys in display order.
type Record struct {
	ID          string     `json:"id"`
	SourceID    string     `json:"sourceId"`
	SourceType  SourceType `json:"sourceType"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Models      []string   `json:"models"`
	IsModified  bool       `json:"isModified"`
	IsFavorite  bool       `json:"isFavorite,omitempty"`

	// Populated only by usage queries.
	UsageCount int    `json:"usageCount,omitempty"`
	LastUsedAt string `json:"lastUsedAt,omitempty"`
}

func (r Record) clone() Record {
	r.Models = slices.Clone(r.Models)
	return r
}

// Entry is the input to AddMany.
type Entry struct {
	SourceID    string     `json:"sourceId"`
	SourceType  SourceType `json:"sourceType"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Models      []string   `json:"models"`
}

// Patch carries the fields Update may change. Nil fields are left alone; a
// non-nil empty Models clears the selection.
type Patch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Models      []string `json:"models"`
	IsFavorite  *bool    `json:"isFavorite"`
}

// IDFunc generates identifiers that are never reused.
type IDFunc func() string

// NewID is the default IDFunc.
func NewID() string {
	return uuid.NewString()
}

var (
	ErrNotFound      = errors.New("preset not found")
	ErrInvalidImport = errors.New("invalid preset import document")
)

// DeriveIsModified reports whether a built-in sourced record has drifted
// from its catalog definition. Custom records and orphaned built-in
// references are never modified.
func DeriveIsModified(r Record, cat Catalog) bool {
	if r.SourceType != SourceBuiltIn {
		return false
	}
	src, ok := cat.Lookup(r.SourceID)
	if !ok {
		return false
	}
	if r.Name != src.Name {
		return true
	}
	return !sameMultiset(r.Models, src.Models)
}

func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := slices.Clone(a), slices.Clone(b)
	slices.Sort(as)
	slices.Sort(bs)
	return slices.Equal(as, bs)
}
