package preset

import "slices"

// The functions in this file never mutate their input collection; each
// returns a new slice. Unknown ids and invalid indices are no-ops that
// return an equal copy.

// AddMany appends entries in order, each with a fresh id.
func AddMany(c []Record, entries []Entry, newID IDFunc) []Record {
	out := make([]Record, 0, len(c)+len(entries))
	out = append(out, c...)

	taken := make(map[string]bool, len(out))
	for _, r := range c {
		taken[r.ID] = true
	}
	for _, e := range entries {
		out = append(out, Record{
			ID:          uniqueID(taken, newID),
			SourceID:    e.SourceID,
			SourceType:  e.SourceType,
			Name:        e.Name,
			Description: e.Description,
			Models:      cloneModels(e.Models),
		})
	}
	return out
}

// uniqueID draws from newID until it yields an id not in taken, and records it.
func uniqueID(taken map[string]bool, newID IDFunc) string {
	id := newID()
	for taken[id] {
		id = newID()
	}
	taken[id] = true
	return id
}

// Update applies p to the record with the given id and recomputes IsModified.
func Update(c []Record, cat Catalog, id string, p Patch) []Record {
	out := slices.Clone(c)
	i := indexOf(out, id)
	if i < 0 {
		return out
	}

	r := out[i].clone()
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Models != nil {
		r.Models = slices.Clone(p.Models)
	}
	if p.IsFavorite != nil {
		r.IsFavorite = *p.IsFavorite
	}
	if r.SourceType == SourceBuiltIn {
		r.IsModified = DeriveIsModified(r, cat)
	}
	out[i] = r
	return out
}

// Remove drops the record with the given id, keeping the order of the rest.
func Remove(c []Record, id string) []Record {
	out := make([]Record, 0, len(c))
	for _, r := range c {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

// Reorder moves the element at from so that it ends up at index to. Indices
// outside [0, len(c)) leave the order unchanged.
func Reorder(c []Record, from, to int) []Record {
	out := slices.Clone(c)
	if from == to || !inRange(out, from) || !inRange(out, to) {
		return out
	}
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, moved)
}

// ToggleFavorite flips IsFavorite on the matching record only.
func ToggleFavorite(c []Record, id string) []Record {
	out := slices.Clone(c)
	if i := indexOf(out, id); i >= 0 {
		out[i].IsFavorite = !out[i].IsFavorite
	}
	return out
}

// SortByFavorite moves favorites ahead of the rest, keeping relative order
// within both groups.
func SortByFavorite(c []Record) []Record {
	out := slices.Clone(c)
	slices.SortStableFunc(out, func(a, b Record) int {
		switch {
		case a.IsFavorite == b.IsFavorite:
			return 0
		case a.IsFavorite:
			return -1
		default:
			return 1
		}
	})
	return out
}

// Find returns the record with the given id.
func Find(c []Record, id string) (Record, bool) {
	if i := indexOf(c, id); i >= 0 {
		return c[i].clone(), true
	}
	return Record{}, false
}

func indexOf(c []Record, id string) int {
	return slices.IndexFunc(c, func(r Record) bool { return r.ID == id })
}

func inRange(c []Record, i int) bool {
	return i >= 0 && i < len(c)
}

// cloneModels copies models, turning nil into an empty selection so it
// serializes as [] rather than null.
func cloneModels(models []string) []string {
	if models == nil {
		return []string{}
	}
	return slices.Clone(models)
}
