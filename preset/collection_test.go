package preset_test

import (
	"encoding/json"
	"fmt"
	"slices"
	"testing"

	"multichat/preset"
)

// seqIDs returns a deterministic id generator: prefix1, prefix2, ...
func seqIDs(prefix string) preset.IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func ids(c []preset.Record) []string {
	out := make([]string, len(c))
	for i, r := range c {
		out[i] = r.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func sample() []preset.Record {
	return []preset.Record{
		{ID: "a", SourceID: "coding", SourceType: preset.SourceBuiltIn, Name: "Coding Team", Models: []string{"openai:GPT-4", "deepseek:DeepSeek Coder"}},
		{ID: "b", SourceID: "s1", SourceType: preset.SourceCustom, Name: "Mine", Models: []string{"m1"}, IsFavorite: true},
		{ID: "c", SourceID: "fast", SourceType: preset.SourceBuiltIn, Name: "Quick Answers", Models: []string{"openai:GPT-3.5 Turbo", "anthropic:Claude 3 Haiku"}},
	}
}

func TestAddManyScenario(t *testing.T) {
	got := preset.AddMany(nil, []preset.Entry{{
		SourceID:   "coding",
		SourceType: preset.SourceBuiltIn,
		Name:       "Coding Team",
		Models:     []string{"openai:GPT-4", "deepseek:DeepSeek Coder"},
	}}, preset.NewID)

	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	r := got[0]
	if r.ID == "" {
		t.Fatal("expected a generated id")
	}
	if r.IsModified || r.IsFavorite {
		t.Fatalf("new record should be unmodified and not favorite: %+v", r)
	}
	if !slices.Equal(r.Models, []string{"openai:GPT-4", "deepseek:DeepSeek Coder"}) {
		t.Fatalf("unexpected models %v", r.Models)
	}
}

func TestAddManyUniqueIDs(t *testing.T) {
	var c []preset.Record
	entries := []preset.Entry{{Name: "x"}, {Name: "y"}, {Name: "z"}}
	for i := 0; i < 5; i++ {
		before := len(c)
		c = preset.AddMany(c, entries, preset.NewID)
		if len(c) != before+len(entries) {
			t.Fatalf("length: want %d, got %d", before+len(entries), len(c))
		}
	}
	seen := map[string]bool{}
	for _, id := range ids(c) {
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestAddManySkipsCollidingIDs(t *testing.T) {
	// Generator that repeats an id already in the collection.
	gen := seqIDs("x")
	existing := []preset.Record{{ID: "x1"}, {ID: "x2"}}
	got := preset.AddMany(existing, []preset.Entry{{Name: "n"}, {Name: "m"}}, gen)

	want := []string{"x1", "x2", "x3", "x4"}
	if !slices.Equal(ids(got), want) {
		t.Fatalf("want %v, got %v", want, ids(got))
	}
}

func TestAddManyDoesNotAliasInput(t *testing.T) {
	models := []string{"m1"}
	c := sample()
	got := preset.AddMany(c, []preset.Entry{{Name: "n", Models: models}}, preset.NewID)
	models[0] = "changed"
	if got[3].Models[0] != "m1" {
		t.Fatal("record aliases the entry's models")
	}
	if len(c) != 3 {
		t.Fatal("input collection was modified")
	}
	if got[3].Models == nil {
		t.Fatal("models should never be nil")
	}
}

func TestUpdateMissingIDIsNoop(t *testing.T) {
	c := sample()
	got := preset.Update(c, preset.DefaultCatalog(), "missing", preset.Patch{Name: ptr("x")})
	if !slices.EqualFunc(c, got, recordsEqual) {
		t.Fatalf("expected unchanged collection, got %+v", got)
	}
}

func TestPatchDecoding(t *testing.T) {
	var clear, keep preset.Patch
	if err := json.Unmarshal([]byte(`{"models":[]}`), &clear); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{"name":"x"}`), &keep); err != nil {
		t.Fatal(err)
	}
	if clear.Models == nil || len(clear.Models) != 0 {
		t.Fatalf("empty models must decode as a clear, got %#v", clear.Models)
	}
	if keep.Models != nil || keep.Name == nil || *keep.Name != "x" {
		t.Fatalf("absent fields must stay nil, got %+v", keep)
	}
}

func TestUpdateRecomputesIsModified(t *testing.T) {
	cat := preset.DefaultCatalog()
	c := sample()

	renamed := preset.Update(c, cat, "a", preset.Patch{Name: ptr("My Coders")})
	if !renamed[0].IsModified {
		t.Fatal("renaming a built-in should mark it modified")
	}
	if c[0].Name != "Coding Team" || c[0].IsModified {
		t.Fatal("input was mutated")
	}

	restored := preset.Update(renamed, cat, "a", preset.Patch{Name: ptr("Coding Team")})
	if restored[0].IsModified {
		t.Fatal("restoring the catalog name should clear IsModified")
	}

	// Same models in a different order are not a modification.
	reordered := preset.Update(c, cat, "a", preset.Patch{Models: []string{"deepseek:DeepSeek Coder", "openai:GPT-4"}})
	if reordered[0].IsModified {
		t.Fatal("model order alone should not mark modified")
	}

	fewer := preset.Update(c, cat, "a", preset.Patch{Models: []string{"openai:GPT-4"}})
	if !fewer[0].IsModified {
		t.Fatal("dropping a model should mark modified")
	}

	cleared := preset.Update(c, cat, "a", preset.Patch{Models: []string{}})
	if len(cleared[0].Models) != 0 || !cleared[0].IsModified {
		t.Fatalf("empty models patch should clear the selection: %+v", cleared[0])
	}
}

func TestUpdateFavoriteDoesNotFlipIsModified(t *testing.T) {
	c := sample()
	got := preset.Update(c, preset.DefaultCatalog(), "a", preset.Patch{IsFavorite: ptr(true)})
	if !got[0].IsFavorite {
		t.Fatal("expected favorite")
	}
	if got[0].IsModified {
		t.Fatal("favorite alone must not mark modified")
	}
}

func TestUpdateCustomNeverModified(t *testing.T) {
	c := sample()
	got := preset.Update(c, preset.DefaultCatalog(), "b", preset.Patch{Name: ptr("Renamed"), Description: ptr("d")})
	if got[1].IsModified {
		t.Fatal("custom presets are never marked modified")
	}
	if got[1].Name != "Renamed" || got[1].Description != "d" {
		t.Fatalf("patch not applied: %+v", got[1])
	}
	if !recordsEqual(got[0], c[0]) || !recordsEqual(got[2], c[2]) {
		t.Fatal("untouched records changed")
	}
}

func TestUpdateOrphanedBuiltInNotModified(t *testing.T) {
	c := []preset.Record{{ID: "o", SourceID: "gone", SourceType: preset.SourceBuiltIn, Name: "Old"}}
	got := preset.Update(c, preset.DefaultCatalog(), "o", preset.Patch{Name: ptr("New")})
	if got[0].IsModified {
		t.Fatal("orphaned built-in reference should not be modified")
	}
}

func TestRemove(t *testing.T) {
	c := sample()
	got := preset.Remove(c, "b")
	if !slices.Equal(ids(got), []string{"a", "c"}) {
		t.Fatalf("unexpected ids %v", ids(got))
	}
	if len(c) != 3 {
		t.Fatal("input was mutated")
	}

	same := preset.Remove(c, "missing")
	if !slices.EqualFunc(c, same, recordsEqual) {
		t.Fatal("removing a missing id should be a no-op")
	}
}

func TestReorder(t *testing.T) {
	c := sample()
	tests := []struct {
		from, to int
		want     []string
	}{
		{0, 2, []string{"b", "c", "a"}},
		{2, 0, []string{"c", "a", "b"}},
		{1, 1, []string{"a", "b", "c"}},
		{0, 1, []string{"b", "a", "c"}},
		// Out of range: unchanged.
		{-1, 0, []string{"a", "b", "c"}},
		{0, 3, []string{"a", "b", "c"}},
		{5, 1, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		got := preset.Reorder(c, tt.from, tt.to)
		if !slices.Equal(ids(got), tt.want) {
			t.Errorf("Reorder(%d, %d): want %v, got %v", tt.from, tt.to, tt.want, ids(got))
		}
	}
	if !slices.Equal(ids(c), []string{"a", "b", "c"}) {
		t.Fatal("input was mutated")
	}
}

func TestReorderRoundTrip(t *testing.T) {
	c := preset.AddMany(nil, make([]preset.Entry, 6), seqIDs("p"))
	for i := range c {
		for j := range c {
			if i == j {
				continue
			}
			back := preset.Reorder(preset.Reorder(c, i, j), j, i)
			if !slices.Equal(ids(back), ids(c)) {
				t.Fatalf("Reorder(%d,%d) then (%d,%d): got %v", i, j, j, i, ids(back))
			}
		}
	}
}

func TestToggleFavoriteInvolution(t *testing.T) {
	c := sample()
	for _, id := range ids(c) {
		once := preset.ToggleFavorite(c, id)
		r, _ := preset.Find(once, id)
		orig, _ := preset.Find(c, id)
		if r.IsFavorite == orig.IsFavorite {
			t.Fatalf("%s: favorite not flipped", id)
		}
		twice := preset.ToggleFavorite(once, id)
		if !slices.EqualFunc(c, twice, recordsEqual) {
			t.Fatalf("%s: toggling twice should restore the collection", id)
		}
	}
	if got := preset.ToggleFavorite(c, "missing"); !slices.EqualFunc(c, got, recordsEqual) {
		t.Fatal("unknown id should be a no-op")
	}
}

func TestSortByFavorite(t *testing.T) {
	c := []preset.Record{
		{ID: "A"},
		{ID: "B", IsFavorite: true},
		{ID: "C"},
	}
	got := preset.SortByFavorite(c)
	if !slices.Equal(ids(got), []string{"B", "A", "C"}) {
		t.Fatalf("unexpected order %v", ids(got))
	}
	if !slices.Equal(ids(c), []string{"A", "B", "C"}) {
		t.Fatal("input was mutated")
	}
}

func TestSortByFavoriteStableAndIdempotent(t *testing.T) {
	c := []preset.Record{
		{ID: "1", IsFavorite: true},
		{ID: "2"},
		{ID: "3", IsFavorite: true},
		{ID: "4"},
		{ID: "5"},
		{ID: "6", IsFavorite: true},
	}
	once := preset.SortByFavorite(c)
	if !slices.Equal(ids(once), []string{"1", "3", "6", "2", "4", "5"}) {
		t.Fatalf("unexpected order %v", ids(once))
	}
	twice := preset.SortByFavorite(once)
	if !slices.Equal(ids(once), ids(twice)) {
		t.Fatalf("not idempotent: %v vs %v", ids(once), ids(twice))
	}
}

func TestDeriveIsModified(t *testing.T) {
	cat := preset.Catalog{{ID: "s", Name: "N", Models: []string{"a", "b", "a"}}}
	tests := []struct {
		name string
		r    preset.Record
		want bool
	}{
		{"same", preset.Record{SourceType: preset.SourceBuiltIn, SourceID: "s", Name: "N", Models: []string{"a", "a", "b"}}, false},
		{"multiset differs", preset.Record{SourceType: preset.SourceBuiltIn, SourceID: "s", Name: "N", Models: []string{"a", "b", "b"}}, true},
		{"case sensitive", preset.Record{SourceType: preset.SourceBuiltIn, SourceID: "s", Name: "n", Models: []string{"a", "a", "b"}}, true},
		{"no trimming", preset.Record{SourceType: preset.SourceBuiltIn, SourceID: "s", Name: "N ", Models: []string{"a", "a", "b"}}, true},
		{"custom", preset.Record{SourceType: preset.SourceCustom, SourceID: "s", Name: "X"}, false},
		{"orphan", preset.Record{SourceType: preset.SourceBuiltIn, SourceID: "nope", Name: "X"}, false},
	}
	for _, tt := range tests {
		if got := preset.DeriveIsModified(tt.r, cat); got != tt.want {
			t.Errorf("%s: want %v, got %v", tt.name, tt.want, got)
		}
	}
}

func recordsEqual(a, b preset.Record) bool {
	return a.ID == b.ID &&
		a.SourceID == b.SourceID &&
		a.SourceType == b.SourceType &&
		a.Name == b.Name &&
		a.Description == b.Description &&
		slices.Equal(a.Models, b.Models) &&
		a.IsModified == b.IsModified &&
		a.IsFavorite == b.IsFavorite
}
