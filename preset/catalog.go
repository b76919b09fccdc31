package preset

import "slices"

// Source is a built-in preset definition shipped with the application.
type Source struct {
	ID          string   `json:"id" toml:"id"`
	Name        string   `json:"name" toml:"name"`
	Description string   `json:"description,omitempty" toml:"description"`
	Models      []string `json:"models" toml:"models"`
}

// Catalog is the ordered list of built-in sources.
type Catalog []Source

func (c Catalog) Lookup(id string) (Source, bool) {
	for _, s := range c {
		if s.ID == id {
			return s, true
		}
	}
	return Source{}, false
}

// Entries converts the catalog, in order, into AddMany input.
func (c Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c))
	for _, s := range c {
		out = append(out, Entry{
			SourceID:    s.ID,
			SourceType:  SourceBuiltIn,
			Name:        s.Name,
			Description: s.Description,
			Models:      slices.Clone(s.Models),
		})
	}
	return out
}

// DefaultCatalog returns a fresh copy of the built-in presets.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			ID:          "coding",
			Name:        "Coding Team",
			Description: "Code generation and review",
			Models:      []string{"openai:GPT-4", "deepseek:DeepSeek Coder"},
		},
		{
			ID:          "writing",
			Name:        "Writing Studio",
			Description: "Drafting and editing prose",
			Models:      []string{"anthropic:Claude 3 Opus", "openai:GPT-4"},
		},
		{
			ID:          "research",
			Name:        "Research Panel",
			Description: "Cross-check answers across providers",
			Models:      []string{"openai:GPT-4", "anthropic:Claude 3 Sonnet", "google:Gemini Pro"},
		},
		{
			ID:          "fast",
			Name:        "Quick Answers",
			Description: "Low-latency models for short questions",
			Models:      []string{"openai:GPT-3.5 Turbo", "anthropic:Claude 3 Haiku"},
		},
		{
			ID:          "reasoning",
			Name:        "Deep Reasoning",
			Description: "Step-by-step problem solving",
			Models:      []string{"openai:o1", "deepseek:DeepSeek R1"},
		},
	}
}
