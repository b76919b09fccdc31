package preset

import "slices"

// Category groups templates in the picker.
type Category string

const (
	CategorySupport     Category = "support"
	CategoryWriting     Category = "writing"
	CategoryBrainstorm  Category = "brainstorm"
	CategoryAnalysis    Category = "analysis"
	CategoryDevelopment Category = "development"
)

// categoryOrder is the fixed display order with display names.
var categoryOrder = []struct {
	id   Category
	name string
}{
	{CategorySupport, "Customer Support"},
	{CategoryWriting, "Writing"},
	{CategoryBrainstorm, "Brainstorming"},
	{CategoryAnalysis, "Analysis"},
	{CategoryDevelopment, "Development"},
}

func (c Category) Valid() bool {
	for _, co := range categoryOrder {
		if co.id == c {
			return true
		}
	}
	return false
}

// Template is a read-only starter definition for custom presets.
type Template struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Category        Category `json:"category"`
	SuggestedModels []string `json:"suggestedModels"`
	SystemPrompt    string   `json:"systemPrompt,omitempty"`
}

// CategorySummary is one row of Templates.Categories.
type CategorySummary struct {
	ID    Category `json:"id"`
	Name  string   `json:"name"`
	Count int      `json:"count"`
}

// Templates is an immutable template catalog. Accessors hand out copies.
type Templates struct {
	items []Template
}

// NewTemplates copies items into a catalog.
func NewTemplates(items []Template) *Templates {
	t := &Templates{items: make([]Template, len(items))}
	for i, it := range items {
		t.items[i] = it.clone()
	}
	return t
}

func (t Template) clone() Template {
	t.SuggestedModels = slices.Clone(t.SuggestedModels)
	return t
}

// All returns every template in declaration order.
func (t *Templates) All() []Template {
	out := make([]Template, len(t.items))
	for i, it := range t.items {
		out[i] = it.clone()
	}
	return out
}

// ByCategory returns the templates of one category in declaration order.
func (t *Templates) ByCategory(c Category) []Template {
	out := []Template{}
	for _, it := range t.items {
		if it.Category == c {
			out = append(out, it.clone())
		}
	}
	return out
}

// Get returns the template with the given id.
func (t *Templates) Get(id string) (Template, bool) {
	for _, it := range t.items {
		if it.ID == id {
			return it.clone(), true
		}
	}
	return Template{}, false
}

// Categories lists every category in display order with its template count.
func (t *Templates) Categories() []CategorySummary {
	out := make([]CategorySummary, 0, len(categoryOrder))
	for _, co := range categoryOrder {
		out = append(out, CategorySummary{
			ID:    co.id,
			Name:  co.name,
			Count: len(t.ByCategory(co.id)),
		})
	}
	return out
}

// Instantiate creates a new custom record from tmpl. The record owns its
// models slice.
func Instantiate(tmpl Template, newID IDFunc) Record {
	return Record{
		ID:          newID(),
		SourceID:    tmpl.ID,
		SourceType:  SourceCustom,
		Name:        tmpl.Name,
		Description: tmpl.Description,
		Models:      cloneModels(tmpl.SuggestedModels),
	}
}

// DefaultTemplates returns a fresh copy of the shipped starter templates.
func DefaultTemplates() []Template {
	return []Template{
		{
			ID:              "support-triage",
			Name:            "Support Triage",
			Description:     "Classify and draft replies to customer tickets",
			Category:        CategorySupport,
			SuggestedModels: []string{"openai:GPT-4", "anthropic:Claude 3 Haiku"},
			SystemPrompt:    "You are a friendly support agent. Classify the ticket, then draft a concise reply.",
		},
		{
			ID:              "support-escalation",
			Name:            "Escalation Review",
			Description:     "Summarize long threads for escalation",
			Category:        CategorySupport,
			SuggestedModels: []string{"anthropic:Claude 3 Sonnet"},
		},
		{
			ID:              "writing-blog",
			Name:            "Blog Post Drafting",
			Description:     "Outline and draft long-form posts",
			Category:        CategoryWriting,
			SuggestedModels: []string{"anthropic:Claude 3 Opus", "openai:GPT-4"},
			SystemPrompt:    "Write in a clear, engaging voice. Start with an outline.",
		},
		{
			ID:              "writing-copyedit",
			Name:            "Copy Editing",
			Description:     "Tighten prose and fix grammar",
			Category:        CategoryWriting,
			SuggestedModels: []string{"openai:GPT-4", "google:Gemini Pro"},
		},
		{
			ID:              "brainstorm-ideas",
			Name:            "Idea Storm",
			Description:     "Generate many divergent ideas quickly",
			Category:        CategoryBrainstorm,
			SuggestedModels: []string{"openai:GPT-4", "anthropic:Claude 3 Sonnet", "google:Gemini Pro"},
			SystemPrompt:    "List as many distinct ideas as you can. Do not filter.",
		},
		{
			ID:              "brainstorm-naming",
			Name:            "Product Naming",
			Description:     "Name products, features and projects",
			Category:        CategoryBrainstorm,
			SuggestedModels: []string{"anthropic:Claude 3 Opus", "openai:GPT-3.5 Turbo"},
		},
		{
			ID:              "analysis-data",
			Name:            "Data Analysis",
			Description:     "Interpret tables and spot trends",
			Category:        CategoryAnalysis,
			SuggestedModels: []string{"openai:GPT-4", "deepseek:DeepSeek R1"},
			SystemPrompt:    "Explain the data step by step and state your assumptions.",
		},
		{
			ID:              "analysis-compare",
			Name:            "Second Opinion",
			Description:     "Compare answers from several models",
			Category:        CategoryAnalysis,
			SuggestedModels: []string{"openai:GPT-4", "anthropic:Claude 3 Opus", "google:Gemini Pro"},
		},
		{
			ID:              "development-review",
			Name:            "Code Review",
			Description:     "Review diffs for bugs and style",
			Category:        CategoryDevelopment,
			SuggestedModels: []string{"openai:GPT-4", "deepseek:DeepSeek Coder"},
			SystemPrompt:    "Review the code for correctness first, style second.",
		},
		{
			ID:              "development-debug",
			Name:            "Debugging Pair",
			Description:     "Track down failing tests and stack traces",
			Category:        CategoryDevelopment,
			SuggestedModels: []string{"anthropic:Claude 3 Sonnet", "deepseek:DeepSeek Coder"},
		},
	}
}
