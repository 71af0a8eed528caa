package prompt

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the prompts by ID. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	prompts map[string]*PromptTemplate
}

var (
	global     *Registry
	globalOnce sync.Once
)

// Get returns the process-wide registry, seeded with the built-in prompts.
func Get() *Registry {
	globalOnce.Do(func() { global = NewRegistry() })
	return global
}

// NewRegistry returns a registry holding only the built-in prompts.
func NewRegistry() *Registry {
	defaults := Defaults()
	r := &Registry{prompts: make(map[string]*PromptTemplate, len(defaults))}
	for _, pt := range defaults {
		r.prompts[pt.ID] = pt
	}
	return r
}

// pipelineCategory is the category each pipeline prompt must keep when a
// file overrides it.
var pipelineCategory = map[string]string{
	PromptIDs.ExtractionStatement: "extraction",
	PromptIDs.ReportAnalysis:      "report",
}

// Register adds pt, replacing any prompt with the same ID.
func (r *Registry) Register(pt *PromptTemplate) error {
	switch {
	case pt.ID == "":
		return fmt.Errorf("PROMPT_INVALID: empty id")
	case pt.Text == "":
		return fmt.Errorf("PROMPT_INVALID: %s has empty text", pt.ID)
	}
	if want, ok := pipelineCategory[pt.ID]; ok && pt.Category != want {
		return fmt.Errorf("PROMPT_INVALID: %s must be in category %q, got %q", pt.ID, want, pt.Category)
	}

	r.mu.Lock()
	r.prompts[pt.ID] = pt
	r.mu.Unlock()
	return nil
}

// GetPrompt returns the prompt with the given ID.
func (r *Registry) GetPrompt(id string) (*PromptTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pt, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("PROMPT_NOT_FOUND: %s", id)
	}
	return pt, nil
}

// ListPrompts returns the registered IDs in sorted order.
func (r *Registry) ListPrompts() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.prompts))
	for id := range r.prompts {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Count returns the number of registered prompts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts)
}
