package progress

import "sort"

// Fidelity selects how far along the pipeline a menu view should read.
type Fidelity string

const (
	FidelityRaw        Fidelity = "raw"
	FidelityTranslated Fidelity = "translated"
	FidelityFinal      Fidelity = "final"
)

// MenuItem is one dish at whatever fidelity the pipeline has reached. All
// fields except the stable key are optional until filled by successive
// stages; values mutate in place as translation and enrichment arrive.
type MenuItem struct {
	Key          string `json:"key,omitempty"`
	JapaneseName string `json:"japanese_name"`
	EnglishName  string `json:"english_name,omitempty"`
	Description  string `json:"description,omitempty"`
	Price        string `json:"price,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
}

// StableKey identifies the item across stages. The pipeline sets Key
// explicitly; when it does not, the raw extracted name serves.
func (m MenuItem) StableKey() string {
	if m.Key != "" {
		return m.Key
	}
	return m.JapaneseName
}

// ItemStatus is the derived status of a single item, recomputed on read.
type ItemStatus struct {
	IsTranslated          bool `json:"is_translated"`
	IsComplete            bool `json:"is_complete"`
	IsPartiallyComplete   bool `json:"is_partially_complete"`
	IsCurrentlyProcessing bool `json:"is_currently_processing"`
}

type categoryState struct {
	order []string
	items map[string]*MenuItem
}

// CategoryAccumulator holds, per menu category, the evolving set of items and
// the monotonic set of completed categories. All mutations merge by stable
// key and never truncate: once an item is observed it is never dropped within
// a session. Not safe for concurrent use; the coordinator serializes access.
type CategoryAccumulator struct {
	categories map[string]*categoryState
	completed  map[string]struct{}
	processing string
}

// NewCategoryAccumulator returns an empty accumulator.
func NewCategoryAccumulator() *CategoryAccumulator {
	a := &CategoryAccumulator{}
	a.Reset()
	return a
}

func (a *CategoryAccumulator) category(name string) *categoryState {
	cs, ok := a.categories[name]
	if !ok {
		cs = &categoryState{items: make(map[string]*MenuItem)}
		a.categories[name] = cs
	}
	return cs
}

// merge folds the incoming item into the existing one. Only non-empty fields
// overwrite, so a partial chunk never erases data a previous chunk supplied.
func merge(dst *MenuItem, src MenuItem) {
	if src.JapaneseName != "" {
		dst.JapaneseName = src.JapaneseName
	}
	if src.EnglishName != "" {
		dst.EnglishName = src.EnglishName
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.Price != "" {
		dst.Price = src.Price
	}
	if src.ImageURL != "" {
		dst.ImageURL = src.ImageURL
	}
}

func (a *CategoryAccumulator) apply(category string, items []MenuItem) {
	cs := a.category(category)
	for _, in := range items {
		key := in.StableKey()
		if key == "" {
			continue
		}
		existing, ok := cs.items[key]
		if !ok {
			existing = &MenuItem{Key: in.Key}
			cs.items[key] = existing
			cs.order = append(cs.order, key)
		}
		merge(existing, in)
	}
}

// ApplyExtraction seeds raw items for one or more categories. Re-applying
// identical data is a no-op; applying to an already-seeded category merges by
// item key and never truncates existing items.
func (a *CategoryAccumulator) ApplyExtraction(data map[string][]MenuItem) {
	for category, items := range data {
		a.apply(category, items)
	}
}

// ApplyTranslationChunk merges translated fields into existing items by key;
// items not yet seen are appended. Chunks may be partial.
func (a *CategoryAccumulator) ApplyTranslationChunk(category string, items []MenuItem) {
	a.apply(category, items)
}

// ApplyEnrichment merges description/detail fields, same semantics as
// ApplyTranslationChunk.
func (a *CategoryAccumulator) ApplyEnrichment(category string, items []MenuItem) {
	a.apply(category, items)
}

// MarkCategoryCompleted records the terminal "category done" signal. The
// completed set is monotonic within a session. Clears the processing marker
// if it pointed at this category.
func (a *CategoryAccumulator) MarkCategoryCompleted(category string) {
	a.completed[category] = struct{}{}
	if a.processing == category {
		a.processing = ""
	}
}

// SetProcessingCategory marks at most one category as currently processing;
// the empty string clears the marker.
func (a *CategoryAccumulator) SetProcessingCategory(category string) {
	a.processing = category
}

// ProcessingCategory returns the currently processing category, or "".
func (a *CategoryAccumulator) ProcessingCategory() string {
	return a.processing
}

// CompletedCategories returns the sorted names of completed categories.
func (a *CategoryAccumulator) CompletedCategories() []string {
	out := make([]string, 0, len(a.completed))
	for name := range a.completed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsCategoryCompleted reports whether the category received its terminal
// signal.
func (a *CategoryAccumulator) IsCategoryCompleted(category string) bool {
	_, ok := a.completed[category]
	return ok
}

// CategoryCount returns how many categories have been seeded.
func (a *CategoryAccumulator) CategoryCount() int {
	return len(a.categories)
}

// CompletedCount returns how many categories received their terminal signal.
func (a *CategoryAccumulator) CompletedCount() int {
	return len(a.completed)
}

// ItemCount returns the number of items observed for the category.
func (a *CategoryAccumulator) ItemCount(category string) int {
	cs, ok := a.categories[category]
	if !ok {
		return 0
	}
	return len(cs.order)
}

// CurrentView returns the merged categorized menu at the requested fidelity.
// The projection is a deep copy; it never aliases accumulator state.
func (a *CategoryAccumulator) CurrentView(fidelity Fidelity) map[string][]MenuItem {
	view := make(map[string][]MenuItem, len(a.categories))
	for name, cs := range a.categories {
		items := make([]MenuItem, 0, len(cs.order))
		for _, key := range cs.order {
			items = append(items, project(*cs.items[key], fidelity))
		}
		view[name] = items
	}
	return view
}

func project(item MenuItem, fidelity Fidelity) MenuItem {
	switch fidelity {
	case FidelityRaw:
		return MenuItem{Key: item.Key, JapaneseName: item.JapaneseName, Price: item.Price}
	case FidelityTranslated:
		return MenuItem{Key: item.Key, JapaneseName: item.JapaneseName, EnglishName: item.EnglishName, Price: item.Price}
	default:
		return item
	}
}

// ItemStatus derives the status flags for one item. The zero status and
// ok=false come back for unknown items.
func (a *CategoryAccumulator) ItemStatus(category, key string) (ItemStatus, bool) {
	cs, ok := a.categories[category]
	if !ok {
		return ItemStatus{}, false
	}
	item, ok := cs.items[key]
	if !ok {
		return ItemStatus{}, false
	}
	filled := 0
	for _, f := range []string{item.JapaneseName, item.EnglishName, item.Description, item.Price} {
		if f != "" {
			filled++
		}
	}
	return ItemStatus{
		IsTranslated:          item.EnglishName != "",
		IsComplete:            filled == 4,
		IsPartiallyComplete:   filled > 0 && filled < 4,
		IsCurrentlyProcessing: a.processing == category,
	}, true
}

// Reset clears all accumulated state for a fresh session.
func (a *CategoryAccumulator) Reset() {
	a.categories = make(map[string]*categoryState)
	a.completed = make(map[string]struct{})
	a.processing = ""
}
