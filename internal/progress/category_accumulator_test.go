package progress

import (
	"reflect"
	"testing"
)

func seedMains(a *CategoryAccumulator) {
	a.ApplyExtraction(map[string][]MenuItem{
		"mains": {
			{JapaneseName: "ラーメン", Price: "¥900"},
			{JapaneseName: "カレー"},
		},
	})
}

func TestApplyExtractionSeedsItems(t *testing.T) {
	a := NewCategoryAccumulator()
	seedMains(a)

	view := a.CurrentView(FidelityRaw)
	if len(view["mains"]) != 2 {
		t.Fatalf("mains items = %d, want 2", len(view["mains"]))
	}
	if view["mains"][0].JapaneseName != "ラーメン" {
		t.Errorf("first item = %q, want ラーメン", view["mains"][0].JapaneseName)
	}
	if view["mains"][0].Price != "¥900" {
		t.Errorf("price = %q, want ¥900", view["mains"][0].Price)
	}
}

func TestApplyExtractionIsIdempotent(t *testing.T) {
	a := NewCategoryAccumulator()
	seedMains(a)
	before := a.CurrentView(FidelityFinal)

	seedMains(a)
	after := a.CurrentView(FidelityFinal)

	if !reflect.DeepEqual(before, after) {
		t.Errorf("re-applying identical extraction changed state:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestApplyExtractionMergesNeverTruncates(t *testing.T) {
	a := NewCategoryAccumulator()
	seedMains(a)

	// A second extraction for the same category with only one item must not
	// drop the other.
	a.ApplyExtraction(map[string][]MenuItem{
		"mains": {{JapaneseName: "ラーメン"}},
	})

	if got := a.ItemCount("mains"); got != 2 {
		t.Errorf("mains items after partial re-extraction = %d, want 2", got)
	}
}

func TestTranslationChunkMergesByKey(t *testing.T) {
	a := NewCategoryAccumulator()
	seedMains(a)

	a.ApplyTranslationChunk("mains", []MenuItem{
		{JapaneseName: "ラーメン", EnglishName: "Ramen"},
	})

	view := a.CurrentView(FidelityTranslated)
	if view["mains"][0].EnglishName != "Ramen" {
		t.Errorf("english name = %q, want Ramen", view["mains"][0].EnglishName)
	}
	// Untranslated sibling untouched.
	if view["mains"][1].EnglishName != "" {
		t.Errorf("untranslated item english name = %q, want empty", view["mains"][1].EnglishName)
	}
	// Price observed at extraction survives the chunk.
	if view["mains"][0].Price != "¥900" {
		t.Errorf("price after translation chunk = %q, want ¥900", view["mains"][0].Price)
	}
}

func TestTranslationChunkIsIdempotent(t *testing.T) {
	a := NewCategoryAccumulator()
	seedMains(a)

	chunk := []MenuItem{{JapaneseName: "ラーメン", EnglishName: "Ramen"}}
	a.ApplyTranslationChunk("mains", chunk)
	once := a.CurrentView(FidelityFinal)

	a.ApplyTranslationChunk("mains", chunk)
	twice := a.CurrentView(FidelityFinal)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("duplicate chunk changed state:\nonce  %+v\ntwice %+v", once, twice)
	}
}

func TestChunkAppendsUnseenItems(t *testing.T) {
	a := NewCategoryAccumulator()

	a.ApplyTranslationChunk("desserts", []MenuItem{
		{JapaneseName: "プリン", EnglishName: "Purin"},
	})

	if got := a.ItemCount("desserts"); got != 1 {
		t.Fatalf("desserts items = %d, want 1", got)
	}
}

func TestEnrichmentMergesDescription(t *testing.T) {
	a := NewCategoryAccumulator()
	seedMains(a)
	a.ApplyTranslationChunk("mains", []MenuItem{{JapaneseName: "ラーメン", EnglishName: "Ramen"}})

	a.ApplyEnrichment("mains", []MenuItem{
		{JapaneseName: "ラーメン", Description: "Wheat noodles in pork broth"},
	})

	item := a.CurrentView(FidelityFinal)["mains"][0]
	if item.Description != "Wheat noodles in pork broth" {
		t.Errorf("description = %q", item.Description)
	}
	if item.EnglishName != "Ramen" {
		t.Errorf("english name lost during enrichment: %q", item.EnglishName)
	}
}

func TestCompletedCategoriesMonotonic(t *testing.T) {
	a := NewCategoryAccumulator()
	seedMains(a)

	sizes := []int{a.CompletedCount()}
	a.MarkCategoryCompleted("mains")
	sizes = append(sizes, a.CompletedCount())
	a.MarkCategoryCompleted("mains") // duplicate signal
	sizes = append(sizes, a.CompletedCount())
	a.MarkCategoryCompleted("desserts")
	sizes = append(sizes, a.CompletedCount())

	for i := 1; i < len(sizes); i++ {
		if sizes[i] < sizes[i-1] {
			t.Fatalf("completed set shrank: %v", sizes)
		}
	}
	if got := a.CompletedCategories(); !reflect.DeepEqual(got, []string{"desserts", "mains"}) {
		t.Errorf("completed categories = %v", got)
	}
}

func TestMarkCompletedClearsProcessing(t *testing.T) {
	a := NewCategoryAccumulator()
	a.SetProcessingCategory("mains")

	a.MarkCategoryCompleted("mains")
	if got := a.ProcessingCategory(); got != "" {
		t.Errorf("processing after completion = %q, want empty", got)
	}

	// Completing a different category leaves the marker alone.
	a.SetProcessingCategory("desserts")
	a.MarkCategoryCompleted("mains")
	if got := a.ProcessingCategory(); got != "desserts" {
		t.Errorf("processing = %q, want desserts", got)
	}
}

func TestCurrentViewFidelityProjection(t *testing.T) {
	a := NewCategoryAccumulator()
	a.ApplyExtraction(map[string][]MenuItem{
		"mains": {{JapaneseName: "ラーメン", Price: "¥900"}},
	})
	a.ApplyTranslationChunk("mains", []MenuItem{{JapaneseName: "ラーメン", EnglishName: "Ramen"}})
	a.ApplyEnrichment("mains", []MenuItem{{JapaneseName: "ラーメン", Description: "Noodle soup"}})

	raw := a.CurrentView(FidelityRaw)["mains"][0]
	if raw.EnglishName != "" || raw.Description != "" {
		t.Errorf("raw view leaked higher-fidelity fields: %+v", raw)
	}

	translated := a.CurrentView(FidelityTranslated)["mains"][0]
	if translated.EnglishName != "Ramen" {
		t.Errorf("translated view english name = %q", translated.EnglishName)
	}
	if translated.Description != "" {
		t.Errorf("translated view leaked description: %+v", translated)
	}

	final := a.CurrentView(FidelityFinal)["mains"][0]
	if final.Description != "Noodle soup" {
		t.Errorf("final view description = %q", final.Description)
	}
}

func TestCurrentViewDoesNotAliasState(t *testing.T) {
	a := NewCategoryAccumulator()
	seedMains(a)

	view := a.CurrentView(FidelityFinal)
	view["mains"][0].JapaneseName = "mutated"

	if a.CurrentView(FidelityFinal)["mains"][0].JapaneseName != "ラーメン" {
		t.Error("mutating a view must not affect accumulator state")
	}
}

func TestItemStatusDerivation(t *testing.T) {
	a := NewCategoryAccumulator()
	seedMains(a)
	a.ApplyTranslationChunk("mains", []MenuItem{{JapaneseName: "ラーメン", EnglishName: "Ramen"}})
	a.SetProcessingCategory("mains")

	status, ok := a.ItemStatus("mains", "ラーメン")
	if !ok {
		t.Fatal("item not found")
	}
	if !status.IsTranslated {
		t.Error("IsTranslated = false, want true")
	}
	if status.IsComplete {
		t.Error("IsComplete = true, description still absent")
	}
	if !status.IsPartiallyComplete {
		t.Error("IsPartiallyComplete = false, want true")
	}
	if !status.IsCurrentlyProcessing {
		t.Error("IsCurrentlyProcessing = false, want true")
	}

	a.ApplyEnrichment("mains", []MenuItem{{JapaneseName: "ラーメン", Description: "Noodle soup"}})
	a.SetProcessingCategory("")

	status, _ = a.ItemStatus("mains", "ラーメン")
	if !status.IsComplete {
		t.Error("IsComplete = false after all fields filled")
	}
	if status.IsPartiallyComplete {
		t.Error("IsPartiallyComplete = true for a complete item")
	}
	if status.IsCurrentlyProcessing {
		t.Error("IsCurrentlyProcessing = true after marker cleared")
	}

	if _, ok := a.ItemStatus("mains", "no-such-item"); ok {
		t.Error("unknown item should report ok=false")
	}
	if _, ok := a.ItemStatus("no-such-category", "x"); ok {
		t.Error("unknown category should report ok=false")
	}
}

func TestAccumulatorReset(t *testing.T) {
	a := NewCategoryAccumulator()
	seedMains(a)
	a.MarkCategoryCompleted("mains")
	a.SetProcessingCategory("desserts")

	a.Reset()

	if a.CategoryCount() != 0 || a.CompletedCount() != 0 || a.ProcessingCategory() != "" {
		t.Error("reset accumulator retained state")
	}
}
