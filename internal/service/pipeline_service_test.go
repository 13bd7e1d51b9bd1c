package service

import (
	"reflect"
	"testing"

	"menu-lens-be/internal/progress"
)

func TestMergeItems(t *testing.T) {
	base := []progress.MenuItem{
		{JapaneseName: "ラーメン", Price: "¥900"},
		{JapaneseName: "唐揚げ", Price: "¥650"},
	}

	t.Run("fills fields by stable key", func(t *testing.T) {
		got := mergeItems(base, []progress.MenuItem{
			{JapaneseName: "ラーメン", EnglishName: "Ramen"},
		})
		if got[0].EnglishName != "Ramen" {
			t.Fatalf("expected merged english name, got %+v", got[0])
		}
		if got[0].Price != "¥900" {
			t.Fatalf("merge must not clear existing fields, got %+v", got[0])
		}
		if got[1].EnglishName != "" {
			t.Fatalf("untouched item changed: %+v", got[1])
		}
	})

	t.Run("appends unmatched items", func(t *testing.T) {
		got := mergeItems(base, []progress.MenuItem{
			{JapaneseName: "プリン", EnglishName: "Purin"},
		})
		if len(got) != 3 {
			t.Fatalf("expected append, got %d items", len(got))
		}
	})

	t.Run("does not mutate the base slice", func(t *testing.T) {
		before := make([]progress.MenuItem, len(base))
		copy(before, base)
		mergeItems(base, []progress.MenuItem{{JapaneseName: "ラーメン", Description: "x"}})
		if !reflect.DeepEqual(base, before) {
			t.Fatalf("base mutated: %+v", base)
		}
	})
}

func TestSortedCategories(t *testing.T) {
	got := sortedCategories(map[string][]progress.MenuItem{
		"mains": nil, "appetizers": nil, "desserts": nil,
	})
	want := []string{"appetizers", "desserts", "mains"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
